// internal/namur/value.go
package namur

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNone Kind = iota
	KindFloat
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "none"
	}
}

// Value is a decoded response. The zero Value is None, which means no data
// was received this cycle.
type Value struct {
	kind Kind
	f    float64
	b    bool
	s    string
}

// NoValue returns the None variant.
func NoValue() Value { return Value{} }

// NewFloat returns a numeric Value.
func NewFloat(f float64) Value { return Value{kind: KindFloat, f: f} }

// NewBool returns a boolean Value.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewString returns a text Value.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether no response was decoded.
func (v Value) IsNone() bool { return v.kind == KindNone }

// AsFloat returns the numeric content. Text payloads (echo-prefixed
// responses) are parsed as well.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsBool returns the status flag of a boolean Value.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsString returns the text of an identity or echo-prefixed response.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Any returns the held value as float64, bool, string or nil.
func (v Value) Any() any {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return v.s
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	default:
		return "<none>"
	}
}

// MarshalJSON encodes None as null and the other variants as their JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}
