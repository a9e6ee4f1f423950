// internal/namur/decoder.go
package namur

import (
	"fmt"
	"strconv"
	"strings"
)

// readbackSuffixLen is the length of the unit/command readback that trails
// every numeric response, e.g. the " 4" in "22.50 4".
const readbackSuffixLen = 2

// Decoder turns a response line into a Value using a CommandTable.
// It holds no connection state and is safe for concurrent use.
type Decoder struct {
	table *CommandTable
}

// NewDecoder creates a decoder. A nil table falls back to DefaultTable.
func NewDecoder(table *CommandTable) *Decoder {
	if table == nil {
		table = DefaultTable()
	}
	return &Decoder{table: table}
}

// Table returns the table the decoder looks rules up in.
func (d *Decoder) Table() *CommandTable { return d.table }

// Decode interprets response as the answer to command. received is false when
// no line could be read. The rules are applied in order and the first match
// wins; see the package documentation.
//
// An echo-prefixed command whose response lacks the echo is misaligned even
// when the last characters agree. Those instruments always echo, so a bare
// value can only belong to an earlier request.
func (d *Decoder) Decode(command, response string, received bool) (Value, error) {
	if !received {
		return NoValue(), nil
	}

	command = strings.TrimSpace(command)
	response = strings.TrimSpace(response)
	entry := d.table.Lookup(command)

	if entry.Rule == RuleIdentity {
		return NewString(response), nil
	}

	for _, s := range d.table.Sentinels() {
		if strings.Contains(response, s.Marker) {
			return NoValue(), &MisconfiguredDeviceError{
				Command:  command,
				Response: response,
				Marker:   s.Marker,
				Hint:     s.Hint,
			}
		}
	}

	if command != "" {
		if i := strings.Index(response, command); i >= 0 {
			return NewString(strings.TrimSpace(response[i+len(command):])), nil
		}
	}
	if entry.Rule == RuleEchoPrefixed {
		return NoValue(), fmt.Errorf("%w: %q was not echoed in %q", ErrMisaligned, command, response)
	}

	if response == "" || command == "" || response[len(response)-1] != command[len(command)-1] {
		return NoValue(), fmt.Errorf("%w: %q to %q", ErrMisaligned, response, command)
	}

	switch entry.Rule {
	case RuleBooleanFirstChar, RuleTwoCharCode:
		return NewBool(strings.HasPrefix(response, entry.Active)), nil
	case RuleUnsupported:
		return NoValue(), fmt.Errorf("%w: %q to %q", ErrUnsupportedResponse, response, command)
	}

	return parseReadout(command, response)
}

func parseReadout(command, response string) (Value, error) {
	if len(response) <= readbackSuffixLen {
		return NoValue(), fmt.Errorf("%w: %q to %q is too short", ErrMalformedResponse, response, command)
	}

	payload := strings.TrimSpace(response[:len(response)-readbackSuffixLen])
	f, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return NoValue(), fmt.Errorf("%w: %q to %q: %v", ErrMalformedResponse, response, command, err)
	}
	return NewFloat(f), nil
}
