// internal/simulator/instrument.go
package simulator

import (
	"strconv"
	"strings"
	"sync"

	"namur-service/internal/model"
)

// Instrument is the in-memory state of a simulated instrument
type Instrument struct {
	kind    model.InstrumentType
	profile profile

	mu        sync.Mutex
	name      string
	values    map[string]float64
	flags     map[string]bool
	errorCode int
	received  []string
}

// NewInstrument creates a simulated instrument of the given family
func NewInstrument(kind model.InstrumentType) *Instrument {
	p := profileFor(kind)
	values := make(map[string]float64, len(p.values))
	for k, v := range p.values {
		values[k] = v
	}
	return &Instrument{
		kind:    kind,
		profile: p,
		name:    p.name,
		values:  values,
		flags:   make(map[string]bool),
	}
}

func (in *Instrument) Kind() model.InstrumentType { return in.kind }

// Respond applies a command line and returns the lines the instrument
// answers with. Commands without an answer return nil.
func (in *Instrument) Respond(line string) []string {
	in.mu.Lock()
	defer in.mu.Unlock()

	command := strings.TrimSpace(line)
	if command == "" {
		return nil
	}
	in.received = append(in.received, command)

	p := in.profile
	verb, arg, _ := strings.Cut(command, " ")

	switch verb {
	case "RESET":
		for flag := range in.flags {
			in.flags[flag] = false
		}
		return nil
	case "IN_NAME":
		return []string{in.name}
	case "IN_TYPE", "IN_DEVICE":
		return []string{firstNonEmpty(p.deviceType, p.name)}
	case "IN_VERSION":
		return []string{p.version}
	case "IN_SOFTWARE_ID":
		return []string{firstNonEmpty(p.softwareID, p.version)}
	case "IN_DATE":
		return []string{"2022-06-01"}
	case "OUT_NAME":
		in.name = strings.TrimSpace(arg)
		return nil
	case "IN_ERROR":
		return []string{verb + " " + strconv.Itoa(in.errorCode)}
	}

	if target, ok := p.setters[verb]; ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return nil
		}
		in.values[target] = v
		return in.ack(command)
	}

	if flag, ok := p.switches[verb]; ok {
		in.flags[flag] = strings.HasPrefix(verb, "START")
		if p.ackControl {
			return []string{command}
		}
		return in.ack(command)
	}

	if st, ok := p.statuses[verb]; ok {
		return []string{in.status(verb, st)}
	}

	if f, ok := p.followers[verb]; ok {
		v := f.idle
		if in.flags[f.flag] {
			v = in.values[f.setpoint]
		}
		return []string{in.number(verb, v)}
	}

	if v, ok := in.values[verb]; ok {
		return []string{in.number(verb, v)}
	}

	return nil
}

func (in *Instrument) ack(command string) []string {
	if in.profile.echoes {
		return []string{command}
	}
	return nil
}

func (in *Instrument) number(verb string, v float64) string {
	formatted := strconv.FormatFloat(v, 'f', 1, 64)
	if in.profile.echoes {
		return verb + " " + formatted
	}
	return formatted + " " + verb[len(verb)-1:]
}

func (in *Instrument) status(verb string, st status) string {
	on := in.flags[st.flag]

	var code string
	switch st.encoding {
	case statusFlag:
		code = "0"
		if on {
			code = "1"
		}
	case statusCode:
		code = "12"
		if on {
			code = "11"
		}
	default:
		code = "-90"
	}

	if in.profile.echoes {
		return verb + " " + code
	}
	return code + " " + verb[len(verb)-1:]
}

// Flag reports whether a heater, motor or measurement is switched on
func (in *Instrument) Flag(name string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.flags[name]
}

// Value returns the stored value behind a read command such as IN_SP_4
func (in *Instrument) Value(verb string) float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.values[verb]
}

// SetErrorCode sets the code reported by IN_ERROR
func (in *Instrument) SetErrorCode(code int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.errorCode = code
}

// Received returns every command seen so far
func (in *Instrument) Received() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.received...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
