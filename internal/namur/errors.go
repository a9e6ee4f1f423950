// internal/namur/errors.go
package namur

import (
	"errors"
	"fmt"
)

var (
	// ErrMisaligned reports a response that does not belong to the command it
	// was read for. It is a soft fault: the transport drains the stream and
	// reports no value.
	ErrMisaligned = errors.New("namur: response does not match command")

	// ErrMalformedResponse reports a numeric readout that could not be parsed.
	ErrMalformedResponse = errors.New("namur: malformed numeric response")

	// ErrUnsupportedResponse reports a command whose response encoding is unknown.
	ErrUnsupportedResponse = errors.New("namur: response encoding not supported")
)

// MisconfiguredDeviceError is returned when the instrument answers with a
// marker that belongs to a different protocol family. Retrying cannot help;
// the instrument settings have to be changed.
type MisconfiguredDeviceError struct {
	Command  string
	Response string
	Marker   string
	Hint     string
}

func (e *MisconfiguredDeviceError) Error() string {
	msg := fmt.Sprintf("namur: misconfigured device: response %q to %q contains %q", e.Response, e.Command, e.Marker)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// IsMisconfigured reports whether err carries a MisconfiguredDeviceError.
func IsMisconfigured(err error) bool {
	var target *MisconfiguredDeviceError
	return errors.As(err, &target)
}
