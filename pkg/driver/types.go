// pkg/driver/types.go
package driver

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEquipment = errors.New("unknown equipment")
	ErrInvalidSetpoint  = errors.New("invalid setpoint")
	ErrNotSupported     = errors.New("operation not supported by instrument")
)

// Reading is a live snapshot. Values are float64, bool, string, int or nil
// when the instrument did not answer.
type Reading map[string]any

// Info holds identification data and safety limits
type Info map[string]any

// EquipmentInfo describes one settable or switchable part of an instrument
type EquipmentInfo struct {
	Name       string   `json:"name"`
	Settable   bool     `json:"settable"`
	Switchable bool     `json:"switchable"`
	Unit       string   `json:"unit,omitempty"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
}

// CheckRange validates setpoint against the equipment limits
func (e EquipmentInfo) CheckRange(setpoint float64) error {
	if e.Min != nil && setpoint < *e.Min {
		return fmt.Errorf("%w: %s setpoint %g is below the minimum of %g%s", ErrInvalidSetpoint, e.Name, setpoint, *e.Min, e.Unit)
	}
	if e.Max != nil && setpoint > *e.Max {
		return fmt.Errorf("%w: %s setpoint %g is above the maximum of %g%s", ErrInvalidSetpoint, e.Name, setpoint, *e.Max, e.Unit)
	}
	return nil
}

// Options tune instrument behaviour
type Options struct {
	// IncludeSurfaceControl adds the surface setpoint to hotplate readings
	IncludeSurfaceControl bool `json:"include_surface_control" mapstructure:"include_surface_control"`
}

// Bounds returns pointers for EquipmentInfo limits
func Bounds(min, max float64) (*float64, *float64) {
	return &min, &max
}

// UnknownEquipment builds the error returned for an unsupported equipment name
func UnknownEquipment(name string, valid ...string) error {
	return fmt.Errorf("%w: %q, must be one of %v", ErrUnknownEquipment, name, valid)
}
