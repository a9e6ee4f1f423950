// internal/driver/ika/vacuum.go
package ika

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"namur-service/internal/model"
	"namur-service/pkg/driver"
)

// Vacuum drives IKA vacuum pumps (VACSTAR). The pump echoes every command,
// so setpoints and control go through Query to consume the echo.
type Vacuum struct {
	device
}

// VacuumError is a decoded IN_ERROR response
type VacuumError struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// NewVacuum creates a vacuum pump driver
func NewVacuum(client driver.Client, _ driver.Options, logger *zap.Logger) driver.Instrument {
	return &Vacuum{device: newDevice(model.InstrumentVacuum, client, logger)}
}

func (v *Vacuum) Equipment() []driver.EquipmentInfo {
	return []driver.EquipmentInfo{
		{Name: "pressure", Settable: true, Unit: "mbar", Min: ptr(0)},
		{Name: "measurement", Switchable: true},
	}
}

// Get reads the measurement status and the pressure with its setpoint
func (v *Vacuum) Get(ctx context.Context) (driver.Reading, error) {
	r := v.reads(ctx)
	pressure := r.number(VacuumReadPressure)
	setpoint := r.number(VacuumReadSetPressure)
	active := r.active(VacuumReadStatus)
	if r.err != nil {
		return nil, r.err
	}

	return driver.Reading{
		"active": active,
		"pressure": map[string]any{
			"setpoint": setpoint,
			"actual":   pressure,
		},
	}, nil
}

// GetInfo reads the name and firmware version
func (v *Vacuum) GetInfo(ctx context.Context) (driver.Info, error) {
	r := v.reads(ctx)
	name := r.text(ReadDeviceName)
	version := r.text(ReadSoftwareVersion)
	if r.err != nil {
		return nil, r.err
	}

	return driver.Info{
		"name":    name,
		"version": version,
	}, nil
}

// Set changes the pressure setpoint. An empty equipment name means pressure.
func (v *Vacuum) Set(ctx context.Context, equipment string, setpoint float64) error {
	if equipment != "pressure" && equipment != "" {
		return driver.UnknownEquipment(equipment, "pressure")
	}
	if err := equipmentInfo(v.Equipment(), "pressure").CheckRange(setpoint); err != nil {
		return err
	}

	_, err := v.client.Query(ctx, withValue(VacuumSetPressure, setpoint))
	return err
}

// Control starts or stops the pressure measurement
func (v *Vacuum) Control(ctx context.Context, equipment string, on bool) error {
	if equipment != "measurement" && equipment != "" {
		return driver.UnknownEquipment(equipment, "measurement")
	}

	_, err := v.client.Query(ctx, pick(on, VacuumStartMeasurement, VacuumStopMeasurement))
	return err
}

// Error reads the pump error state. A nil result means no answer was received.
func (v *Vacuum) Error(ctx context.Context) (*VacuumError, error) {
	value, err := v.client.Query(ctx, VacuumReadError)
	if err != nil || value.IsNone() {
		return nil, err
	}

	payload := strings.Fields(value.String())
	if len(payload) == 0 {
		return &VacuumError{}, nil
	}
	code, err := strconv.Atoi(payload[0])
	if err != nil {
		return nil, fmt.Errorf("unexpected error code %q: %w", payload[0], err)
	}

	vacErr := &VacuumError{Code: code}
	if code != 0 {
		vacErr.Message = VacuumErrorCodes[code]
		if vacErr.Message == "" {
			vacErr.Message = "Unknown error code"
		}
	}
	return vacErr, nil
}
