// internal/driver/ika/shaker.go
package ika

import (
	"context"

	"go.uber.org/zap"

	"namur-service/internal/model"
	"namur-service/pkg/driver"
)

// Shaker drives IKA orbital shakers (MATRIX ORBITAL)
type Shaker struct {
	device
}

// NewShaker creates an orbital shaker driver
func NewShaker(client driver.Client, _ driver.Options, logger *zap.Logger) driver.Instrument {
	return &Shaker{device: newDevice(model.InstrumentShaker, client, logger)}
}

func (s *Shaker) Equipment() []driver.EquipmentInfo {
	minTemp, maxTemp := driver.Bounds(1, 100)
	minSpeed, maxSpeed := driver.Bounds(300, 3000)
	return []driver.EquipmentInfo{
		{Name: "heater", Settable: true, Switchable: true, Unit: "C", Min: minTemp, Max: maxTemp},
		{Name: "shaker", Settable: true, Switchable: true, Unit: "rpm", Min: minSpeed, Max: maxSpeed},
	}
}

// Get reads temperature and speed with their setpoints and status
func (s *Shaker) Get(ctx context.Context) (driver.Reading, error) {
	r := s.reads(ctx)
	temp := r.raw(ShakerReadTemp)
	tempSetpoint := r.raw(ShakerReadSetTemp)
	heaterActive := r.raw(ShakerReadHeaterStatus)
	speed := r.integer(ShakerReadSpeed)
	speedSetpoint := r.integer(ShakerReadSetSpeed)
	motorActive := r.raw(ShakerReadMotorStatus)
	if r.err != nil {
		return nil, r.err
	}

	return driver.Reading{
		"temp": map[string]any{
			"setpoint": tempSetpoint,
			"actual":   temp,
			"active":   heaterActive,
		},
		"speed": map[string]any{
			"setpoint": speedSetpoint,
			"actual":   speed,
			"active":   motorActive,
		},
	}, nil
}

// GetInfo reads the name and firmware identification
func (s *Shaker) GetInfo(ctx context.Context) (driver.Info, error) {
	r := s.reads(ctx)
	name := r.text(ReadDeviceName)
	version := r.text(ReadSoftwareVersion)
	softwareID := r.text(ReadSoftwareID)
	if r.err != nil {
		return nil, r.err
	}

	return driver.Info{
		"name":        name,
		"version":     version,
		"software_ID": softwareID,
	}, nil
}

func (s *Shaker) Set(ctx context.Context, equipment string, setpoint float64) error {
	var command string
	switch equipment {
	case "heater":
		command = ShakerSetTemp
	case "shaker":
		command = ShakerSetSpeed
	default:
		return driver.UnknownEquipment(equipment, "heater", "shaker")
	}

	if err := equipmentInfo(s.Equipment(), equipment).CheckRange(setpoint); err != nil {
		return err
	}
	return s.command(ctx, withValue(command, setpoint))
}

func (s *Shaker) Control(ctx context.Context, equipment string, on bool) error {
	switch equipment {
	case "heater":
		return s.command(ctx, pick(on, ShakerStartHeater, ShakerStopHeater))
	case "shaker":
		return s.command(ctx, pick(on, ShakerStartMotor, ShakerStopMotor))
	default:
		return driver.UnknownEquipment(equipment, "heater", "shaker")
	}
}
