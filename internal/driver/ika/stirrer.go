// internal/driver/ika/stirrer.go
package ika

import (
	"context"

	"go.uber.org/zap"

	"namur-service/internal/model"
	"namur-service/pkg/driver"
)

// OverheadStirrer drives IKA overhead stirrers (Eurostar, Microstar)
type OverheadStirrer struct {
	device
}

// NewOverheadStirrer creates an overhead stirrer driver
func NewOverheadStirrer(client driver.Client, _ driver.Options, logger *zap.Logger) driver.Instrument {
	return &OverheadStirrer{device: newDevice(model.InstrumentOverheadStirrer, client, logger)}
}

func (s *OverheadStirrer) Equipment() []driver.EquipmentInfo {
	return []driver.EquipmentInfo{
		{Name: "speed", Settable: true, Unit: "rpm", Min: ptr(0)},
		{Name: "speed_limit", Settable: true, Unit: "rpm", Min: ptr(0)},
		{Name: "torque_limit", Settable: true, Unit: "Ncm", Min: ptr(0)},
		{Name: "motor", Switchable: true},
	}
}

// Get reads speed, torque and the PT1000 temperature
func (s *OverheadStirrer) Get(ctx context.Context) (driver.Reading, error) {
	r := s.reads(ctx)
	actual := r.raw(StirrerReadSpeed)
	setpoint := r.raw(StirrerReadSetSpeed)
	active := r.raw(StirrerReadMotorStatus)
	torque := r.raw(StirrerReadTorque)
	temp := r.raw(StirrerReadPT1000)
	if r.err != nil {
		return nil, r.err
	}

	return driver.Reading{
		"speed": map[string]any{
			"setpoint": setpoint,
			"actual":   actual,
			"active":   active,
		},
		"torque": torque,
		"temp":   temp,
	}, nil
}

// GetInfo reads the name and the safety limits
func (s *OverheadStirrer) GetInfo(ctx context.Context) (driver.Info, error) {
	r := s.reads(ctx)
	name := r.text(ReadDeviceName)
	torqueLimit := r.raw(StirrerReadTorqueLimit)
	speedLimit := r.raw(StirrerReadSpeedLimit)
	if r.err != nil {
		return nil, r.err
	}

	return driver.Info{
		"name":         name,
		"torque_limit": torqueLimit,
		"speed_limit":  speedLimit,
	}, nil
}

func (s *OverheadStirrer) Set(ctx context.Context, equipment string, setpoint float64) error {
	var command string
	switch equipment {
	case "speed":
		command = StirrerSetSpeed
	case "speed_limit":
		command = StirrerSetSpeedLimit
	case "torque_limit":
		command = StirrerSetTorqueLimit
	default:
		return driver.UnknownEquipment(equipment, "speed", "speed_limit", "torque_limit")
	}

	if err := equipmentInfo(s.Equipment(), equipment).CheckRange(setpoint); err != nil {
		return err
	}
	return s.command(ctx, withValue(command, setpoint))
}

// Control starts or stops the motor. The stirrer echoes START_4/STOP_4 so
// the response is read back to keep the stream aligned.
func (s *OverheadStirrer) Control(ctx context.Context, equipment string, on bool) error {
	if equipment != "motor" && equipment != "" {
		return driver.UnknownEquipment(equipment, "motor")
	}

	command := StirrerStopMotor
	if on {
		command = StirrerStartMotor
	}
	_, err := s.client.Query(ctx, command)
	return err
}
