// internal/driver/ika/hotplate.go
package ika

import (
	"context"

	"go.uber.org/zap"

	"namur-service/internal/model"
	"namur-service/pkg/driver"
)

// Hotplate drives IKA hotplate stirrers (RCT digital, C-MAG HS)
type Hotplate struct {
	device
	includeSurfaceControl bool
}

// NewHotplate creates a hotplate driver
func NewHotplate(client driver.Client, opts driver.Options, logger *zap.Logger) driver.Instrument {
	return &Hotplate{
		device:                newDevice(model.InstrumentHotplate, client, logger),
		includeSurfaceControl: opts.IncludeSurfaceControl,
	}
}

func (h *Hotplate) Equipment() []driver.EquipmentInfo {
	minSpeed, maxSpeed := driver.Bounds(50, 1700)
	return []driver.EquipmentInfo{
		{Name: "process", Settable: true, Unit: "C"},
		{Name: "surface", Settable: true, Unit: "C"},
		{Name: "shaker", Settable: true, Unit: "rpm", Min: minSpeed, Max: maxSpeed},
		{Name: "heater", Switchable: true},
		{Name: "motor", Switchable: true},
	}
}

// Get reads speed, process, surface and fluid temperatures. The surface
// heater status is not read; its response encoding is unknown.
func (h *Hotplate) Get(ctx context.Context) (driver.Reading, error) {
	r := h.reads(ctx)
	speed := r.integer(HotplateReadSpeed)
	speedSetpoint := r.integer(HotplateReadSpeedSetpoint)
	processTemp := r.raw(HotplateReadProcessTemp)
	processSetpoint := r.raw(HotplateReadProcessSetpoint)
	fluidTemp := r.raw(HotplateReadFluidTemp)
	shakerActive := r.raw(HotplateReadShakerStatus)
	heaterActive := r.raw(HotplateReadProcessHeater)
	surface := map[string]any{
		"actual": r.raw(HotplateReadSurfaceTemp),
	}
	if h.includeSurfaceControl {
		surface["setpoint"] = r.raw(HotplateReadSurfaceSetpoint)
	}
	if r.err != nil {
		return nil, r.err
	}

	return driver.Reading{
		"speed": map[string]any{
			"setpoint": speedSetpoint,
			"actual":   speed,
			"active":   shakerActive,
		},
		"process_temp": map[string]any{
			"setpoint": processSetpoint,
			"actual":   processTemp,
			"active":   heaterActive,
		},
		"surface_temp": surface,
		"fluid_temp": map[string]any{
			"actual": fluidTemp,
		},
	}, nil
}

// GetInfo reads the name, device type and safety temperature
func (h *Hotplate) GetInfo(ctx context.Context) (driver.Info, error) {
	r := h.reads(ctx)
	name := r.text(ReadDeviceName)
	deviceType := r.text(ReadDeviceType)
	tempLimit := r.raw(HotplateReadTempLimit)
	if r.err != nil {
		return nil, r.err
	}

	return driver.Info{
		"name":        name,
		"device_type": deviceType,
		"temp_limit":  tempLimit,
	}, nil
}

// Set changes a temperature or shaker setpoint. Shaker speeds are truncated
// to whole rpm.
func (h *Hotplate) Set(ctx context.Context, equipment string, setpoint float64) error {
	switch equipment {
	case "process":
		return h.command(ctx, withValue(HotplateSetProcessSetpoint, setpoint))
	case "surface":
		return h.command(ctx, withValue(HotplateSetSurfaceSetpoint, setpoint))
	case "shaker":
		if err := equipmentInfo(h.Equipment(), equipment).CheckRange(setpoint); err != nil {
			return err
		}
		return h.command(ctx, withWholeValue(HotplateSetSpeedSetpoint, setpoint))
	default:
		return driver.UnknownEquipment(equipment, "process", "surface", "shaker")
	}
}

// Control switches the process heater or the stirring motor. Starting the
// heater resets its setpoint to 0 on some firmware.
func (h *Hotplate) Control(ctx context.Context, equipment string, on bool) error {
	switch equipment {
	case "heater":
		return h.command(ctx, pick(on, HotplateStartHeater, HotplateStopHeater))
	case "motor":
		return h.command(ctx, pick(on, HotplateStartMotor, HotplateStopMotor))
	default:
		return driver.UnknownEquipment(equipment, "heater", "motor")
	}
}
