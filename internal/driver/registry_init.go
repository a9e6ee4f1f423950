// internal/driver/registry_init.go
package driver

import (
	"go.uber.org/zap"

	"namur-service/internal/driver/ika"
	"namur-service/internal/model"
)

// RegisterDefaultDrivers registers all default instrument drivers
func RegisterDefaultDrivers(registry *Registry, logger *zap.Logger) {
	registerIKADrivers(registry)

	logger.Info("Instrument drivers registered",
		zap.Int("families", len(registry.ListDrivers())),
	)
}

// registerIKADrivers registers the IKA NAMUR instrument families
func registerIKADrivers(registry *Registry) {
	registry.Register(Registration{
		Type:        model.InstrumentOverheadStirrer,
		Description: "IKA overhead stirrer",
		Table:       ika.OverheadStirrerTable,
		Factory:     ika.NewOverheadStirrer,
	})

	registry.Register(Registration{
		Type:        model.InstrumentHotplate,
		Description: "IKA hotplate stirrer",
		Table:       ika.HotplateTable,
		Factory:     ika.NewHotplate,
	})

	registry.Register(Registration{
		Type:        model.InstrumentShaker,
		Description: "IKA orbital shaker",
		Table:       ika.ShakerTable,
		Factory:     ika.NewShaker,
	})

	registry.Register(Registration{
		Type:        model.InstrumentVacuum,
		Description: "IKA vacuum pump",
		Table:       ika.VacuumTable,
		Factory:     ika.NewVacuum,
	})
}

// NewDefaultRegistry returns a registry with every built-in driver
func NewDefaultRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := NewRegistry(logger)
	RegisterDefaultDrivers(registry, logger)
	return registry
}
