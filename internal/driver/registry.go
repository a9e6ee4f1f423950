// internal/driver/registry.go
package driver

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"namur-service/internal/model"
	"namur-service/internal/namur"
	"namur-service/internal/transport"
	"namur-service/pkg/driver"
)

// DriverFactory creates an instrument driver on top of a request client
type DriverFactory func(client driver.Client, opts driver.Options, logger *zap.Logger) driver.Instrument

// Registration binds an instrument family to its decode table and driver
type Registration struct {
	Type        model.InstrumentType
	Description string
	Table       func() *namur.CommandTable
	Factory     DriverFactory
}

// Registry manages instrument driver registration and creation
type Registry struct {
	drivers map[model.InstrumentType]Registration
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates a new driver registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		drivers: make(map[model.InstrumentType]Registration),
		logger:  logger,
	}
}

// Register registers a driver, replacing an earlier one for the same type
func (r *Registry) Register(reg Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drivers[reg.Type] = reg
	r.logger.Debug("Driver registered",
		zap.String("instrument_type", string(reg.Type)),
		zap.String("table", reg.Table().Name()),
	)
}

// Lookup returns the registration for an instrument type
func (r *Registry) Lookup(instrumentType model.InstrumentType) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.drivers[instrumentType]
	return reg, ok
}

// Open creates a transport for address using the family's command table and
// wraps it in the family's driver. No connection is made yet.
func (r *Registry) Open(instrumentType model.InstrumentType, address string, opts driver.Options, transportOpts ...transport.Option) (driver.Instrument, *transport.Transport, error) {
	reg, ok := r.Lookup(instrumentType)
	if !ok {
		return nil, nil, fmt.Errorf("no driver found for instrument type %q", instrumentType)
	}

	logger := r.logger.With(zap.String("instrument_type", string(instrumentType)))
	transportOpts = append([]transport.Option{
		transport.WithLogger(logger),
		transport.WithCommandTable(reg.Table()),
	}, transportOpts...)

	t, err := transport.New(address, transportOpts...)
	if err != nil {
		return nil, nil, err
	}

	return reg.Factory(t, opts, logger), t, nil
}

// ListDrivers returns all registered instrument types in sorted order
func (r *Registry) ListDrivers() []model.InstrumentType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]model.InstrumentType, 0, len(r.drivers))
	for t := range r.drivers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// IsSupported checks if an instrument type has a driver
func (r *Registry) IsSupported(instrumentType model.InstrumentType) bool {
	_, ok := r.Lookup(instrumentType)
	return ok
}
