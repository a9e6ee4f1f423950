// pkg/driver/interfaces.go
package driver

import (
	"context"

	"namur-service/internal/model"
	"namur-service/internal/namur"
)

// Client is the request primitive an instrument driver is built on.
// *transport.Transport satisfies it.
type Client interface {
	Query(ctx context.Context, command string) (namur.Value, error)
	Command(ctx context.Context, command string) error
	Reset(ctx context.Context) error
	Close() error
}

// Instrument is the interface every instrument family implements
type Instrument interface {
	// Identification
	Type() model.InstrumentType
	Equipment() []EquipmentInfo

	// Readings
	Get(ctx context.Context) (Reading, error)
	GetInfo(ctx context.Context) (Info, error)

	// Operations
	Set(ctx context.Context, equipment string, setpoint float64) error
	Control(ctx context.Context, equipment string, on bool) error
	Reset(ctx context.Context) error

	// Cleanup
	Close() error
}
