// internal/driver/ika/device.go
package ika

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"namur-service/internal/model"
	"namur-service/internal/namur"
	"namur-service/pkg/driver"
)

// device holds what every IKA instrument shares
type device struct {
	kind   model.InstrumentType
	client driver.Client
	logger *zap.Logger
}

func newDevice(kind model.InstrumentType, client driver.Client, logger *zap.Logger) device {
	if logger == nil {
		logger = zap.NewNop()
	}
	return device{
		kind:   kind,
		client: client,
		logger: logger.With(zap.String("instrument", string(kind))),
	}
}

func (d *device) Type() model.InstrumentType { return d.kind }

// Reset switches the instrument back to normal operating mode, which turns
// heaters and motors off
func (d *device) Reset(ctx context.Context) error {
	d.logger.Info("Resetting instrument")
	return d.client.Reset(ctx)
}

func (d *device) Close() error {
	return d.client.Close()
}

func (d *device) command(ctx context.Context, command string) error {
	d.logger.Debug("Sending command", zap.String("command", command))
	return d.client.Command(ctx, command)
}

// reads runs a sequence of queries and keeps the first hard error
type reads struct {
	ctx    context.Context
	client driver.Client
	err    error
}

func (d *device) reads(ctx context.Context) *reads {
	return &reads{ctx: ctx, client: d.client}
}

func (r *reads) value(command string) namur.Value {
	if r.err != nil {
		return namur.NoValue()
	}
	v, err := r.client.Query(r.ctx, command)
	if err != nil {
		r.err = err
		return namur.NoValue()
	}
	return v
}

// raw returns the decoded value, nil when the instrument did not answer
func (r *reads) raw(command string) any {
	return r.value(command).Any()
}

// number returns a float, parsing echoed payloads, or nil
func (r *reads) number(command string) any {
	v := r.value(command)
	if f, ok := v.AsFloat(); ok {
		return f
	}
	return v.Any()
}

// integer truncates numeric readings such as speeds
func (r *reads) integer(command string) any {
	v := r.value(command)
	if f, ok := v.AsFloat(); ok {
		return int(f)
	}
	return v.Any()
}

// active interprets a status reading. Echoed payloads use the same
// two-character code as the plain response.
func (r *reads) active(command string) any {
	v := r.value(command)
	if b, ok := v.AsBool(); ok {
		return b
	}
	if s, ok := v.AsString(); ok {
		return strings.HasPrefix(s, "11")
	}
	return nil
}

func (r *reads) text(command string) any {
	v := r.value(command)
	if s, ok := v.AsString(); ok {
		return s
	}
	return v.Any()
}

func ptr(f float64) *float64 { return &f }
