// internal/transport/options.go
package transport

import (
	"time"

	"go.uber.org/zap"

	"namur-service/internal/namur"
	"namur-service/internal/protocol"
)

const (
	DefaultConnectTimeout = 750 * time.Millisecond
	DefaultReadTimeout    = 750 * time.Millisecond
	DefaultDrainTimeout   = 500 * time.Millisecond
	DefaultMaxTimeouts    = 10
)

type options struct {
	logger         *zap.Logger
	table          *namur.CommandTable
	connectTimeout time.Duration
	readTimeout    time.Duration
	drainTimeout   time.Duration
	maxTimeouts    int
	streams        protocol.StreamOptions
}

func defaultOptions() options {
	return options{
		logger:         zap.NewNop(),
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
		drainTimeout:   DefaultDrainTimeout,
		maxTimeouts:    DefaultMaxTimeouts,
	}
}

// Option configures a Transport
type Option func(*options)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCommandTable sets the table used to decode responses
func WithCommandTable(table *namur.CommandTable) Option {
	return func(o *options) { o.table = table }
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.readTimeout = d
		}
	}
}

// WithDrainTimeout bounds how long stray bytes are discarded after a misaligned response
func WithDrainTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.drainTimeout = d
		}
	}
}

// WithMaxTimeouts sets how many consecutive transient faults close the connection
func WithMaxTimeouts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTimeouts = n
		}
	}
}

// WithSerialConfig overrides the RS-232 framing for serial addresses
func WithSerialConfig(cfg *protocol.SerialConfig) Option {
	return func(o *options) { o.streams.Serial = cfg }
}

// WithTCPConfig overrides socket settings for TCP addresses
func WithTCPConfig(cfg *protocol.TCPConfig) Option {
	return func(o *options) { o.streams.TCP = cfg }
}
