// internal/transport/transport.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"namur-service/internal/namur"
	"namur-service/internal/protocol"
)

const (
	// MaxCommandLength is the longest line the instruments accept
	MaxCommandLength = 80

	// ResetCommand switches the instrument back to normal operating mode
	ResetCommand = "RESET"

	drainChunkSize = 256
)

// ErrInvalidCommand is returned for commands that cannot be put on the wire
var ErrInvalidCommand = errors.New("invalid command")

// Transport speaks NAMUR to a single instrument. It is safe for concurrent
// use; requests are put on the wire one at a time in arrival order.
type Transport struct {
	address      string
	conn         *connectionManager
	serial       *serializer
	decoder      *namur.Decoder
	logger       *zap.Logger
	readTimeout  time.Duration
	drainTimeout time.Duration
	maxTimeouts  int32

	// guarded by serial
	dirty bool

	failures     atomic.Int32
	requests     atomic.Int64
	commands     atomic.Int64
	timeouts     atomic.Int64
	misaligned   atomic.Int64
	ceilingHits  atomic.Int64
	hangups      atomic.Int64
	lastActivity atomic.Int64
}

// Stats is a snapshot of transport counters
type Stats struct {
	Address             string                 `json:"address"`
	State               string                 `json:"state"`
	Requests            int64                  `json:"requests"`
	Commands            int64                  `json:"commands"`
	Timeouts            int64                  `json:"timeouts"`
	Misaligned          int64                  `json:"misaligned"`
	CeilingHits         int64                  `json:"ceiling_hits"`
	Hangups             int64                  `json:"hangups"`
	Connects            int64                  `json:"connects"`
	ConsecutiveFailures int32                  `json:"consecutive_failures"`
	LastActivity        time.Time              `json:"last_activity"`
	Stream              protocol.ProtocolStats `json:"stream"`
}

// New parses address and creates a transport for it. Nothing is dialled
// until the first request or an explicit Connect.
func New(address string, opts ...Option) (*Transport, error) {
	addr, err := protocol.ParseAddress(address)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	stream, err := protocol.CreateStream(addr, o.streams, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream for %s: %w", addr, err)
	}

	return newTransport(stream, o), nil
}

// NewWithStream creates a transport over an existing, unopened stream
func NewWithStream(stream protocol.ByteStream, opts ...Option) *Transport {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newTransport(stream, o)
}

func newTransport(stream protocol.ByteStream, o options) *Transport {
	logger := o.logger.With(zap.String("address", stream.Address()))

	return &Transport{
		address:      stream.Address(),
		conn:         newConnectionManager(stream, o.connectTimeout, logger),
		serial:       newSerializer(),
		decoder:      namur.NewDecoder(o.table),
		logger:       logger,
		readTimeout:  o.readTimeout,
		drainTimeout: o.drainTimeout,
		maxTimeouts:  int32(o.maxTimeouts),
	}
}

// WithTransport connects to address, runs fn and always closes the
// transport afterwards. A failed first connect is not an error; requests
// made by fn retry it.
func WithTransport(ctx context.Context, address string, fn func(*Transport) error, opts ...Option) error {
	t, err := New(address, opts...)
	if err != nil {
		return err
	}
	defer t.Close()

	if err := t.Connect(ctx); err != nil && !errors.Is(err, ErrNotConnected) {
		return err
	}
	return fn(t)
}

// Address returns the instrument address
func (t *Transport) Address() string { return t.address }

// Table returns the command table used for decoding
func (t *Transport) Table() *namur.CommandTable { return t.decoder.Table() }

// State returns the connection state
func (t *Transport) State() State { return t.conn.State() }

// OnStateChange registers a handler for connection state transitions
func (t *Transport) OnStateChange(handler StateHandler) {
	t.conn.onStateChange(handler)
}

// Connect opens the connection if needed
func (t *Transport) Connect(ctx context.Context) error {
	if err := t.serial.acquire(ctx); err != nil {
		return err
	}
	defer t.serial.release()

	return t.conn.ensureConnected(ctx)
}

// Close closes the connection. It is safe to call more than once, and a
// later request reconnects.
func (t *Transport) Close() error {
	if err := t.serial.acquire(context.Background()); err != nil {
		return err
	}
	defer t.serial.release()

	t.conn.close()
	t.failures.Store(0)
	t.dirty = false
	return nil
}

// Query sends command and decodes the single line the instrument answers
// with. Timeouts and I/O faults yield an empty Value and a nil error.
// Errors are returned for caller cancellation, a misconfigured instrument
// and responses that cannot be decoded.
func (t *Transport) Query(ctx context.Context, command string) (namur.Value, error) {
	if err := validateCommand(command); err != nil {
		return namur.NoValue(), err
	}

	if err := t.serial.acquire(ctx); err != nil {
		return namur.NoValue(), err
	}
	defer t.serial.release()

	t.requests.Inc()

	if err := t.prepare(ctx); err != nil {
		return namur.NoValue(), t.absorb(ctx, command, err)
	}

	if err := t.conn.stream.Write(ctx, frame(command)); err != nil {
		return namur.NoValue(), t.absorb(ctx, command, err)
	}

	readCtx, cancel := context.WithTimeout(ctx, t.readTimeout)
	line, err := t.conn.stream.ReadLine(readCtx)
	cancel()
	if err != nil {
		// The rest of a late or oversized line may still arrive.
		if t.conn.stream.IsOpen() {
			t.dirty = true
		}
		return namur.NoValue(), t.absorb(ctx, command, err)
	}

	t.exchanged()

	response := strings.TrimSpace(string(line))
	value, err := t.decoder.Decode(command, response, true)
	if errors.Is(err, namur.ErrMisaligned) {
		t.misaligned.Inc()
		t.logger.Warn("Response does not match command, draining stream",
			zap.String("command", command),
			zap.String("response", response),
		)
		t.drain(ctx)
		return namur.NoValue(), nil
	}
	if err != nil {
		t.logger.Error("Failed to decode response",
			zap.String("command", command),
			zap.String("response", response),
			zap.Error(err),
		)
		return namur.NoValue(), err
	}

	t.logger.Debug("Query completed",
		zap.String("command", command),
		zap.String("response", response),
	)
	return value, nil
}

// Command sends command without reading a response. Transient faults are
// absorbed; only invalid commands and caller cancellation are reported.
func (t *Transport) Command(ctx context.Context, command string) error {
	if err := validateCommand(command); err != nil {
		return err
	}

	if err := t.serial.acquire(ctx); err != nil {
		return err
	}
	defer t.serial.release()

	t.commands.Inc()

	if err := t.prepare(ctx); err != nil {
		return t.absorb(ctx, command, err)
	}

	if err := t.conn.stream.Write(ctx, frame(command)); err != nil {
		return t.absorb(ctx, command, err)
	}

	t.exchanged()
	t.logger.Debug("Command sent", zap.String("command", command))
	return nil
}

// Reset sends the universal reset command
func (t *Transport) Reset(ctx context.Context) error {
	return t.Command(ctx, ResetCommand)
}

// Stats returns a snapshot of the transport counters
func (t *Transport) Stats() Stats {
	stats := Stats{
		Address:             t.address,
		State:               t.State().String(),
		Requests:            t.requests.Load(),
		Commands:            t.commands.Load(),
		Timeouts:            t.timeouts.Load(),
		Misaligned:          t.misaligned.Load(),
		CeilingHits:         t.ceilingHits.Load(),
		Hangups:             t.hangups.Load(),
		Connects:            t.conn.connects.Load(),
		ConsecutiveFailures: t.failures.Load(),
		Stream:              t.conn.stream.Stats(),
	}
	if ts := t.lastActivity.Load(); ts > 0 {
		stats.LastActivity = time.Unix(0, ts)
	}
	return stats
}

// prepare connects and discards anything a cancelled request left behind
func (t *Transport) prepare(ctx context.Context) error {
	if err := t.conn.ensureConnected(ctx); err != nil {
		return err
	}
	if t.dirty {
		t.drain(ctx)
	}
	return ctx.Err()
}

// absorb turns a transport fault into a nil error, except for caller
// cancellation which is returned as ctx.Err().
func (t *Transport) absorb(ctx context.Context, command string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if t.conn.stream.IsOpen() {
			t.dirty = true
		}
		return ctxErr
	}

	if errors.Is(err, ErrNotConnected) {
		return nil
	}

	if isHangup(err) {
		t.hangups.Inc()
		t.logger.Warn("Instrument closed the connection",
			zap.String("command", command),
			zap.Error(err),
		)
		t.conn.close()
		t.failures.Store(0)
		t.dirty = false
		return nil
	}

	t.timeouts.Inc()
	failures := t.failures.Inc()
	t.logger.Debug("Request failed",
		zap.String("command", command),
		zap.Int32("consecutive_failures", failures),
		zap.Error(err),
	)

	if failures >= t.maxTimeouts {
		t.ceilingHits.Inc()
		t.logger.Error("Too many consecutive timeouts, closing connection",
			zap.Int32("max_timeouts", t.maxTimeouts),
			zap.Error(err),
		)
		t.conn.close()
		t.failures.Store(0)
		t.dirty = false
	}
	return nil
}

func (t *Transport) exchanged() {
	t.failures.Store(0)
	t.lastActivity.Store(time.Now().UnixNano())
}

// drain discards whatever the stream delivers within one drain timeout. The
// bound is total, so a chattering instrument cannot hold the lock.
func (t *Transport) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(ctx, t.drainTimeout)
	defer cancel()

	discarded := 0
	for {
		chunk, err := t.conn.stream.Read(drainCtx, drainChunkSize)
		discarded += len(chunk)

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if isHangup(err) {
				t.hangups.Inc()
				t.conn.close()
			}
			break
		}
		if len(chunk) == 0 {
			break
		}
	}

	t.dirty = false
	if discarded > 0 {
		t.logger.Warn("Discarded stray bytes", zap.Int("bytes", discarded))
	}
}

func validateCommand(command string) error {
	if command == "" {
		return fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	if len(command) > MaxCommandLength {
		return fmt.Errorf("%w: %d characters exceeds %d", ErrInvalidCommand, len(command), MaxCommandLength)
	}
	for i := 0; i < len(command); i++ {
		if c := command[i]; c < 0x20 || c > 0x7e {
			return fmt.Errorf("%w: byte 0x%02x at %d is not printable ASCII", ErrInvalidCommand, c, i)
		}
	}
	return nil
}

func frame(command string) []byte {
	return append([]byte(command), protocol.DefaultEOL...)
}

func isHangup(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
