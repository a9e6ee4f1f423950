// internal/protocol/serial_connection.go
package protocol

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"namur-service/internal/model"
)

// serialPort is the subset of serial.Port used here
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

var openSerialPort = func(name string, mode *serial.Mode) (serialPort, error) {
	return serial.Open(name, mode)
}

// SerialConnection implements ByteStream for directly attached RS-232 instruments
type SerialConnection struct {
	config  *SerialConfig
	eol     []byte
	port    serialPort
	pending []byte
	logger  *zap.Logger
	mutex   sync.Mutex
	isOpen  bool
	stats   ProtocolStats
}

// NewSerialConnection creates a new serial connection
func NewSerialConnection(config *SerialConfig, logger *zap.Logger) *SerialConnection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerialConnection{
		config: config,
		eol:    DefaultEOL,
		logger: logger.With(
			zap.String("protocol", "serial"),
			zap.String("port", config.Port),
		),
	}
}

func serialMode(config *SerialConfig) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		StopBits: serial.OneStopBit,
	}
	if config.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode
}

// Open opens the serial port
func (sc *SerialConnection) Open(ctx context.Context) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.isOpen {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	port, err := openSerialPort(sc.config.Port, serialMode(sc.config))
	if err != nil {
		sc.stats.ErrorCount++
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(sc.config.Timeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	sc.port = port
	sc.pending = nil
	sc.isOpen = true
	sc.stats.IsConnected = true
	sc.stats.LastActivity = time.Now()

	sc.logger.Debug("Serial port opened",
		zap.Int("baud_rate", sc.config.BaudRate),
		zap.Int("data_bits", sc.config.DataBits),
		zap.String("parity", sc.config.Parity),
	)
	return nil
}

// Close closes the serial port
func (sc *SerialConnection) Close() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil
	}

	err := sc.port.Close()
	sc.port = nil
	sc.pending = nil
	sc.isOpen = false
	sc.stats.IsConnected = false

	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Debug("Serial port closed")
	return nil
}

// IsOpen returns whether the port is open
func (sc *SerialConnection) IsOpen() bool {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	return sc.isOpen && sc.port != nil
}

// Write writes data to the serial port
func (sc *SerialConnection) Write(ctx context.Context, data []byte) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	startTime := time.Now()
	n, err := sc.port.Write(data)
	if err != nil {
		sc.stats.ErrorCount++
		return fmt.Errorf("failed to write to serial port: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	sc.stats.recordWrite(n, time.Since(startTime))
	sc.logger.Debug("Serial write completed", zap.ByteString("data", data))
	return nil
}

// ReadLine reads until the end-of-line marker. The port read timeout is
// used as a polling interval so ctx cancellation is noticed promptly.
func (sc *SerialConnection) ReadLine(ctx context.Context) ([]byte, error) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil, ErrNotOpen
	}

	buffer := make([]byte, 64)
	for {
		if i := bytes.Index(sc.pending, sc.eol); i >= 0 {
			line := append([]byte(nil), sc.pending[:i]...)
			sc.pending = sc.pending[i+len(sc.eol):]
			sc.stats.recordRead(i + len(sc.eol))
			return line, nil
		}
		if len(sc.pending) > MaxLineLength {
			size := len(sc.pending)
			sc.pending = nil
			sc.stats.ErrorCount++
			return nil, fmt.Errorf("%w: %d bytes", ErrLineTooLong, size)
		}

		n, err := sc.readChunk(ctx, buffer)
		if err != nil {
			return nil, err
		}
		sc.pending = append(sc.pending, buffer[:n]...)
	}
}

// Read returns up to maxBytes, serving data left over from ReadLine first
func (sc *SerialConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil, ErrNotOpen
	}

	if len(sc.pending) > 0 {
		n := min(maxBytes, len(sc.pending))
		out := append([]byte(nil), sc.pending[:n]...)
		sc.pending = sc.pending[n:]
		return out, nil
	}

	buffer := make([]byte, maxBytes)
	for {
		n, err := sc.readChunk(ctx, buffer)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			sc.stats.recordRead(n)
			return buffer[:n], nil
		}
	}
}

// readChunk performs one port read bounded by the port timeout and ctx.
// A read that times out returns 0 bytes and no error.
func (sc *SerialConnection) readChunk(ctx context.Context, buffer []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	wait := sc.config.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if wait <= 0 || remaining < wait {
			wait = remaining
		}
	}
	if err := sc.port.SetReadTimeout(wait); err != nil {
		return 0, fmt.Errorf("failed to set read timeout: %w", err)
	}

	n, err := sc.port.Read(buffer)
	if err != nil {
		sc.stats.ErrorCount++
		return 0, fmt.Errorf("failed to read from serial port: %w", err)
	}
	return n, nil
}

// GetProtocolType returns the protocol type
func (sc *SerialConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeSerial
}

// Address returns the device path
func (sc *SerialConnection) Address() string {
	return sc.config.Port
}

// Stats returns a snapshot of the port statistics
func (sc *SerialConnection) Stats() ProtocolStats {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	return sc.stats
}
