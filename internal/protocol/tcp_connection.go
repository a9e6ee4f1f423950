// internal/protocol/tcp_connection.go
package protocol

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"namur-service/internal/model"
)

// TCPConnection implements ByteStream for instruments behind a TCP/serial gateway
type TCPConnection struct {
	config *TCPConfig
	eol    []byte
	conn   net.Conn
	reader *bufio.Reader
	logger *zap.Logger
	mutex  sync.Mutex
	isOpen bool
	stats  ProtocolStats
}

// NewTCPConnection creates a new TCP connection
func NewTCPConnection(config *TCPConfig, logger *zap.Logger) *TCPConnection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TCPConnection{
		config: config,
		eol:    DefaultEOL,
		logger: logger.With(
			zap.String("protocol", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
	}
}

// Open dials the gateway. The dial is bounded by ctx and by config.Timeout.
func (tc *TCPConnection) Open(ctx context.Context) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.isOpen {
		return nil
	}

	dialer := &net.Dialer{
		Timeout:   tc.config.Timeout,
		KeepAlive: tc.config.KeepAlive,
	}

	address := net.JoinHostPort(tc.config.Host, fmt.Sprint(tc.config.Port))
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		tc.stats.ErrorCount++
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	bufferSize := tc.config.BufferSize
	if bufferSize < MaxLineLength {
		bufferSize = MaxLineLength
	}

	tc.conn = conn
	tc.reader = bufio.NewReaderSize(conn, bufferSize)
	tc.isOpen = true
	tc.stats.IsConnected = true
	tc.stats.LastActivity = time.Now()

	tc.logger.Debug("TCP connection opened")
	return nil
}

// Close closes the TCP connection
func (tc *TCPConnection) Close() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return nil
	}

	err := tc.conn.Close()
	tc.conn = nil
	tc.reader = nil
	tc.isOpen = false
	tc.stats.IsConnected = false

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	tc.logger.Debug("TCP connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (tc *TCPConnection) IsOpen() bool {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	return tc.isOpen && tc.conn != nil
}

// Write writes data to the TCP connection
func (tc *TCPConnection) Write(ctx context.Context, data []byte) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return ErrNotOpen
	}

	deadline := time.Time{}
	if tc.config.WriteTimeout > 0 {
		deadline = time.Now().Add(tc.config.WriteTimeout)
	}
	stop := bindDeadline(ctx, deadline, tc.conn.SetWriteDeadline)
	defer stop()

	startTime := time.Now()
	n, err := tc.conn.Write(data)
	if err != nil {
		tc.stats.ErrorCount++
		return wrapIOError(ctx, "failed to write to TCP connection", err)
	}
	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	tc.stats.recordWrite(n, time.Since(startTime))
	tc.logger.Debug("TCP write completed", zap.ByteString("data", data))
	return nil
}

// ReadLine reads until the end-of-line marker and returns the line without it
func (tc *TCPConnection) ReadLine(ctx context.Context) ([]byte, error) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return nil, ErrNotOpen
	}

	stop := bindDeadline(ctx, time.Time{}, tc.conn.SetReadDeadline)
	defer stop()

	delim := tc.eol[len(tc.eol)-1]
	var line []byte
	for {
		chunk, err := tc.reader.ReadSlice(delim)
		line = append(line, chunk...)
		if len(line) > MaxLineLength {
			tc.stats.ErrorCount++
			return nil, fmt.Errorf("%w: %d bytes", ErrLineTooLong, len(line))
		}
		if err == nil && bytes.HasSuffix(line, tc.eol) {
			break
		}
		if err != nil && !errors.Is(err, bufio.ErrBufferFull) {
			tc.stats.ErrorCount++
			return nil, wrapIOError(ctx, "failed to read from TCP connection", err)
		}
	}

	tc.stats.recordRead(len(line))
	return bytes.TrimSuffix(line, tc.eol), nil
}

// Read returns up to maxBytes, serving buffered data first
func (tc *TCPConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return nil, ErrNotOpen
	}

	stop := bindDeadline(ctx, time.Time{}, tc.conn.SetReadDeadline)
	defer stop()

	buffer := make([]byte, maxBytes)
	n, err := tc.reader.Read(buffer)
	if err != nil {
		return buffer[:n], wrapIOError(ctx, "failed to read from TCP connection", err)
	}

	tc.stats.recordRead(n)
	return buffer[:n], nil
}

// GetProtocolType returns the protocol type
func (tc *TCPConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeTCP
}

// Address returns host:port
func (tc *TCPConnection) Address() string {
	return net.JoinHostPort(tc.config.Host, fmt.Sprint(tc.config.Port))
}

// Stats returns a snapshot of the connection statistics
func (tc *TCPConnection) Stats() ProtocolStats {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	return tc.stats
}

// bindDeadline applies the earlier of fallback and the ctx deadline, and
// expires the deadline immediately when ctx is cancelled. The returned stop
// function must be called once the I/O is done.
func bindDeadline(ctx context.Context, fallback time.Time, set func(time.Time) error) func() bool {
	deadline := fallback
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	_ = set(deadline)

	return context.AfterFunc(ctx, func() {
		_ = set(time.Now())
	})
}

// wrapIOError reports a cancelled or expired ctx in preference to the
// deadline error it caused
func wrapIOError(ctx context.Context, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", msg, ctxErr)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
