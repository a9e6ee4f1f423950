// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"time"

	"namur-service/internal/model"
)

// DefaultEOL terminates every NAMUR command and response
var DefaultEOL = []byte("\r\n")

// MaxLineLength bounds a single response line. The protocol allows 80
// characters; anything far beyond that is treated as a broken stream.
const MaxLineLength = 256

var (
	ErrNotOpen      = errors.New("connection not open")
	ErrLineTooLong  = errors.New("response line too long")
	ErrInvalidParam = errors.New("invalid connection parameter")
)

// ByteStream is a duplex, line oriented byte channel to one instrument
type ByteStream interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication
	Write(ctx context.Context, data []byte) error
	ReadLine(ctx context.Context) ([]byte, error)
	Read(ctx context.Context, maxBytes int) ([]byte, error)

	// Protocol information
	GetProtocolType() model.ConnectionType
	Address() string
	Stats() ProtocolStats
}

// ProtocolStats provides protocol-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

func (s *ProtocolStats) recordWrite(n int, latency time.Duration) {
	s.BytesWritten += int64(n)
	s.OperationCount++
	s.LastActivity = time.Now()
	if s.AverageLatency == 0 {
		s.AverageLatency = latency
	} else {
		s.AverageLatency = (s.AverageLatency + latency) / 2
	}
}

func (s *ProtocolStats) recordRead(n int) {
	s.BytesRead += int64(n)
	s.OperationCount++
	s.LastActivity = time.Now()
}
