// internal/protocol/factory.go
package protocol

import (
	"fmt"

	"go.uber.org/zap"

	"namur-service/internal/model"
)

// StreamOptions carries per-transport overrides applied on top of the
// defaults. A nil field keeps the default.
type StreamOptions struct {
	Serial *SerialConfig
	TCP    *TCPConfig
}

// CreateStream creates an unopened byte stream for the parsed address
func CreateStream(addr Address, opts StreamOptions, logger *zap.Logger) (ByteStream, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch addr.Type {
	case model.ConnectionTypeSerial:
		return createSerialStream(addr, opts.Serial, logger)
	case model.ConnectionTypeTCP:
		return createTCPStream(addr, opts.TCP, logger)
	default:
		return nil, fmt.Errorf("unsupported connection type: %s", addr.Type)
	}
}

// createSerialStream creates a serial stream
func createSerialStream(addr Address, override *SerialConfig, logger *zap.Logger) (ByteStream, error) {
	serialConfig := DefaultSerialConfig(addr.Path)
	if override != nil {
		merged := *override
		merged.Port = addr.Path
		if merged.BaudRate == 0 {
			merged.BaudRate = serialConfig.BaudRate
		}
		if merged.DataBits == 0 {
			merged.DataBits = serialConfig.DataBits
		}
		if merged.StopBits == 0 {
			merged.StopBits = serialConfig.StopBits
		}
		if merged.Parity == "" {
			merged.Parity = serialConfig.Parity
		}
		if merged.Timeout <= 0 {
			merged.Timeout = serialConfig.Timeout
		}
		serialConfig = &merged
	}

	if err := serialConfig.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Creating serial stream",
		zap.String("port", serialConfig.Port),
		zap.Int("baud_rate", serialConfig.BaudRate),
	)

	return NewSerialConnection(serialConfig, logger), nil
}

// createTCPStream creates a TCP stream
func createTCPStream(addr Address, override *TCPConfig, logger *zap.Logger) (ByteStream, error) {
	tcpConfig := DefaultTCPConfig(addr.Host, addr.Port)
	if override != nil {
		if override.Timeout > 0 {
			tcpConfig.Timeout = override.Timeout
		}
		if override.WriteTimeout > 0 {
			tcpConfig.WriteTimeout = override.WriteTimeout
		}
		if override.BufferSize > 0 {
			tcpConfig.BufferSize = override.BufferSize
		}
		if override.KeepAlive != 0 {
			tcpConfig.KeepAlive = override.KeepAlive
		}
	}

	logger.Debug("Creating TCP stream",
		zap.String("host", tcpConfig.Host),
		zap.Int("port", tcpConfig.Port),
	)

	return NewTCPConnection(tcpConfig, logger), nil
}
