// internal/protocol/connection.go
package protocol

import (
	"fmt"
	"time"
)

// SerialConfig represents serial connection configuration
type SerialConfig struct {
	Port     string        `json:"port" mapstructure:"port"`
	BaudRate int           `json:"baud_rate" mapstructure:"baud_rate"`
	DataBits int           `json:"data_bits" mapstructure:"data_bits"`
	StopBits int           `json:"stop_bits" mapstructure:"stop_bits"`
	Parity   string        `json:"parity" mapstructure:"parity"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// DefaultSerialConfig returns the RS-232 NAMUR framing: 9600 baud, 7 data
// bits, even parity, one stop bit.
func DefaultSerialConfig(port string) *SerialConfig {
	return &SerialConfig{
		Port:     port,
		BaudRate: 9600,
		DataBits: 7,
		StopBits: 1,
		Parity:   "even",
		Timeout:  150 * time.Millisecond,
	}
}

var validBaudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// Validate checks the serial parameters
func (c *SerialConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: serial port is required", ErrInvalidParam)
	}

	valid := false
	for _, rate := range validBaudRates {
		if c.BaudRate == rate {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: invalid baud rate: %d", ErrInvalidParam, c.BaudRate)
	}

	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("%w: invalid data bits: %d", ErrInvalidParam, c.DataBits)
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("%w: invalid stop bits: %d", ErrInvalidParam, c.StopBits)
	}

	switch c.Parity {
	case "none", "odd", "even":
	default:
		return fmt.Errorf("%w: invalid parity: %q", ErrInvalidParam, c.Parity)
	}

	return nil
}

// TCPConfig represents TCP connection configuration
type TCPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	// KeepAlive is the TCP keep-alive period. Zero keeps the default,
	// a negative value turns keep-alive off.
	KeepAlive    time.Duration `json:"keep_alive"`
	BufferSize   int           `json:"buffer_size"`
	Timeout      time.Duration `json:"timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultTCPConfig returns settings for a TCP/serial gateway
func DefaultTCPConfig(host string, port int) *TCPConfig {
	return &TCPConfig{
		Host:         host,
		Port:         port,
		KeepAlive:    30 * time.Second,
		BufferSize:   1024,
		Timeout:      750 * time.Millisecond,
		WriteTimeout: 750 * time.Millisecond,
	}
}
