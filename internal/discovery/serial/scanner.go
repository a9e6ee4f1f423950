// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	bugserial "go.bug.st/serial"
	"go.uber.org/zap"

	"namur-service/internal/discovery"
	"namur-service/internal/model"
)

// listPorts is replaced in tests
var listPorts = bugserial.GetPortsList

// Scanner probes local serial ports for NAMUR instruments
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for serial scanner
type Config struct {
	ProbeTimeout time.Duration `json:"probe_timeout"`
	PortPatterns []string      `json:"port_patterns"`
	// Exclude lists ports that must not be opened, e.g. the one in use
	Exclude []string `json:"exclude"`
}

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config == nil {
		config = &Config{}
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = discovery.DefaultProbeTimeout
	}
	if len(config.PortPatterns) == 0 {
		config.PortPatterns = defaultPortPatterns()
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "serial")),
		config: config,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable checks if serial scanning is available
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan lists serial ports and sends IN_NAME to each one
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredInstrument, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	ports = s.filterPorts(ports)
	s.logger.Debug("Probing serial ports", zap.Strings("ports", ports))

	var discovered []*discovery.DiscoveredInstrument
	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			return discovered, err
		}

		found, err := discovery.Probe(ctx, port, s.config.ProbeTimeout, s.logger)
		if err != nil {
			s.logger.Debug("Probe failed", zap.String("port", port), zap.Error(err))
			continue
		}
		if found != nil {
			found.ConnectionType = model.ConnectionTypeSerial
			discovered = append(discovered, found)
		}
	}

	return discovered, nil
}

func (s *Scanner) filterPorts(ports []string) []string {
	var filtered []string
	for _, port := range ports {
		if s.excluded(port) {
			continue
		}
		for _, pattern := range s.config.PortPatterns {
			if strings.Contains(port, pattern) {
				filtered = append(filtered, port)
				break
			}
		}
	}
	return filtered
}

func (s *Scanner) excluded(port string) bool {
	for _, ex := range s.config.Exclude {
		if ex == port {
			return true
		}
	}
	return false
}

func defaultPortPatterns() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"COM"}
	case "darwin":
		return []string{"/dev/tty.usbserial", "/dev/tty.usbmodem", "/dev/cu."}
	default:
		return []string{"/dev/ttyUSB", "/dev/ttyACM", "/dev/ttyS"}
	}
}
