// internal/discovery/tcp/scanner.go
package tcp

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"namur-service/internal/discovery"
	"namur-service/internal/model"
)

// Scanner probes a list of serial-to-Ethernet gateway addresses
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for TCP scanner
type Config struct {
	Addresses    []string      `json:"addresses"`
	ProbeTimeout time.Duration `json:"probe_timeout"`
}

// NewScanner creates a new TCP scanner
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

	return &Scanner{
		logger: logger.With(zap.String("scanner", "tcp")),
		config: config,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "tcp"
}

// IsAvailable reports whether any address is configured
func (s *Scanner) IsAvailable() bool {
	return len(s.config.Addresses) > 0
}

// Scan probes every configured address in parallel. Results keep the
// configured order.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredInstrument, error) {
	results := make([]*discovery.DiscoveredInstrument, len(s.config.Addresses))

	var wg sync.WaitGroup
	for i, address := range s.config.Addresses {
		wg.Add(1)
		go func(i int, address string) {
			defer wg.Done()

			found, err := discovery.Probe(ctx, address, s.config.ProbeTimeout, s.logger)
			if err != nil {
				s.logger.Debug("Probe failed", zap.String("address", address), zap.Error(err))
				return
			}
			if found != nil {
				found.ConnectionType = model.ConnectionTypeTCP
				results[i] = found
			}
		}(i, address)
	}
	wg.Wait()

	var discovered []*discovery.DiscoveredInstrument
	for _, found := range results {
		if found != nil {
			discovered = append(discovered, found)
		}
	}
	return discovered, ctx.Err()
}
