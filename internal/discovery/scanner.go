// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"namur-service/internal/model"
	"namur-service/internal/transport"
)

// DefaultProbeTimeout bounds a single identification attempt
const DefaultProbeTimeout = 500 * time.Millisecond

// Scanner finds instruments reachable over one kind of connection
type Scanner interface {
	Scan(ctx context.Context) ([]*DiscoveredInstrument, error)
	GetScannerType() string
	IsAvailable() bool
}

// DiscoveredInstrument is an address that answered IN_NAME
type DiscoveredInstrument struct {
	ConnectionType model.ConnectionType `json:"connection_type"`
	Address        string               `json:"address"`
	Name           string               `json:"name"`
	InstrumentType model.InstrumentType `json:"instrument_type,omitempty"`
	Confidence     float64              `json:"confidence"` // 0.0-1.0
}

// knownNames maps name prefixes reported by IN_NAME to a family
var knownNames = []struct {
	prefix string
	kind   model.InstrumentType
}{
	{"EUROSTAR", model.InstrumentOverheadStirrer},
	{"RCT", model.InstrumentHotplate},
	{"C-MAG", model.InstrumentHotplate},
	{"MATRIX", model.InstrumentShaker},
	{"KS ", model.InstrumentShaker},
	{"VACSTAR", model.InstrumentVacuum},
}

// GuessType maps a device name to an instrument family
func GuessType(name string) (model.InstrumentType, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, known := range knownNames {
		if strings.HasPrefix(upper, known.prefix) {
			return known.kind, true
		}
	}
	return "", false
}

// Probe asks the instrument at address for its name. A nil result means
// nothing NAMUR-speaking answered.
func Probe(ctx context.Context, address string, timeout time.Duration, logger *zap.Logger) (*DiscoveredInstrument, error) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	tr, err := transport.New(address,
		transport.WithLogger(logger),
		transport.WithConnectTimeout(timeout),
		transport.WithReadTimeout(timeout),
		transport.WithDrainTimeout(timeout/2),
	)
	if err != nil {
		return nil, err
	}
	defer tr.Close()

	value, err := tr.Query(ctx, "IN_NAME")
	if err != nil || value.IsNone() {
		return nil, err
	}

	name := strings.TrimSpace(value.String())
	if name == "" {
		return nil, nil
	}

	found := &DiscoveredInstrument{
		Address:    address,
		Name:       name,
		Confidence: 0.5,
	}
	if kind, ok := GuessType(name); ok {
		found.InstrumentType = kind
		found.Confidence = 1.0
	}
	return found, nil
}

// ScannerManager runs the registered scanners
type ScannerManager struct {
	mu       sync.RWMutex
	scanners map[string]Scanner
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScannerManager{
		scanners: make(map[string]Scanner),
		logger:   logger.With(zap.String("component", "discovery")),
	}
}

// RegisterScanner registers a scanner under its type
func (sm *ScannerManager) RegisterScanner(scanner Scanner) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	scannerType := scanner.GetScannerType()
	sm.scanners[scannerType] = scanner
	sm.logger.Debug("Scanner registered", zap.String("type", scannerType))
}

// ScanAll runs every available scanner. A failing scanner is logged and
// skipped.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]*DiscoveredInstrument, error) {
	var all []*DiscoveredInstrument

	for _, scannerType := range sm.GetAvailableScanners() {
		sm.mu.RLock()
		scanner := sm.scanners[scannerType]
		sm.mu.RUnlock()

		found, err := scanner.Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}

		all = append(all, found...)
		sm.logger.Info("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("instruments_found", len(found)),
		)
	}

	return all, nil
}

// ScanByType runs one scanner
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*DiscoveredInstrument, error) {
	sm.mu.RLock()
	scanner, exists := sm.scanners[scannerType]
	sm.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScanner, scannerType)
	}
	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}

	return scanner.Scan(ctx)
}

// GetAvailableScanners returns the available scanner types in sorted order
func (sm *ScannerManager) GetAvailableScanners() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var available []string
	for scannerType, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, scannerType)
		}
	}
	sort.Strings(available)
	return available
}
