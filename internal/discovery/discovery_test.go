package discovery_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namur-service/internal/discovery"
	"namur-service/internal/discovery/tcp"
	"namur-service/internal/model"
	"namur-service/internal/simulator"
)

func startSimulator(t *testing.T, kind model.InstrumentType) string {
	t.Helper()
	sim := simulator.NewServer(kind, nil)
	require.NoError(t, sim.Start(context.Background(), "127.0.0.1:0"))
	t.Cleanup(func() { sim.Close() })
	return sim.Addr()
}

// deadAddress returns a local address nothing listens on
func deadAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestGuessType(t *testing.T) {
	tests := []struct {
		name string
		want model.InstrumentType
		ok   bool
	}{
		{"EUROSTAR 60 digital", model.InstrumentOverheadStirrer, true},
		{"RCT digital", model.InstrumentHotplate, true},
		{"C-MAG HS7", model.InstrumentHotplate, true},
		{"MATRIX ORBITAL", model.InstrumentShaker, true},
		{"VACSTAR control", model.InstrumentVacuum, true},
		{"Thermostat 9", "", false},
	}
	for _, tt := range tests {
		got, ok := discovery.GuessType(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestProbe(t *testing.T) {
	ctx := context.Background()

	found, err := discovery.Probe(ctx, startSimulator(t, model.InstrumentHotplate), time.Second, nil)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "RCT digital", found.Name)
	assert.Equal(t, model.InstrumentHotplate, found.InstrumentType)
	assert.Equal(t, 1.0, found.Confidence)

	found, err = discovery.Probe(ctx, deadAddress(t), 200*time.Millisecond, nil)
	require.NoError(t, err)
	assert.Nil(t, found)

	_, err = discovery.Probe(ctx, "not-an-address", time.Second, nil)
	assert.Error(t, err)
}

func TestTCPScanner(t *testing.T) {
	hotplate := startSimulator(t, model.InstrumentHotplate)
	vacuum := startSimulator(t, model.InstrumentVacuum)

	scanner := tcp.NewScanner(nil, &tcp.Config{
		Addresses:    []string{hotplate, deadAddress(t), vacuum},
		ProbeTimeout: 300 * time.Millisecond,
	})
	require.True(t, scanner.IsAvailable())

	found, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, hotplate, found[0].Address)
	assert.Equal(t, model.ConnectionTypeTCP, found[0].ConnectionType)
	assert.Equal(t, model.InstrumentVacuum, found[1].InstrumentType)

	assert.False(t, tcp.NewScanner(nil, nil).IsAvailable())
}

type stubScanner struct {
	kind      string
	available bool
	found     []*discovery.DiscoveredInstrument
	err       error
}

func (s *stubScanner) Scan(context.Context) ([]*discovery.DiscoveredInstrument, error) {
	return s.found, s.err
}
func (s *stubScanner) GetScannerType() string { return s.kind }
func (s *stubScanner) IsAvailable() bool      { return s.available }

func TestScannerManager(t *testing.T) {
	manager := discovery.NewScannerManager(nil)
	manager.RegisterScanner(&stubScanner{kind: "tcp", available: true,
		found: []*discovery.DiscoveredInstrument{{Address: "10.0.0.1:4001"}}})
	manager.RegisterScanner(&stubScanner{kind: "serial", available: true, err: errors.New("no permission")})
	manager.RegisterScanner(&stubScanner{kind: "bluetooth", available: false})

	assert.Equal(t, []string{"serial", "tcp"}, manager.GetAvailableScanners())

	found, err := manager.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "10.0.0.1:4001", found[0].Address)

	_, err = manager.ScanByType(context.Background(), "usb")
	require.ErrorIs(t, err, discovery.ErrUnknownScanner)
	_, err = manager.ScanByType(context.Background(), "bluetooth")
	assert.Error(t, err)
}
