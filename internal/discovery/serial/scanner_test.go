package serial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withPorts(t *testing.T, ports []string, err error) {
	t.Helper()
	orig := listPorts
	listPorts = func() ([]string, error) { return ports, err }
	t.Cleanup(func() { listPorts = orig })
}

func TestFilterPorts(t *testing.T) {
	s := NewScanner(nil, &Config{
		PortPatterns: []string{"/dev/ttyUSB", "/dev/ttyACM"},
		Exclude:      []string{"/dev/ttyUSB0"},
	})

	got := s.filterPorts([]string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyS0", "/dev/ttyACM3"})
	assert.Equal(t, []string{"/dev/ttyUSB1", "/dev/ttyACM3"}, got)
}

func TestScan_ListError(t *testing.T) {
	withPorts(t, nil, errors.New("no sysfs"))

	_, err := NewScanner(nil, nil).Scan(context.Background())
	assert.Error(t, err)
}

func TestScan_UnopenablePortsAreSkipped(t *testing.T) {
	withPorts(t, []string{"/dev/ttyUSB-namur-missing"}, nil)

	s := NewScanner(nil, &Config{PortPatterns: []string{"/dev/ttyUSB"}, ProbeTimeout: 100 * time.Millisecond})
	found, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, "serial", s.GetScannerType())
	assert.True(t, s.IsAvailable())
}
