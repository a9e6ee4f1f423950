package protocol

import (
	"bytes"
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakePort replays scripted chunks, one per Read call
type fakePort struct {
	mu      sync.Mutex
	chunks  [][]byte
	written bytes.Buffer
	timeout time.Duration
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(p.chunks) == 0 {
		timeout := p.timeout
		p.mu.Unlock()
		time.Sleep(timeout)
		return 0, nil
	}
	defer p.mu.Unlock()
	n := copy(b, p.chunks[0])
	p.chunks[0] = p.chunks[0][n:]
	if len(p.chunks[0]) == 0 {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

func (p *fakePort) ResetInputBuffer() error { return nil }

func withFakePort(t *testing.T, port *fakePort) {
	t.Helper()
	original := openSerialPort
	openSerialPort = func(string, *serial.Mode) (serialPort, error) { return port, nil }
	t.Cleanup(func() { openSerialPort = original })
}

func TestSerialConnectionReadLineAcrossChunks(t *testing.T) {
	port := &fakePort{chunks: [][]byte{[]byte("22."), []byte("50 3\r"), []byte("\nRE")}}
	withFakePort(t, port)

	sc := NewSerialConnection(DefaultSerialConfig("/dev/ttyUSB0"), nil)
	require.NoError(t, sc.Open(context.Background()))
	defer sc.Close()

	require.NoError(t, sc.Write(context.Background(), []byte("IN_PV_3\r\n")))
	assert.Equal(t, "IN_PV_3\r\n", port.written.String())

	line, err := sc.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "22.50 3", string(line))

	leftover, err := sc.Read(context.Background(), 64)
	require.NoError(t, err)
	assert.Equal(t, "RE", string(leftover))
}

func TestSerialConnectionReadLineDeadline(t *testing.T) {
	port := &fakePort{}
	withFakePort(t, port)

	sc := NewSerialConnection(DefaultSerialConfig("/dev/ttyUSB0"), nil)
	require.NoError(t, sc.Open(context.Background()))
	defer sc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := sc.ReadLine(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSerialConnectionLineTooLong(t *testing.T) {
	port := &fakePort{chunks: [][]byte{bytes.Repeat([]byte("x"), MaxLineLength+10)}}
	withFakePort(t, port)

	sc := NewSerialConnection(DefaultSerialConfig("/dev/ttyUSB0"), nil)
	require.NoError(t, sc.Open(context.Background()))
	defer sc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := sc.ReadLine(ctx)
	require.ErrorIs(t, err, ErrLineTooLong)
}

func TestSerialConnectionClose(t *testing.T) {
	port := &fakePort{}
	withFakePort(t, port)

	sc := NewSerialConnection(DefaultSerialConfig("/dev/ttyUSB0"), nil)
	require.NoError(t, sc.Open(context.Background()))
	require.NoError(t, sc.Close())
	assert.True(t, port.closed)
	assert.False(t, sc.IsOpen())
	require.NoError(t, sc.Close())

	require.ErrorIs(t, sc.Write(context.Background(), []byte("x")), ErrNotOpen)
}

func TestSerialMode(t *testing.T) {
	mode := serialMode(DefaultSerialConfig("/dev/ttyUSB0"))
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, serial.EvenParity, mode.Parity)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)

	cfg := DefaultSerialConfig("/dev/ttyUSB0")
	cfg.StopBits = 2
	cfg.Parity = "none"
	mode = serialMode(cfg)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.NoParity, mode.Parity)
}

func TestSerialConnectionOverPTY(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("pty pairs are only exercised on linux")
	}

	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	cfg := DefaultSerialConfig(slave.Name())
	cfg.DataBits = 8
	cfg.Parity = "none"
	sc := NewSerialConnection(cfg, nil)
	if err := sc.Open(context.Background()); err != nil {
		t.Skipf("pty not usable as serial port: %v", err)
	}
	defer sc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, sc.Write(ctx, []byte("IN_NAME\r\n")))

	buf := make([]byte, 64)
	n, err := master.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "IN_NAME")

	_, err = master.Write([]byte("RCT digital\r\n"))
	require.NoError(t, err)

	line, err := sc.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RCT digital", string(line))
}
