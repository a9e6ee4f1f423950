package protocol

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startLineServer accepts one connection and hands it to handle
func startLineServer(t *testing.T, handle func(net.Conn)) *TCPConfig {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()

	tcpAddr := ln.Addr().(*net.TCPAddr)
	return DefaultTCPConfig("127.0.0.1", tcpAddr.Port)
}

func TestTCPConnectionRoundTrip(t *testing.T) {
	cfg := startLineServer(t, func(conn net.Conn) {
		reader := bufio.NewReader(conn)
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		if line == "IN_PV_1\r\n" {
			conn.Write([]byte("21.75 1\r\n"))
		}
	})

	tc := NewTCPConnection(cfg, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, tc.Open(ctx))
	defer tc.Close()
	assert.True(t, tc.IsOpen())

	require.NoError(t, tc.Write(ctx, []byte("IN_PV_1\r\n")))
	line, err := tc.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "21.75 1", string(line))

	stats := tc.Stats()
	assert.EqualValues(t, 9, stats.BytesWritten)
	assert.EqualValues(t, 9, stats.BytesRead)
	assert.True(t, stats.IsConnected)
}

func TestTCPConnectionReadLineHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	cfg := startLineServer(t, func(conn net.Conn) {
		<-release
	})
	defer close(release)

	tc := NewTCPConnection(cfg, nil)
	require.NoError(t, tc.Open(context.Background()))
	defer tc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tc.ReadLine(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTCPConnectionReadLineHonoursCancel(t *testing.T) {
	release := make(chan struct{})
	cfg := startLineServer(t, func(conn net.Conn) {
		<-release
	})
	defer close(release)

	tc := NewTCPConnection(cfg, nil)
	require.NoError(t, tc.Open(context.Background()))
	defer tc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	_, err := tc.ReadLine(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTCPConnectionReadDrainsBufferedBytes(t *testing.T) {
	cfg := startLineServer(t, func(conn net.Conn) {
		conn.Write([]byte("late 1\r\nstale"))
		time.Sleep(200 * time.Millisecond)
	})

	tc := NewTCPConnection(cfg, nil)
	require.NoError(t, tc.Open(context.Background()))
	defer tc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	line, err := tc.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "late 1", string(line))

	rest, err := tc.Read(ctx, 64)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(rest))
}

func TestTCPConnectionNotOpen(t *testing.T) {
	tc := NewTCPConnection(DefaultTCPConfig("127.0.0.1", 1), nil)

	require.ErrorIs(t, tc.Write(context.Background(), []byte("IN_NAME\r\n")), ErrNotOpen)
	_, err := tc.ReadLine(context.Background())
	require.ErrorIs(t, err, ErrNotOpen)
	require.NoError(t, tc.Close())
}

func TestTCPConnectionOpenFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tc := NewTCPConnection(DefaultTCPConfig("127.0.0.1", port), nil)
	require.Error(t, tc.Open(context.Background()))
	assert.False(t, tc.IsOpen())
}
