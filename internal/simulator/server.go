// internal/simulator/server.go
package simulator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"namur-service/internal/model"
)

// Mode changes how the simulated instrument answers
type Mode int

const (
	// ModeNormal answers every command
	ModeNormal Mode = iota
	// ModeSilent reads commands but never answers, like an unplugged RS-232 cable
	ModeSilent
	// ModeCrosswired answers like a hotplate set up to poll a Eurostar stirrer
	ModeCrosswired
)

const crosswiredLine = "IN_PV_4"

// Server exposes a simulated instrument over TCP the way a serial gateway would
type Server struct {
	instrument *Instrument
	logger     *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	mode     Mode
	pending  []string
	delay    time.Duration

	wg sync.WaitGroup
}

// NewServer creates a simulator for one instrument family
func NewServer(kind model.InstrumentType, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		instrument: NewInstrument(kind),
		logger:     logger.With(zap.String("component", "simulator"), zap.String("instrument", string(kind))),
		conns:      make(map[net.Conn]struct{}),
	}
}

// Instrument returns the simulated state
func (s *Server) Instrument() *Instrument { return s.instrument }

// Start listens on address, e.g. "127.0.0.1:0", and serves in the background
func (s *Server) Start(ctx context.Context, address string) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(listener)

	s.logger.Info("Simulator listening", zap.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the host:port the simulator listens on
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// SetDelay delays every answer, e.g. to exceed the client read timeout
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Inject queues raw lines that are sent ahead of the next answer
func (s *Server) Inject(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, lines...)
}

// DropConnections closes every client connection but keeps listening
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// Close stops the listener and every client connection
func (s *Server) Close() error {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop(listener net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Error("Failed to accept connection", zap.Error(err))
			}
			return
		}

		s.mu.Lock()
		if s.listener == nil {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	s.logger.Debug("Client connected", zap.String("remote", conn.RemoteAddr().String()))

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		replies := s.instrument.Respond(line)

		s.mu.Lock()
		mode, delay := s.mode, s.delay
		var out []string
		if mode != ModeSilent {
			out = append(out, s.pending...)
			s.pending = nil
		}
		s.mu.Unlock()

		switch mode {
		case ModeSilent:
			continue
		case ModeCrosswired:
			out = append(out, crosswiredLine)
		default:
			out = append(out, replies...)
		}

		if delay > 0 {
			time.Sleep(delay)
		}
		for _, reply := range out {
			if _, err := conn.Write([]byte(reply + "\r\n")); err != nil {
				return
			}
		}
	}
}
