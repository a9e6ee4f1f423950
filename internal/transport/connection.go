// internal/transport/connection.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"namur-service/internal/protocol"
)

// ErrNotConnected is returned when the instrument could not be reached
var ErrNotConnected = errors.New("instrument not connected")

// State is the connection state of a Transport
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// StateHandler is called after every state transition
type StateHandler func(from, to State)

// connectionManager owns the byte stream and its open/closed state.
// ensureConnected and close are only called with the serializer held.
type connectionManager struct {
	stream         protocol.ByteStream
	connectTimeout time.Duration
	logger         *zap.Logger

	state        atomic.Int32
	reconnecting bool
	connects     atomic.Int64

	handlersMu sync.RWMutex
	handlers   []StateHandler
}

func newConnectionManager(stream protocol.ByteStream, connectTimeout time.Duration, logger *zap.Logger) *connectionManager {
	return &connectionManager{
		stream:         stream,
		connectTimeout: connectTimeout,
		logger:         logger,
	}
}

// ensureConnected opens the stream if it is not open yet. A failed attempt is
// not fatal; the next request tries again.
func (cm *connectionManager) ensureConnected(ctx context.Context) error {
	if cm.stream.IsOpen() {
		if cm.State() != StateConnected {
			cm.setState(StateConnected)
		}
		return nil
	}

	cm.setState(StateConnecting)

	connectCtx, cancel := context.WithTimeout(ctx, cm.connectTimeout)
	defer cancel()

	if err := cm.stream.Open(connectCtx); err != nil {
		cm.setState(StateDisconnected)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !cm.reconnecting {
			cm.logger.Error("Failed to connect to instrument",
				zap.String("address", cm.stream.Address()),
				zap.Duration("timeout", cm.connectTimeout),
				zap.Error(err),
			)
		}
		cm.reconnecting = true
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	if cm.reconnecting {
		cm.logger.Info("Reconnected to instrument", zap.String("address", cm.stream.Address()))
	}
	cm.reconnecting = false
	cm.connects.Inc()
	cm.setState(StateConnected)
	return nil
}

// close releases the stream. Repeated calls are harmless and errors are only logged.
func (cm *connectionManager) close() {
	if cm.stream.IsOpen() {
		if err := cm.stream.Close(); err != nil {
			cm.logger.Warn("Failed to close instrument stream", zap.Error(err))
		}
	}
	if cm.State() != StateDisconnected {
		cm.setState(StateDisconnected)
	}
}

// State returns the current state without taking the request lock
func (cm *connectionManager) State() State {
	return State(cm.state.Load())
}

func (cm *connectionManager) setState(to State) {
	from := State(cm.state.Swap(int32(to)))
	if from == to {
		return
	}

	cm.logger.Debug("Connection state changed",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)

	cm.handlersMu.RLock()
	handlers := make([]StateHandler, len(cm.handlers))
	copy(handlers, cm.handlers)
	cm.handlersMu.RUnlock()

	for _, handler := range handlers {
		handler(from, to)
	}
}

func (cm *connectionManager) onStateChange(handler StateHandler) {
	cm.handlersMu.Lock()
	defer cm.handlersMu.Unlock()
	cm.handlers = append(cm.handlers, handler)
}
