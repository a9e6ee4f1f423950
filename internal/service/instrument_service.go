// internal/service/instrument_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"namur-service/internal/driver/ika"
	"namur-service/internal/model"
	"namur-service/internal/namur"
	"namur-service/internal/transport"
	"namur-service/internal/utils"
	"namur-service/pkg/driver"
)

// EventPublisher receives every event the service emits
type EventPublisher interface {
	Publish(event model.InstrumentEvent)
}

// Snapshot is the last reading taken by the poller
type Snapshot struct {
	Instrument model.InstrumentType   `json:"instrument"`
	Status     model.InstrumentStatus `json:"status"`
	Reading    driver.Reading         `json:"reading"`
	Error      string                 `json:"error,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// InstrumentService owns one instrument and its transport. It polls the
// instrument in the background and serves API requests in between; the
// transport serializes both.
type InstrumentService struct {
	instrument   driver.Instrument
	transport    *transport.Transport
	pollInterval time.Duration
	publisher    EventPublisher

	logger      *utils.ServiceLogger
	instLogger  *utils.InstrumentLogger
	auditLogger *utils.AuditLogger

	mu     sync.RWMutex
	latest *Snapshot
}

// NewInstrumentService creates a new instrument service instance
func NewInstrumentService(
	instrument driver.Instrument,
	tr *transport.Transport,
	pollInterval time.Duration,
	publisher EventPublisher,
	logger *zap.Logger,
) *InstrumentService {
	s := &InstrumentService{
		instrument:   instrument,
		transport:    tr,
		pollInterval: pollInterval,
		publisher:    publisher,
		logger:       utils.NewServiceLogger(logger, "instrument-service"),
		instLogger:   utils.NewInstrumentLogger(logger, string(instrument.Type()), tr.Address()),
		auditLogger:  utils.NewAuditLogger(logger),
	}

	tr.OnStateChange(s.onStateChange)
	return s
}

// Type returns the instrument family
func (s *InstrumentService) Type() model.InstrumentType {
	return s.instrument.Type()
}

// Equipment lists what can be set and switched
func (s *InstrumentService) Equipment() []driver.EquipmentInfo {
	return s.instrument.Equipment()
}

// Run polls the instrument every poll interval until ctx is done
func (s *InstrumentService) Run(ctx context.Context) error {
	s.logger.Info("Instrument poller started",
		zap.String("instrument_type", string(s.Type())),
		zap.Duration("poll_interval", s.pollInterval),
	)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		s.Poll(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("Instrument poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Poll reads the instrument once, stores the snapshot and publishes it
func (s *InstrumentService) Poll(ctx context.Context) *Snapshot {
	start := time.Now()
	reading, err := s.instrument.Get(ctx)
	if ctx.Err() != nil {
		return s.Latest()
	}
	s.instLogger.LogPoll(time.Since(start), err)

	snapshot := &Snapshot{
		Instrument: s.Type(),
		Status:     s.Status(),
		Reading:    reading,
		Timestamp:  time.Now(),
	}
	if err != nil {
		snapshot.Error = err.Error()
		if namur.IsMisconfigured(err) {
			snapshot.Status = model.InstrumentStatusError
		}
		s.publishError("poll", err)
	} else {
		s.publish(model.EventReading, map[string]any{"reading": reading})
	}

	s.mu.Lock()
	s.latest = snapshot
	s.mu.Unlock()

	return snapshot
}

// Latest returns the last polled snapshot, nil before the first poll
func (s *InstrumentService) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Reading reads the instrument now
func (s *InstrumentService) Reading(ctx context.Context) (driver.Reading, error) {
	reading, err := s.instrument.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read instrument: %w", err)
	}
	return reading, nil
}

// Info reads the instrument identification
func (s *InstrumentService) Info(ctx context.Context) (driver.Info, error) {
	info, err := s.instrument.GetInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read instrument info: %w", err)
	}
	return info, nil
}

// Set changes the setpoint of one equipment
func (s *InstrumentService) Set(ctx context.Context, equipment string, setpoint float64, requestID string) error {
	start := time.Now()
	err := s.instrument.Set(ctx, equipment, setpoint)
	s.instLogger.LogOperation("set", equipment, time.Since(start), err)
	s.auditLogger.LogSetpoint(equipment, setpoint, requestID, err == nil)
	if err != nil {
		s.publishError("set", err)
		return err
	}

	s.publish(model.EventSetpointChanged, map[string]any{
		"equipment":  equipment,
		"setpoint":   setpoint,
		"request_id": requestID,
	})
	return nil
}

// Control switches one equipment on or off
func (s *InstrumentService) Control(ctx context.Context, equipment string, on bool, requestID string) error {
	start := time.Now()
	err := s.instrument.Control(ctx, equipment, on)
	s.instLogger.LogOperation("control", equipment, time.Since(start), err)
	s.auditLogger.LogControl(equipment, on, requestID, err == nil)
	if err != nil {
		s.publishError("control", err)
		return err
	}

	s.publish(model.EventControlChanged, map[string]any{
		"equipment":  equipment,
		"on":         on,
		"request_id": requestID,
	})
	return nil
}

// Reset returns the instrument to normal operating mode
func (s *InstrumentService) Reset(ctx context.Context, requestID string) error {
	start := time.Now()
	err := s.instrument.Reset(ctx)
	s.instLogger.LogOperation("reset", "", time.Since(start), err)
	s.auditLogger.LogRaw(transport.ResetCommand, requestID, err == nil)
	if err != nil {
		s.publishError("reset", err)
		return err
	}

	s.publish(model.EventReset, map[string]any{"request_id": requestID})
	return nil
}

// Query sends a raw command and decodes the answer
func (s *InstrumentService) Query(ctx context.Context, command, requestID string) (namur.Value, error) {
	command = strings.TrimSpace(command)
	value, err := s.transport.Query(ctx, command)
	s.auditLogger.LogRaw(command, requestID, err == nil)
	return value, err
}

// Command sends a raw command without reading an answer
func (s *InstrumentService) Command(ctx context.Context, command, requestID string) error {
	command = strings.TrimSpace(command)
	err := s.transport.Command(ctx, command)
	s.auditLogger.LogRaw(command, requestID, err == nil)
	return err
}

// Fault reads the instrument error state. Only vacuum pumps report one.
func (s *InstrumentService) Fault(ctx context.Context) (*ika.VacuumError, error) {
	vacuum, ok := s.instrument.(*ika.Vacuum)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no error readout", driver.ErrNotSupported, s.Type())
	}
	return vacuum.Error(ctx)
}

// Connect dials the instrument ahead of the first request
func (s *InstrumentService) Connect(ctx context.Context) error {
	return s.transport.Connect(ctx)
}

// Stats returns the transport counters
func (s *InstrumentService) Stats() transport.Stats {
	return s.transport.Stats()
}

// Status maps the transport state to the reported instrument status
func (s *InstrumentService) Status() model.InstrumentStatus {
	return statusFor(s.transport.State())
}

// Connected reports whether the transport holds an open stream
func (s *InstrumentService) Connected() bool {
	return s.transport.State() == transport.StateConnected
}

// Close closes the instrument and its transport
func (s *InstrumentService) Close() error {
	return s.instrument.Close()
}

func (s *InstrumentService) onStateChange(from, to transport.State) {
	s.instLogger.LogStateChange(from.String(), to.String())
	s.publish(model.EventStateChange, model.StateChangeEventData{
		From:   from.String(),
		To:     to.String(),
		Status: statusFor(to),
	}.Map())
}

func (s *InstrumentService) publishError(operation string, err error) {
	code := "INSTRUMENT_ERROR"
	recovery := true
	switch {
	case namur.IsMisconfigured(err):
		code, recovery = "MISCONFIGURED_DEVICE", false
	case errors.Is(err, driver.ErrInvalidSetpoint), errors.Is(err, driver.ErrUnknownEquipment):
		code = "VALIDATION_ERROR"
	case errors.Is(err, namur.ErrMalformedResponse), errors.Is(err, namur.ErrUnsupportedResponse):
		code = "BAD_RESPONSE"
	}

	s.publish(model.EventInstrumentError, model.InstrumentErrorEventData{
		Operation:    operation,
		ErrorCode:    code,
		ErrorMessage: err.Error(),
		ErrorTime:    time.Now(),
		Recovery:     recovery,
	}.Map())
}

func (s *InstrumentService) publish(eventType model.EventType, data map[string]any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(model.NewInstrumentEvent(eventType, s.Type(), s.transport.Address(), data))
}

func statusFor(state transport.State) model.InstrumentStatus {
	switch state {
	case transport.StateConnected:
		return model.InstrumentStatusOnline
	case transport.StateConnecting:
		return model.InstrumentStatusConnecting
	default:
		return model.InstrumentStatusOffline
	}
}
