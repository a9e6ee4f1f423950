// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventReading         EventType = "READING"
	EventStateChange     EventType = "STATE_CHANGE"
	EventInstrumentError EventType = "INSTRUMENT_ERROR"
	EventSetpointChanged EventType = "SETPOINT_CHANGED"
	EventControlChanged  EventType = "CONTROL_CHANGED"
	EventReset           EventType = "RESET"
)

// Event severities
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityError    = "ERROR"
	SeverityCritical = "CRITICAL"
)

// InstrumentEvent represents an event in the system
type InstrumentEvent struct {
	ID         uuid.UUID      `json:"id"`
	EventType  EventType      `json:"event_type"`
	Instrument InstrumentType `json:"instrument"`
	Address    string         `json:"address"`
	Data       map[string]any `json:"data"`
	Timestamp  time.Time      `json:"timestamp"`
	Severity   string         `json:"severity"`
}

// NewInstrumentEvent stamps a new event with an ID and the current time
func NewInstrumentEvent(eventType EventType, instrument InstrumentType, address string, data map[string]any) InstrumentEvent {
	severity := SeverityInfo
	if eventType == EventInstrumentError {
		severity = SeverityError
	}
	return InstrumentEvent{
		ID:         uuid.New(),
		EventType:  eventType,
		Instrument: instrument,
		Address:    address,
		Data:       data,
		Timestamp:  time.Now(),
		Severity:   severity,
	}
}

// StateChangeEventData represents a connection state transition
type StateChangeEventData struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	Status InstrumentStatus `json:"status"`
}

// InstrumentErrorEventData represents a failed poll or operation
type InstrumentErrorEventData struct {
	Operation    string    `json:"operation"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
	ErrorTime    time.Time `json:"error_time"`
	Recovery     bool      `json:"auto_recovery_possible"`
}

// Map flattens the payload for InstrumentEvent.Data
func (d StateChangeEventData) Map() map[string]any {
	return map[string]any{"from": d.From, "to": d.To, "status": d.Status}
}

// Map flattens the payload for InstrumentEvent.Data
func (d InstrumentErrorEventData) Map() map[string]any {
	return map[string]any{
		"operation":              d.Operation,
		"error_code":             d.ErrorCode,
		"error_message":          d.ErrorMessage,
		"error_time":             d.ErrorTime,
		"auto_recovery_possible": d.Recovery,
	}
}
