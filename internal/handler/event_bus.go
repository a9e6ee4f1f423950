// internal/handler/event_bus.go
package handler

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"namur-service/internal/model"
)

const (
	eventBufferSize      = 1000
	subscriberBufferSize = 100
)

// EventBus fans instrument events out to subscribers. Publish never blocks:
// events are dropped when the bus or a subscriber is full.
type EventBus struct {
	subscribers map[string]*Subscription
	events      chan model.InstrumentEvent
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// Subscription receives the events it was created for
type Subscription struct {
	ID     string
	C      <-chan model.InstrumentEvent
	ch     chan model.InstrumentEvent
	types  map[model.EventType]bool
	closed bool
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		subscribers: make(map[string]*Subscription),
		events:      make(chan model.InstrumentEvent, eventBufferSize),
		logger:      logger.With(zap.String("component", "event-bus")),
	}
}

// Start distributes events until ctx is done, then closes every subscription
func (eb *EventBus) Start(ctx context.Context) {
	defer eb.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eb.events:
			eb.distributeEvent(event)
		}
	}
}

// Publish publishes an event
func (eb *EventBus) Publish(event model.InstrumentEvent) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
		)
	}
}

// Subscribe subscribes to the given event types, or to all of them when
// none are given
func (eb *EventBus) Subscribe(types ...model.EventType) *Subscription {
	ch := make(chan model.InstrumentEvent, subscriberBufferSize)
	sub := &Subscription{
		ID:    uuid.NewString(),
		C:     ch,
		ch:    ch,
		types: make(map[model.EventType]bool, len(types)),
	}
	for _, t := range types {
		sub.types[t] = true
	}

	eb.mutex.Lock()
	eb.subscribers[sub.ID] = sub
	eb.mutex.Unlock()
	return sub
}

// Unsubscribe removes a subscription and closes its channel
func (eb *EventBus) Unsubscribe(sub *Subscription) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if _, ok := eb.subscribers[sub.ID]; ok {
		delete(eb.subscribers, sub.ID)
		sub.close()
	}
}

// SubscriberCount returns the number of active subscriptions
func (eb *EventBus) SubscriberCount() int {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()
	return len(eb.subscribers)
}

// distributeEvent distributes an event to subscribers
func (eb *EventBus) distributeEvent(event model.InstrumentEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for _, sub := range eb.subscribers {
		if len(sub.types) > 0 && !sub.types[event.EventType] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			eb.logger.Debug("Subscriber is slow, dropping event",
				zap.String("subscription_id", sub.ID),
				zap.String("event_type", string(event.EventType)),
			)
		}
	}
}

func (eb *EventBus) closeAll() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	for id, sub := range eb.subscribers {
		sub.close()
		delete(eb.subscribers, id)
	}
}

func (s *Subscription) close() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
