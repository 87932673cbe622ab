// Package events provides the lifecycle/telemetry event broadcaster.
//
// Observers subscribe to a shared broadcaster and receive events over a
// buffered channel. Delivery is best-effort and non-blocking: a slow
// observer drops events rather than stalling the publisher or its peers.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// EventType identifies the kind of event delivered to observers
type EventType string

const (
	EventConnected     EventType = "connected"
	EventStreamStats   EventType = "stream_stats"
	EventStreamError   EventType = "stream_error"
	EventStreamStopped EventType = "stream_stopped"
)

// Event is a single message delivered to observers
type Event struct {
	Type      EventType   `json:"type"`
	StreamID  string      `json:"streamId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Observer is a registered event listener
type Observer struct {
	ID string

	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// Events returns the channel events are delivered on. The channel is
// closed when the observer is unsubscribed.
func (o *Observer) Events() <-chan Event {
	return o.ch
}

// send delivers an event without blocking. Events published to a closed
// or full observer are silently dropped.
func (o *Observer) send(ev Event) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	select {
	case o.ch <- ev:
		return true
	default:
		return false
	}
}

func (o *Observer) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
}

const observerBufferSize = 64

// Broadcaster fans events out to all currently subscribed observers
type Broadcaster struct {
	logger hclog.Logger

	mu        sync.RWMutex
	observers map[string]*Observer
}

// NewBroadcaster creates a new broadcaster
func NewBroadcaster(logger hclog.Logger) *Broadcaster {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Broadcaster{
		logger:    logger,
		observers: make(map[string]*Observer),
	}
}

// Subscribe registers a new observer. The connection acknowledgement is
// queued before the observer is visible to Publish, so it is always the
// first event the observer receives.
func (b *Broadcaster) Subscribe() *Observer {
	obs := &Observer{
		ID: uuid.NewString(),
		ch: make(chan Event, observerBufferSize),
	}
	obs.send(Event{
		Type:      EventConnected,
		Message:   "Connected to stream status updates",
		Timestamp: time.Now().Unix(),
	})

	b.mu.Lock()
	b.observers[obs.ID] = obs
	b.mu.Unlock()

	b.logger.Debug("observer subscribed", "observer_id", obs.ID)
	return obs
}

// Unsubscribe removes an observer and closes its channel. Unsubscribing
// an already-removed observer is a no-op.
func (b *Broadcaster) Unsubscribe(obs *Observer) {
	if obs == nil {
		return
	}

	b.mu.Lock()
	_, exists := b.observers[obs.ID]
	delete(b.observers, obs.ID)
	b.mu.Unlock()

	obs.close()
	if exists {
		b.logger.Debug("observer unsubscribed", "observer_id", obs.ID)
	}
}

// Publish delivers an event to every subscribed observer, best-effort
func (b *Broadcaster) Publish(eventType EventType, streamID string, data interface{}) {
	b.PublishEvent(Event{
		Type:      eventType,
		StreamID:  streamID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// PublishEvent delivers a fully-formed event to every subscribed observer
func (b *Broadcaster) PublishEvent(ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}

	b.mu.RLock()
	observers := make([]*Observer, 0, len(b.observers))
	for _, obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		if !obs.send(ev) {
			b.logger.Debug("dropped event for observer", "observer_id", obs.ID, "event_type", ev.Type)
		}
	}
}

// ObserverCount returns the number of currently subscribed observers
func (b *Broadcaster) ObserverCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}
