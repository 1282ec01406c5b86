package events

import (
	"fmt"
	"sync"
	"time"

	"surveyor/internal/api"
	"surveyor/internal/log"
	"surveyor/internal/survey"
)

// EventType represents the kinds of notifications the ingestion side emits
type EventType int

const (
	// ZoneChanged carries no data.
	ZoneChanged EventType = iota
	// StateUpdated carries a StateUpdate.
	StateUpdated
	// BatchCommitted carries a BatchCommit.
	BatchCommitted
	// SurveyCollected carries a Collection.
	SurveyCollected
)

func (t EventType) String() string {
	switch t {
	case ZoneChanged:
		return api.NotifyZoneChanged
	case StateUpdated:
		return api.NotifyStateUpdated
	case BatchCommitted:
		return "batch-committed"
	case SurveyCollected:
		return "survey-collected"
	default:
		return "unknown"
	}
}

// Event represents a notification delivered through the bus
type Event struct {
	Type      EventType
	Data      any
	Source    string
	Timestamp int64
}

// StateUpdate is the data of a StateUpdated event. Seq grows with every
// committed change, so a sink that sees updates out of order can drop the
// older ones. Zero means no order is known.
type StateUpdate struct {
	Seq     uint64
	Payload api.RenderPayload
}

// BatchCommit is the data of a BatchCommitted event.
type BatchCommit struct {
	Zone    string
	Surveys []survey.Survey
}

// Collection is the data of a SurveyCollected event.
type Collection struct {
	Zone   string
	Index  int
	Survey survey.Survey
}

// EventHandler defines the signature for event handling functions.
// Handlers must return quickly; long work belongs on another goroutine.
type EventHandler func(event Event)

// Bus delivers events to subscribers. Delivery is best-effort: an event
// with no subscribers is dropped and a panicking handler is skipped.
type Bus struct {
	subscribers map[EventType]map[string]EventHandler
	mutex       sync.RWMutex
	nextID      int
}

// NewBus creates a new event bus instance
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType]map[string]EventHandler),
		nextID:      1,
	}
}

// Subscribe registers an event handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler EventHandler) string {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	subscriptionID := fmt.Sprintf("sub_%d", b.nextID)
	b.nextID++

	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[string]EventHandler)
	}
	b.subscribers[eventType][subscriptionID] = handler

	return subscriptionID
}

// Unsubscribe removes an event handler
func (b *Bus) Unsubscribe(eventType EventType, subscriptionID string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if handlers, exists := b.subscribers[eventType]; exists {
		delete(handlers, subscriptionID)
		if len(handlers) == 0 {
			delete(b.subscribers, eventType)
		}
	}
}

// Fire synchronously delivers an event to all subscribers
func (b *Bus) Fire(event Event) {
	handlers := b.snapshot(event.Type)
	if len(handlers) == 0 {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixNano()
	}

	for id, handler := range handlers {
		deliver(id, handler, event)
	}
}

// FireAsync delivers an event to each subscriber on its own goroutine
func (b *Bus) FireAsync(event Event) {
	handlers := b.snapshot(event.Type)
	if len(handlers) == 0 {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixNano()
	}

	for id, handler := range handlers {
		go deliver(id, handler, event)
	}
}

// SubscriberCount returns the number of subscribers for an event type
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.subscribers[eventType])
}

// Clear removes all subscribers
func (b *Bus) Clear() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.subscribers = make(map[EventType]map[string]EventHandler)
}

// snapshot copies the handler set so delivery runs without the lock held.
func (b *Bus) snapshot(eventType EventType) map[string]EventHandler {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	handlers := b.subscribers[eventType]
	out := make(map[string]EventHandler, len(handlers))
	for id, h := range handlers {
		out[id] = h
	}
	return out
}

func deliver(id string, handler EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("event handler panicked", "subscription", id, "event", event.Type.String(), "panic", r)
		}
	}()
	handler(event)
}
