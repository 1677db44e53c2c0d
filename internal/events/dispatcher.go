// Package events distributes engine notifications (sync results, deck state
// changes, data integrity warnings) to registered observers.
package events

import (
	"context"
	"log/slog"
	"sync"
)

// Event represents an engine event that can be dispatched to observers.
type Event struct {
	// Type is the event type (e.g., "collection:synced", "deck:state")
	Type string

	// Payload is one of the message types in messages.go.
	Payload any

	// Context provides execution context for the event
	Context context.Context
}

// Observer defines the interface for objects that want to be notified of events.
type Observer interface {
	// OnEvent is called when an event is dispatched.
	// Returns an error if the observer fails to handle the event.
	OnEvent(event Event) error

	// GetName returns a human-readable name for this observer (for logging/debugging).
	GetName() string

	// ShouldHandle returns true if this observer should handle the given event type.
	ShouldHandle(eventType string) bool
}

// EventDispatcher implements the Observer pattern for event distribution.
// Thread-safe for concurrent use. A nil *EventDispatcher drops every event.
type EventDispatcher struct {
	observers []Observer
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewEventDispatcher creates a new EventDispatcher. A nil logger uses
// slog.Default().
func NewEventDispatcher(logger *slog.Logger) *EventDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventDispatcher{
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

// Register adds an observer to the dispatcher.
func (d *EventDispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	d.logger.Debug("Registered observer", "observer", observer.GetName())
}

// Unregister removes an observer from the dispatcher.
func (d *EventDispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			d.logger.Debug("Unregistered observer", "observer", observer.GetName())
			return
		}
	}
}

// Dispatch sends an event to all registered observers.
// Observers are notified sequentially in the order they were registered.
// If an observer returns an error, it's logged but dispatch continues to other observers.
func (d *EventDispatcher) Dispatch(event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			d.logger.Warn("Observer failed to handle event",
				"observer", observer.GetName(),
				"event", event.Type,
				"error", err)
		}
	}
}

// ObserverCount returns the number of registered observers.
func (d *EventDispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Clear removes all registered observers.
func (d *EventDispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = make([]Observer, 0)
}

// New creates an Event with a typed payload.
func New[T any](ctx context.Context, eventType string, payload T) Event {
	return Event{
		Type:    eventType,
		Payload: payload,
		Context: ctx,
	}
}

// PayloadAs extracts a typed payload from an Event.
// Returns the zero value and false if the payload is not of the expected type.
func PayloadAs[T any](event Event) (T, bool) {
	typed, ok := event.Payload.(T)
	return typed, ok
}
