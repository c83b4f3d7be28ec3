package mocks

import "sync"

// EmittedEvent is one captured Emit call.
type EmittedEvent struct {
	Name    string
	Payload any
}

// EventSink is a mock implementation of ports.EventSink that records every
// emitted event.
type EventSink struct {
	mu     sync.Mutex
	Events []EmittedEvent
	// Panic makes Emit panic, for verifying sink failures never propagate.
	Panic bool
}

// NewEventSink creates a new mock EventSink.
func NewEventSink() *EventSink {
	return &EventSink{}
}

// Emit records the event.
func (m *EventSink) Emit(event string, payload any) {
	if m.Panic {
		panic("event sink failure")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Name: event, Payload: payload})
}

// Named returns all captured events with the given name.
func (m *EventSink) Named(name string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
