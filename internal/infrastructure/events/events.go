// Package events provides EventSink implementations.
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/weavehq/weave/internal/domain/ports"
)

// LoggingSink logs every emitted event. Useful as the default sink for the
// CLI, where nothing subscribes to a stream.
type LoggingSink struct {
	log *zap.Logger
}

// NewLoggingSink creates a sink that writes events to the given logger.
func NewLoggingSink(log *zap.Logger) *LoggingSink {
	return &LoggingSink{log: log}
}

// Emit implements ports.EventSink.
func (s *LoggingSink) Emit(event string, payload any) {
	s.log.Info("event emitted", zap.String("event", event), zap.Any("payload", payload))
}

// Event is a named payload delivered to broadcaster subscribers.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// Broadcaster fans events out to subscriber channels. Slow subscribers drop
// events rather than block the emitter.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	log  *zap.Logger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		subs: make(map[chan Event]struct{}),
		log:  log,
	}
}

// Subscribe registers a new subscriber and returns its channel along with an
// unsubscribe function. The unsubscribe function closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Emit implements ports.EventSink.
func (b *Broadcaster) Emit(event string, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- Event{Name: event, Payload: payload}:
		default:
			b.log.Warn("dropping event for slow subscriber", zap.String("event", event))
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Multi fans a single Emit out to several sinks in order.
type Multi []ports.EventSink

// Emit implements ports.EventSink.
func (m Multi) Emit(event string, payload any) {
	for _, sink := range m {
		sink.Emit(event, payload)
	}
}
