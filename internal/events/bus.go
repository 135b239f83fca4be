package events

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// subscription receives every event whose type starts with prefix.
type subscription struct {
	prefix string
	ch     chan Event
}

// Bus persists events to the EventLog and fans them out to subscribers.
// Delivery is non-blocking; a slow subscriber misses events rather than
// stalling the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	log    *EventLog // may be nil
	logger *slog.Logger
	closed bool
}

// NewBus creates a bus. A nil EventLog disables persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		log:    log,
		logger: logger.With("component", "events"),
	}
}

// Publish persists e, then delivers it to matching subscribers.
// A nil or closed Bus discards events. Persistence failures are logged and
// do not fail the publisher.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	if b.log != nil {
		if _, err := b.log.Append(ctx, e); err != nil {
			b.logger.Error("failed to persist event", "type", e.EventType(), "entity_id", e.EntityID(), "error", err)
		}
	}

	for _, s := range b.subs {
		if !strings.HasPrefix(e.EventType(), s.prefix) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.logger.Warn("subscriber full, dropping event",
				"type", e.EventType(),
				"prefix", s.prefix,
				"entity_id", e.EntityID())
		}
	}
	return nil
}

// Subscribe returns a channel receiving events whose type starts with
// prefix, e.g. "scan." for all scan events. An empty prefix matches
// everything. The channel is closed by Unsubscribe or Close.
func (b *Bus) Subscribe(prefix string, bufferSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, &subscription{prefix: prefix, ch: ch})
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.ch == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
