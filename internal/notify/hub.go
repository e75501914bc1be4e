// Package notify fans out store-change events to observers. The API service
// uses it to push re-render signals to UI clients; an optional AMQP
// publisher mirrors the same events to external consumers.
package notify

import (
	"sync"
)

// Event describes one store mutation.
type Event struct {
	// Kind is "records", "blobs", or "restore".
	Kind string `json:"kind"`
	// Version is the record-collection version after the mutation, when the
	// mutation touched the collection (0 for blob-only changes).
	Version int64 `json:"version"`
}

// Notifier receives store-change events. Implementations must not block.
type Notifier interface {
	Notify(Event)
}

// Hub is an in-process Notifier that fans events out to subscribers.
// Slow subscribers drop events rather than stall writers; observers only
// need a "something changed" signal and reload from the store anyway.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers an observer. The returned cancel func must be called
// to release the subscription.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Notify delivers the event to every subscriber without blocking.
func (h *Hub) Notify(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Multi composes several notifiers into one.
type Multi []Notifier

// Notify forwards the event to each non-nil notifier.
func (m Multi) Notify(ev Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ev)
		}
	}
}
