// Package page models the page-level resources a shopper's open views
// register against: window events and the body scroll lock.
package page

import (
	"sort"
	"sync"
)

// EventKind names a page-level event.
type EventKind string

const (
	KeyDown      EventKind = "keydown"
	OverlayClick EventKind = "overlay_click"
)

// KeyEscape is the key value of the Escape key.
const KeyEscape = "Escape"

// Event is a page-level input event.
type Event struct {
	Kind EventKind `json:"kind"`
	Key  string    `json:"key,omitempty"`
}

type subscription struct {
	kind EventKind
	fn   func(Event)
}

// Bus dispatches page events to scoped registrations.
type Bus struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]subscription)}
}

// Subscribe registers fn for events of kind. The returned function removes
// the registration and is safe to call more than once.
func (b *Bus) Subscribe(kind EventKind, fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[id] = subscription{kind: kind, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every matching registration in registration order
// and returns how many received it. Handlers run outside the bus lock and may
// unsubscribe themselves.
func (b *Bus) Publish(ev Event) int {
	b.mu.Lock()
	ids := make([]uint64, 0, len(b.subs))
	for id, s := range b.subs {
		if s.kind == ev.Kind {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id].fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return len(fns)
}

// Len returns the number of live registrations.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
