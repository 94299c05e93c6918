// Package bus is the in-process change notification bus of a purestore
// namespace.
//
// Handlers run synchronously on the emitting goroutine, in subscription order.
// A panicking handler is recovered and reported; later handlers still run.
package bus

import (
	"sync"
)

// Type is the kind of mutation an Event reports.
type Type string

const (
	Set    Type = "set"
	Remove Type = "remove"
	Clear  Type = "clear"
)

// Event describes a successful mutation. Key is empty for Clear.
type Event struct {
	Type      Type
	Namespace string
	Key       string
	Value     any
}

// Handler receives events.
type Handler func(Event)

// PanicFunc is told about a handler that panicked while handling ev.
type PanicFunc func(ev Event, recovered any)

type sub struct {
	id uint64
	h  Handler
}

// Bus fans events out to global and per-key subscribers.
type Bus struct {
	mu      sync.RWMutex
	nextID  uint64
	global  []sub
	byKey   map[string][]sub
	onPanic PanicFunc
}

// New returns an empty Bus. onPanic may be nil.
func New(onPanic PanicFunc) *Bus {
	return &Bus{byKey: make(map[string][]sub), onPanic: onPanic}
}

// Subscribe registers h for every event. The returned func unsubscribes and
// is safe to call more than once.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.global = append(b.global, sub{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.global = without(b.global, id)
			b.mu.Unlock()
		})
	}
}

// SubscribeKey registers h for events whose Key equals key.
func (b *Bus) SubscribeKey(key string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.byKey[key] = append(b.byKey[key], sub{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			rest := without(b.byKey[key], id)
			if len(rest) == 0 {
				delete(b.byKey, key)
			} else {
				b.byKey[key] = rest
			}
			b.mu.Unlock()
		})
	}
}

// Emit delivers ev to global handlers, then to handlers of ev.Key.
// Handlers are snapshotted first, so they may (un)subscribe freely.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.global)+len(b.byKey[ev.Key]))
	for _, s := range b.global {
		targets = append(targets, s.h)
	}
	if ev.Key != "" {
		for _, s := range b.byKey[ev.Key] {
			targets = append(targets, s.h)
		}
	}
	b.mu.RUnlock()

	for _, h := range targets {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil && b.onPanic != nil {
			b.onPanic(ev, r)
		}
	}()
	h(ev)
}

// Len reports the number of global subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.global)
}

// KeyCount reports how many keys have at least one subscriber.
func (b *Bus) KeyCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byKey)
}

func without(subs []sub, id uint64) []sub {
	out := make([]sub, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
