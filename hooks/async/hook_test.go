package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/purestore"
)

type countHooks struct {
	purestore.NopHooks
	mu    sync.Mutex
	block chan struct{}
	seen  []string
}

func (c *countHooks) DecodeFailed(_, key, _ string) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.seen = append(c.seen, key)
	c.mu.Unlock()
}

func TestDeliversAndDrainsOnClose(t *testing.T) {
	inner := &countHooks{}
	h := New(inner, 2, 16)
	for i := 0; i < 10; i++ {
		h.DecodeFailed("ns", "k", "corrupt_frame")
	}
	h.Close()
	if len(inner.seen) != 10 {
		t.Fatalf("delivered %d, want 10", len(inner.seen))
	}
	if h.Dropped() != 0 {
		t.Fatalf("dropped = %d", h.Dropped())
	}
}

func TestDropsWhenFull(t *testing.T) {
	inner := &countHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// worker may hold one event while a second sits in the queue
	for i := 0; i < 5; i++ {
		h.DecodeFailed("ns", "k", "r")
	}
	if h.Dropped() < 3 {
		t.Fatalf("dropped = %d, want at least 3", h.Dropped())
	}
	close(inner.block)
	h.Close()

	h.DecodeFailed("ns", "late", "r")
	if h.Dropped() < 4 {
		t.Fatalf("event after Close was not counted as dropped")
	}
}
