// Package asynchook moves purestore hook calls off the caller's goroutine.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    DecodeFailedEvery: 10, // sample: ~every 10th unreadable record
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	reg, _ := purestore.New(purestore.Options{
//	    Backend: memory.New(),
//	    Hooks:   hooks, // or `raw` if you don't want async
//	})
//
// Events are dropped when the queue is full; Dropped reports how many.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/purestore"
)

type Hooks struct {
	inner   purestore.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ purestore.Hooks = (*Hooks)(nil)

func New(inner purestore.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped is the number of events lost to a full or closed queue.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	defer func() {
		// send on a queue closed after the check above
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) DecodeFailed(ns, k, r string) { h.try(func() { h.inner.DecodeFailed(ns, k, r) }) }
func (h *Hooks) EncryptFallback(ns, k string, err error) {
	h.try(func() { h.inner.EncryptFallback(ns, k, err) })
}
func (h *Hooks) DecryptFailed(ns, k string, err error) {
	h.try(func() { h.inner.DecryptFailed(ns, k, err) })
}
func (h *Hooks) HandlerPanic(ns, k string, rec any) {
	h.try(func() { h.inner.HandlerPanic(ns, k, rec) })
}
func (h *Hooks) BackendError(ns string, op purestore.Code, err error) {
	h.try(func() { h.inner.BackendError(ns, op, err) })
}
func (h *Hooks) CacheEvicted(ns, k string, expired bool) {
	h.try(func() { h.inner.CacheEvicted(ns, k, expired) })
}
