// Package ristretto adapts dgraph-io/ristretto as an admission-controlled,
// ephemeral backend. Writes may be refused (Set returns ok=false) and entries
// may be evicted at any time; both are normal for this store.
package ristretto

import (
	"context"
	"errors"
	"sync"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/purestore/backend"
)

const (
	DefaultNumCounters = 1e5
	DefaultMaxCost     = 64 << 20 // bytes
	DefaultBufferItems = 64
)

type Provider struct {
	c *rc.Cache

	// ristretto only hands back key hashes, so string keys are tracked here.
	mu    sync.Mutex
	index map[string]struct{}
}

var _ backend.Backend = (*Provider)(nil)
var _ backend.SyncCapable = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // cost is the stored size in bytes
	BufferItems int64
	Metrics     bool
}

type entry struct {
	key string
	val []byte
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters < 0 || cfg.MaxCost < 0 || cfg.BufferItems < 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	p := &Provider{index: make(map[string]struct{})}
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        coalesce(cfg.NumCounters, DefaultNumCounters),
		MaxCost:            coalesce(cfg.MaxCost, DefaultMaxCost),
		BufferItems:        coalesce(cfg.BufferItems, DefaultBufferItems),
		Metrics:            cfg.Metrics,
		IgnoreInternalCost: true,
		OnEvict:            p.forget,
		OnReject:           p.forget,
	})
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

func (p *Provider) forget(it *rc.Item) {
	e, ok := it.Value.(entry)
	if !ok {
		return
	}
	p.mu.Lock()
	delete(p.index, e.key)
	p.mu.Unlock()
}

func (p *Provider) SyncAvailable() bool { return true }

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	e, ok := v.(entry)
	if !ok {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

// Set waits for ristretto's write buffer so a following Get observes the value.
func (p *Provider) Set(_ context.Context, key string, value []byte) (bool, error) {
	ok := p.set(key, value)
	p.c.Wait()
	return ok, nil
}

func (p *Provider) set(key string, value []byte) bool {
	e := entry{key: key, val: append([]byte(nil), value...)}
	p.mu.Lock()
	p.index[key] = struct{}{}
	p.mu.Unlock()
	if !p.c.Set(key, e, int64(len(key)+len(value))) {
		p.mu.Lock()
		delete(p.index, key)
		p.mu.Unlock()
		return false
	}
	return true
}

func (p *Provider) Remove(_ context.Context, key string) (bool, error) {
	p.c.Del(key)
	p.c.Wait()
	p.mu.Lock()
	delete(p.index, key)
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := p.Get(ctx, key)
	return ok, err
}

// Keys reports indexed keys that are still resident.
func (p *Provider) Keys(_ context.Context) ([]string, error) {
	p.c.Wait()
	p.mu.Lock()
	cand := make([]string, 0, len(p.index))
	for k := range p.index {
		cand = append(cand, k)
	}
	p.mu.Unlock()

	out := cand[:0]
	for _, k := range cand {
		if _, ok := p.c.Get(k); ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (p *Provider) MultiGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if b, ok, _ := p.Get(ctx, k); ok {
			out[k] = b
		}
	}
	return out, nil
}

// MultiSet reports ok=false when any entry was refused; accepted entries stay.
func (p *Provider) MultiSet(_ context.Context, entries map[string][]byte) (bool, error) {
	all := true
	for k, v := range entries {
		if !p.set(k, v) {
			all = false
		}
	}
	p.c.Wait()
	return all, nil
}

func (p *Provider) MultiRemove(_ context.Context, keys []string) (bool, error) {
	for _, k := range keys {
		p.c.Del(k)
	}
	p.c.Wait()
	p.mu.Lock()
	for _, k := range keys {
		delete(p.index, k)
	}
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when Config.Metrics is set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }

func coalesce(v, def int64) int64 {
	if v == 0 {
		return def
	}
	return v
}
