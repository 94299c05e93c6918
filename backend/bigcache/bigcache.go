// Package bigcache adapts allegro/bigcache as an in-process, ephemeral backend.
// Entries live until LifeWindow passes or the hard size limit pushes them out.
package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/purestore/backend"
)

// DefaultLifeWindow applies when Config.LifeWindow is zero.
const DefaultLifeWindow = 30 * 24 * time.Hour

type Provider struct {
	c *bc.BigCache
}

var _ backend.Backend = (*Provider)(nil)
var _ backend.SyncCapable = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Provider, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = DefaultLifeWindow
	}
	conf := bc.DefaultConfig(life)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	conf.Verbose = false
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) SyncAvailable() bool { return true }

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	return b, err == nil, err
}

func (p *Provider) Set(_ context.Context, key string, value []byte) (bool, error) {
	if err := p.c.Set(key, value); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Remove(_ context.Context, key string) (bool, error) {
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return false, err
	}
	return true, nil
}

func (p *Provider) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := p.Get(ctx, key)
	return ok, err
}

// Keys walks the shards with bigcache's iterator. Entries written during the
// walk may or may not be reported.
func (p *Provider) Keys(_ context.Context) ([]string, error) {
	out := make([]string, 0, p.c.Len())
	it := p.c.Iterator()
	for it.SetNext() {
		e, err := it.Value()
		if err != nil {
			// entry vanished between SetNext and Value
			if errors.Is(err, bc.ErrInvalidIteratorState) || errors.Is(err, bc.ErrCannotRetrieveEntry) {
				continue
			}
			return nil, err
		}
		out = append(out, e.Key())
	}
	return out, nil
}

func (p *Provider) MultiGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		b, ok, err := p.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = b
		}
	}
	return out, nil
}

// MultiSet is not atomic: a failing entry stops the loop with earlier entries written.
func (p *Provider) MultiSet(_ context.Context, entries map[string][]byte) (bool, error) {
	for k, v := range entries {
		if err := p.c.Set(k, v); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (p *Provider) MultiRemove(ctx context.Context, keys []string) (bool, error) {
	for _, k := range keys {
		if _, err := p.Remove(ctx, k); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
