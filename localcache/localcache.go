// Package localcache is the in-process value cache that sits in front of a
// purestore backend.
//
// Eviction is capacity-only and strictly follows insertion order: reads never
// promote an entry. Expired entries are detected lazily on Get.
package localcache

import (
	"container/list"
	"sync"
	"time"
)

// Engine is the contract shared by the bounded cache and the Null variant.
type Engine interface {
	// Get returns (value, true) on a live hit; (nil, false) on miss or expiry.
	Get(key string) (any, bool)
	// Set inserts or overwrites key. ttl > 0 overrides the engine default.
	Set(key string, value any, ttl time.Duration)
	Remove(key string)
	Clear()
	Len() int
	Stats() Stats
	ResetStats()
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time // zero => no expiry
}

// Cache is a bounded, optionally TTL'd map with insertion-order eviction.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	onEvict func(key string, expired bool)

	order *list.List               // front = oldest insertion
	items map[string]*list.Element // -> *entry

	hits      uint64
	misses    uint64
	sets      uint64
	evictions uint64
}

var _ Engine = (*Cache)(nil)

// New builds a Cache from cfg. Invalid configs are rejected.
func New(cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		maxSize: cfg.MaxSize,
		ttl:     cfg.TTL,
		now:     now,
		onEvict: cfg.OnEvict,
		order:   list.New(),
		items:   make(map[string]*list.Element),
	}, nil
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	e := el.Value.(*entry)
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.order.Remove(el)
		delete(c.items, key)
		c.evictions++
		c.misses++
		c.mu.Unlock()
		c.notifyEvict(key, true)
		return nil, false
	}
	c.hits++
	v := e.value
	c.mu.Unlock()
	return v, true
}

func (c *Cache) Set(key string, value any, ttl time.Duration) {
	var expiresAt time.Time
	switch {
	case ttl > 0:
		expiresAt = c.now().Add(ttl)
	case c.ttl > 0:
		expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.sets++
	if el, ok := c.items[key]; ok {
		// overwrite in place; insertion position is kept
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		c.mu.Unlock()
		return
	}

	evicted := ""
	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		if oldest := c.order.Front(); oldest != nil {
			evicted = oldest.Value.(*entry).key
			c.order.Remove(oldest)
			delete(c.items, evicted)
			c.evictions++
		}
	}
	c.items[key] = c.order.PushBack(&entry{key: key, value: value, expiresAt: expiresAt})
	c.mu.Unlock()

	if evicted != "" {
		c.notifyEvict(evicted, false)
	}
}

func (c *Cache) Remove(key string) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Sets:      c.sets,
		Evictions: c.evictions,
		Size:      len(c.items),
		HitRate:   hitRate(c.hits, c.misses),
	}
}

// ResetStats zeroes the counters; entries are untouched.
func (c *Cache) ResetStats() {
	c.mu.Lock()
	c.hits, c.misses, c.sets, c.evictions = 0, 0, 0, 0
	c.mu.Unlock()
}

func (c *Cache) notifyEvict(key string, expired bool) {
	if c.onEvict != nil {
		c.onEvict(key, expired)
	}
}

// Null satisfies Engine without storing anything. Used when caching is
// disabled for a namespace.
type Null struct{}

var _ Engine = Null{}

func (Null) Get(string) (any, bool)         { return nil, false }
func (Null) Set(string, any, time.Duration) {}
func (Null) Remove(string)                  {}
func (Null) Clear()                         {}
func (Null) Len() int                       { return 0 }
func (Null) Stats() Stats                   { return Stats{} }
func (Null) ResetStats()                    {}
