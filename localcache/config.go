package localcache

import (
	"fmt"
	"time"
)

// DefaultMaxSize is used by purestore when no cache config is given.
const DefaultMaxSize = 1000

// Config tunes a Cache.
type Config struct {
	// MaxSize bounds the number of entries; 0 = unbounded.
	MaxSize int
	// TTL is the default lifetime of an entry; 0 = entries never expire
	// unless Set is given an override.
	TTL time.Duration
	// Now overrides the clock (tests). nil => time.Now.
	Now func() time.Time
	// OnEvict is called outside the lock after a capacity eviction
	// (expired=false) or an expiry detected on read (expired=true).
	OnEvict func(key string, expired bool)
}

// DefaultConfig returns the config purestore applies to new namespaces.
func DefaultConfig() Config {
	return Config{MaxSize: DefaultMaxSize}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.MaxSize < 0 {
		return &ConfigError{Field: "MaxSize", Message: "must be non-negative"}
	}
	if c.TTL < 0 {
		return &ConfigError{Field: "TTL", Message: "must be non-negative"}
	}
	return nil
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("localcache: invalid config %s: %s", e.Field, e.Message)
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Evictions uint64  `json:"evictions"`
	Size      int     `json:"size"`
	HitRate   float64 `json:"hitRate"`
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
