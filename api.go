package purestore

import (
	"time"

	"github.com/unkn0wn-root/purestore/backend"
	c "github.com/unkn0wn-root/purestore/codec"
	"github.com/unkn0wn-root/purestore/crypt"
	"github.com/unkn0wn-root/purestore/localcache"
)

// Options configure a Registry.
// Only Backend is required; others have sensible defaults.
type Options struct {
	// Required
	Backend backend.Backend

	RecordCodec      c.Codec[c.Item]    // nil => codec.JSON
	Cipher           crypt.Cipher       // nil => encrypted writes fall back to plaintext
	Logger           Logger             // nil => NopLogger
	Hooks            Hooks              // nil => NopHooks
	Cache            *localcache.Config // nil => localcache.DefaultConfig()
	DisableCache     bool               // default false => every namespace gets a cache
	DefaultNamespace string             // "" => "default"
	EncryptByDefault bool               // applies to the default instance
	StrictEncryption bool               // return *EncryptionError instead of degrading
	MaxRecordSize    int                // > 0 => larger records read as unreadable
}

// InstanceOption tunes a namespace when it is first created.
type InstanceOption func(*instanceConfig)

type instanceConfig struct {
	encryptByDefault bool
	cache            localcache.Config
	noCache          bool
}

// WithEncryptByDefault sets whether writes to the namespace are encrypted
// unless a call says otherwise.
func WithEncryptByDefault(on bool) InstanceOption {
	return func(c *instanceConfig) { c.encryptByDefault = on }
}

// WithCache gives the namespace its own cache configuration.
func WithCache(cfg localcache.Config) InstanceOption {
	return func(c *instanceConfig) { c.cache = cfg; c.noCache = false }
}

// WithoutCache makes every call on the namespace go to the backend.
func WithoutCache() InstanceOption {
	return func(c *instanceConfig) { c.noCache = true }
}

// SetOption tunes a single write.
type SetOption interface{ applySet(*setConfig) }

// GetOption tunes a single read.
type GetOption interface{ applyGet(*getConfig) }

type setConfig struct {
	encrypted *bool
	skipCache bool
	ttl       time.Duration
	compress  bool
}

type getConfig struct {
	skipCache  bool
	def        any
	hasDefault bool
}

type setFunc func(*setConfig)

func (f setFunc) applySet(c *setConfig) { f(c) }

type getFunc func(*getConfig)

func (f getFunc) applyGet(c *getConfig) { f(c) }

// Encrypted overrides the namespace's EncryptByDefault for this write.
func Encrypted(on bool) SetOption {
	return setFunc(func(c *setConfig) { c.encrypted = &on })
}

// TTL overrides the cache lifetime of the written entry. It does not affect
// the backend.
func TTL(d time.Duration) SetOption {
	return setFunc(func(c *setConfig) { c.ttl = d })
}

// Compress RLE-compresses binary values when that makes them smaller.
func Compress() SetOption {
	return setFunc(func(c *setConfig) { c.compress = true })
}

// Default is returned instead of nil when the key is absent or unreadable.
func Default(v any) GetOption {
	return getFunc(func(c *getConfig) { c.def = v; c.hasDefault = true })
}

// SkipCacheOption is both a SetOption and a GetOption.
type SkipCacheOption struct{}

func (SkipCacheOption) applySet(c *setConfig) { c.skipCache = true }
func (SkipCacheOption) applyGet(c *getConfig) { c.skipCache = true }

// SkipCache bypasses the local cache: writes leave it untouched and reads go
// straight to the backend without populating it.
func SkipCache() SkipCacheOption { return SkipCacheOption{} }

func setConfigOf(opts []SetOption) setConfig {
	var c setConfig
	for _, o := range opts {
		if o != nil {
			o.applySet(&c)
		}
	}
	return c
}

func getConfigOf(opts []GetOption) getConfig {
	var c getConfig
	for _, o := range opts {
		if o != nil {
			o.applyGet(&c)
		}
	}
	return c
}
