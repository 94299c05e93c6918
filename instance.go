package purestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/unkn0wn-root/purestore/backend"
	"github.com/unkn0wn-root/purestore/bus"
	c "github.com/unkn0wn-root/purestore/codec"
	"github.com/unkn0wn-root/purestore/internal/util"
	"github.com/unkn0wn-root/purestore/internal/wire"
	"github.com/unkn0wn-root/purestore/localcache"
)

var errNoCipher = errors.New("purestore: no cipher configured")

// Instance is one namespace of a Registry: a local cache in front of the
// shared backend, plus a change bus. Safe for concurrent use.
//
// Every operation exists twice. The plain methods take a context and may
// block on the backend; the *Sync methods take none and are only served by
// backends that implement backend.SyncCapable, failing with
// *SyncOperationError otherwise.
//
// Writes update the local cache before the backend confirms them and do not
// roll it back when the backend fails.
type Instance struct {
	reg              *Registry
	ns               string
	encryptByDefault bool
	bus              *bus.Bus

	mu    sync.RWMutex
	cache localcache.Engine
}

// call is how one public method reaches the backend. The sync family runs the
// same algorithm with sync set; it never coalesces reads.
type call struct {
	ctx  context.Context
	op   string
	sync bool
}

func newInstance(r *Registry, ns string, cfg instanceConfig) (*Instance, error) {
	in := &Instance{reg: r, ns: ns, encryptByDefault: cfg.encryptByDefault}
	in.bus = bus.New(in.onHandlerPanic)
	if cfg.noCache {
		in.cache = localcache.Null{}
		return in, nil
	}
	engine, err := in.newCache(cfg.cache)
	if err != nil {
		return nil, err
	}
	in.cache = engine
	return in, nil
}

func (in *Instance) newCache(cfg localcache.Config) (*localcache.Cache, error) {
	user := cfg.OnEvict
	cfg.OnEvict = func(key string, expired bool) {
		in.reg.hooks.CacheEvicted(in.ns, key, expired)
		if user != nil {
			user(key, expired)
		}
	}
	engine, err := localcache.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("purestore: %w", err)
	}
	return engine, nil
}

func (in *Instance) engine() localcache.Engine {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.cache
}

func (in *Instance) onHandlerPanic(ev bus.Event, recovered any) {
	in.reg.hooks.HandlerPanic(in.ns, ev.Key, recovered)
	in.reg.log.Error("change handler panicked", Fields{"ns": in.ns, "key": ev.Key, "event": string(ev.Type), "panic": recovered})
}

// Namespace returns the namespace this instance owns.
func (in *Instance) Namespace() string { return in.ns }

// EncryptByDefault reports whether writes are encrypted unless told otherwise.
func (in *Instance) EncryptByDefault() bool { return in.encryptByDefault }

// ConfigureCache replaces the local cache. Cached entries are dropped.
func (in *Instance) ConfigureCache(cfg localcache.Config) error {
	engine, err := in.newCache(cfg)
	if err != nil {
		return err
	}
	in.mu.Lock()
	in.cache = engine
	in.mu.Unlock()
	return nil
}

// DisableCache sends every later call to the backend.
func (in *Instance) DisableCache() {
	in.mu.Lock()
	in.cache = localcache.Null{}
	in.mu.Unlock()
}

// CacheStats returns the local cache counters.
func (in *Instance) CacheStats() localcache.Stats { return in.engine().Stats() }

func (in *Instance) ResetCacheStats() { in.engine().ResetStats() }

// OnChange subscribes h to every set, remove and clear of this namespace.
func (in *Instance) OnChange(h bus.Handler) (unsubscribe func()) { return in.bus.Subscribe(h) }

// OnKeyChange subscribes h to set and remove events of key.
func (in *Instance) OnKeyChange(key string, h bus.Handler) (unsubscribe func()) {
	return in.bus.SubscribeKey(key, h)
}

// ---- call plumbing ----

func (in *Instance) begin(ctx context.Context, op string, sync bool) (call, error) {
	if sync && !backend.SyncAvailable(in.reg.backend) {
		return call{}, &SyncOperationError{Op: op}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return call{ctx: ctx, op: op, sync: sync}, nil
}

func (in *Instance) fail(cl call, code Code, err error) error {
	in.reg.hooks.BackendError(in.ns, code, err)
	in.reg.log.Warn("backend call failed", Fields{"ns": in.ns, "op": cl.op, "code": string(code), "err": err})
	return &StorageError{Code: code, Op: cl.op, Namespace: in.ns, Err: err}
}

func (in *Instance) emit(t bus.Type, key string, v any) {
	in.bus.Emit(bus.Event{Type: t, Namespace: in.ns, Key: key, Value: v})
}

func validKey(key string) error {
	if p := util.KeyProblem(key); p != "" {
		return &KeyError{Key: key, Reason: p}
	}
	return nil
}

func (in *Instance) phys(key string) string { return util.PhysicalKey(in.ns, key) }

// ---- write side ----

// prepared is a validated, encoded write: the bytes for the backend and the
// normalized value for the cache.
type prepared struct {
	key     string
	logical any
	raw     []byte
}

func (in *Instance) prepare(key string, v any, cfg setConfig) (prepared, error) {
	if err := validKey(key); err != nil {
		return prepared{}, err
	}
	encrypted := in.encryptByDefault
	if cfg.encrypted != nil {
		encrypted = *cfg.encrypted
	}

	var eopts []c.EncodeOption
	if cfg.compress {
		eopts = append(eopts, c.WithCompression())
	}
	item, err := c.Encode(v, eopts...)
	if err != nil {
		return prepared{}, &SerializationError{Key: key, Err: err}
	}
	logical := c.Decode(item)

	if encrypted {
		if item, err = in.seal(key, item); err != nil {
			return prepared{}, err
		}
	}

	payload, err := in.reg.codec.Encode(item)
	if err != nil {
		return prepared{}, &SerializationError{Key: key, Err: err}
	}
	return prepared{key: key, logical: logical, raw: wire.EncodeRecord(in.reg.codecID, payload)}, nil
}

// seal replaces the payload with base64 ciphertext. Null items have no payload
// and stay as they are.
func (in *Instance) seal(key string, item c.Item) (c.Item, error) {
	if item.Value == nil {
		return item, nil
	}
	err := errNoCipher
	if in.reg.cipher != nil {
		var ct []byte
		if ct, err = in.reg.cipher.Encrypt([]byte(*item.Value)); err == nil {
			sealed := item.WithText(base64.StdEncoding.EncodeToString(ct))
			sealed.Encrypted = true
			return sealed, nil
		}
	}
	if in.reg.strict {
		return item, &EncryptionError{Key: key, Err: err}
	}
	in.reg.hooks.EncryptFallback(in.ns, key, err)
	in.reg.log.Warn("encryption failed; storing plaintext", Fields{"ns": in.ns, "key": key, "err": err})
	return item, nil
}

func (in *Instance) setItem(cl call, key string, v any, opts []SetOption) error {
	cfg := setConfigOf(opts)
	p, err := in.prepare(key, v, cfg)
	if err != nil {
		return err
	}
	if !cfg.skipCache {
		in.engine().Set(key, p.logical, cfg.ttl)
	}

	ok, err := in.reg.backend.Set(cl.ctx, in.phys(key), p.raw)
	if err == nil && !ok {
		err = backend.ErrRejected
	}
	if err != nil {
		return in.fail(cl, SetError, err)
	}
	in.emit(bus.Set, key, v)
	return nil
}

func (in *Instance) multiSet(cl call, entries map[string]any, opts []SetOption) error {
	if len(entries) == 0 {
		return nil
	}
	cfg := setConfigOf(opts)

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// everything is validated and encoded before the first side effect
	batch := make([]prepared, 0, len(keys))
	raw := make(map[string][]byte, len(keys))
	for _, k := range keys {
		p, err := in.prepare(k, entries[k], cfg)
		if err != nil {
			return err
		}
		batch = append(batch, p)
		raw[in.phys(k)] = p.raw
	}

	if !cfg.skipCache {
		cache := in.engine()
		for _, p := range batch {
			cache.Set(p.key, p.logical, cfg.ttl)
		}
	}

	ok, err := in.reg.backend.MultiSet(cl.ctx, raw)
	if err == nil && !ok {
		err = backend.ErrRejected
	}
	if err != nil {
		return in.fail(cl, MultiSetError, err)
	}
	for _, k := range keys {
		in.emit(bus.Set, k, entries[k])
	}
	return nil
}

// ---- read side ----

// open turns backend bytes into a value. Unreadable records become nil and
// are reported; only strict decryption failures are returned as errors.
func (in *Instance) open(key string, raw []byte) (any, error) {
	id, payload, err := wire.DecodeRecord(raw)
	if err != nil {
		reason := "corrupt_frame"
		if !wire.IsRecord(raw) {
			reason = "foreign_value"
		}
		in.decodeFailed(key, reason, err)
		return nil, nil
	}
	dec, ok := in.reg.decoders[id]
	if !ok {
		in.decodeFailed(key, "unknown_codec", fmt.Errorf("codec id %d", id))
		return nil, nil
	}
	item, err := dec.Decode(payload)
	if err != nil {
		in.decodeFailed(key, "record_decode", err)
		return nil, nil
	}
	if item.Encrypted {
		if item, err = in.unseal(item); err != nil {
			if in.reg.strict {
				return nil, &EncryptionError{Key: key, Err: err}
			}
			in.reg.hooks.DecryptFailed(in.ns, key, err)
			in.reg.log.Warn("decryption failed; reading as null", Fields{"ns": in.ns, "key": key, "err": err})
			return nil, nil
		}
	}
	v, err := c.DecodeResult(item)
	if err != nil {
		in.decodeFailed(key, "value_decode", err)
		return nil, nil
	}
	return v, nil
}

func (in *Instance) unseal(item c.Item) (c.Item, error) {
	if in.reg.cipher == nil {
		return item, errNoCipher
	}
	ct, err := base64.StdEncoding.DecodeString(item.Text())
	if err != nil {
		return item, fmt.Errorf("ciphertext encoding: %w", err)
	}
	pt, err := in.reg.cipher.Decrypt(ct)
	if err != nil {
		return item, err
	}
	plain := item.WithText(string(pt))
	plain.Encrypted = false
	return plain, nil
}

func (in *Instance) decodeFailed(key, reason string, err error) {
	in.reg.hooks.DecodeFailed(in.ns, key, reason)
	in.reg.log.Debug("unreadable record read as null", Fields{"ns": in.ns, "key": key, "reason": reason, "err": err})
}

type fetched struct {
	v     any
	found bool
}

func (in *Instance) fetch(cl call, key string) (fetched, error) {
	raw, ok, err := in.reg.backend.Get(cl.ctx, in.phys(key))
	if err != nil {
		return fetched{}, in.fail(cl, GetError, err)
	}
	if !ok {
		return fetched{}, nil
	}
	v, err := in.open(key, raw)
	if err != nil {
		return fetched{}, err
	}
	return fetched{v: v, found: true}, nil
}

func (in *Instance) getItem(cl call, key string, opts []GetOption) (any, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	cfg := getConfigOf(opts)
	if !cfg.skipCache {
		if v, ok := in.engine().Get(key); ok {
			return cfg.or(v), nil
		}
	}

	var (
		f   fetched
		err error
	)
	if cl.sync {
		f, err = in.fetch(cl, key)
	} else {
		// The shared fetch outlives any single caller; each caller stops
		// waiting on its own context.
		shared := cl
		shared.ctx = context.WithoutCancel(cl.ctx)
		ch := in.reg.reads.DoChan(in.phys(key), func() (any, error) {
			return in.fetch(shared, key)
		})
		select {
		case <-cl.ctx.Done():
			return nil, &StorageError{Code: GetError, Op: cl.op, Namespace: in.ns, Err: cl.ctx.Err()}
		case r := <-ch:
			f, _ = r.Val.(fetched)
			err = r.Err
		}
	}
	if err != nil {
		return nil, err
	}
	if f.found && f.v != nil && !cfg.skipCache {
		in.engine().Set(key, f.v, 0)
	}
	return cfg.or(f.v), nil
}

func (g getConfig) or(v any) any {
	if v == nil && g.hasDefault {
		return g.def
	}
	return v
}

func (in *Instance) multiGet(cl call, keys []string, opts []GetOption) (map[string]any, error) {
	for _, k := range keys {
		if err := validKey(k); err != nil {
			return nil, err
		}
	}
	cfg := getConfigOf(opts)
	out := make(map[string]any, len(keys))

	cache := in.engine()
	var misses []string
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		if !cfg.skipCache {
			if v, ok := cache.Get(k); ok {
				out[k] = cfg.or(v)
				continue
			}
		}
		misses = append(misses, k)
	}
	if len(misses) == 0 {
		return out, nil
	}

	raw, err := in.reg.backend.MultiGet(cl.ctx, util.PhysicalKeys(in.ns, misses))
	if err != nil {
		return nil, in.fail(cl, MultiGetError, err)
	}
	for _, k := range misses {
		var v any
		if b, ok := raw[in.phys(k)]; ok {
			if v, err = in.open(k, b); err != nil {
				return nil, err
			}
			if v != nil && !cfg.skipCache {
				cache.Set(k, v, 0)
			}
		}
		out[k] = cfg.or(v)
	}
	return out, nil
}

func (in *Instance) hasKey(cl call, key string, opts []GetOption) (bool, error) {
	if err := validKey(key); err != nil {
		return false, err
	}
	cfg := getConfigOf(opts)
	if !cfg.skipCache {
		if _, ok := in.engine().Get(key); ok {
			return true, nil
		}
	}
	ok, err := in.reg.backend.Has(cl.ctx, in.phys(key))
	if err != nil {
		return false, in.fail(cl, HasKeyError, err)
	}
	return ok, nil
}

func (in *Instance) allKeys(cl call) ([]string, error) {
	keys, err := in.reg.backend.Keys(cl.ctx)
	if err != nil {
		return nil, in.fail(cl, GetKeysError, err)
	}
	return util.LogicalKeys(in.ns, keys), nil
}

// ---- removal ----

func (in *Instance) removeItem(cl call, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	in.engine().Remove(key)

	ok, err := in.reg.backend.Remove(cl.ctx, in.phys(key))
	if err == nil && !ok {
		err = backend.ErrRejected
	}
	if err != nil {
		return in.fail(cl, RemoveError, err)
	}
	in.emit(bus.Remove, key, nil)
	return nil
}

func (in *Instance) multiRemove(cl call, keys []string) error {
	for _, k := range keys {
		if err := validKey(k); err != nil {
			return err
		}
	}
	if len(keys) == 0 {
		return nil
	}
	cache := in.engine()
	for _, k := range keys {
		cache.Remove(k)
	}

	ok, err := in.reg.backend.MultiRemove(cl.ctx, util.PhysicalKeys(in.ns, keys))
	if err == nil && !ok {
		err = backend.ErrRejected
	}
	if err != nil {
		return in.fail(cl, MultiRemoveError, err)
	}
	for _, k := range keys {
		in.emit(bus.Remove, k, nil)
	}
	return nil
}

func (in *Instance) clear(cl call) error {
	in.engine().Clear()

	all, err := in.reg.backend.Keys(cl.ctx)
	if err != nil {
		return in.fail(cl, ClearError, err)
	}
	keys := util.LogicalKeys(in.ns, all)
	if len(keys) > 0 {
		ok, err := in.reg.backend.MultiRemove(cl.ctx, util.PhysicalKeys(in.ns, keys))
		if err == nil && !ok {
			err = backend.ErrRejected
		}
		if err != nil {
			return in.fail(cl, ClearError, err)
		}
	}
	in.reg.log.Debug("namespace cleared", Fields{"ns": in.ns, "removed": len(keys)})
	in.emit(bus.Clear, "", nil)
	return nil
}
