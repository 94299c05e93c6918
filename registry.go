package purestore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/purestore/backend"
	c "github.com/unkn0wn-root/purestore/codec"
	"github.com/unkn0wn-root/purestore/crypt"
	"github.com/unkn0wn-root/purestore/internal/util"
	"github.com/unkn0wn-root/purestore/localcache"
)

// DefaultNamespace is used when Options.DefaultNamespace is empty.
const DefaultNamespace = "default"

// Registry owns every namespace Instance that shares one backend. Build one
// at startup and pass it to whatever needs storage.
type Registry struct {
	backend  backend.Backend
	codec    c.Codec[c.Item]
	codecID  byte
	decoders map[byte]c.Codec[c.Item]
	cipher   crypt.Cipher
	log      Logger
	hooks    Hooks
	cache    localcache.Config
	noCache  bool
	strict   bool

	// coalesces concurrent async reads of one physical key
	reads singleflight.Group

	mu        sync.Mutex
	instances map[string]*Instance
	def       *Instance

	closeOnce sync.Once
	closeErr  error
}

// New builds a Registry and its default instance.
func New(opts Options) (*Registry, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("purestore: backend is required")
	}

	r := &Registry{
		backend:   opts.Backend,
		cipher:    opts.Cipher,
		noCache:   opts.DisableCache,
		strict:    opts.StrictEncryption,
		instances: make(map[string]*Instance),
	}

	// defaults
	r.log = coalesce[Logger](opts.Logger, NopLogger{})
	r.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	r.codec = coalesce[c.Codec[c.Item]](opts.RecordCodec, c.JSON[c.Item]{})
	r.codecID = c.IDOf(r.codec)

	r.cache = localcache.DefaultConfig()
	if opts.Cache != nil {
		r.cache = *opts.Cache
	}
	if err := r.cache.Validate(); err != nil {
		return nil, fmt.Errorf("purestore: %w", err)
	}

	// Records carry the ID of the codec that wrote them, so every built-in
	// codec stays readable after a codec switch.
	r.decoders = map[byte]c.Codec[c.Item]{
		c.IDJSON:     c.JSON[c.Item]{},
		c.IDCBOR:     c.MustCBOR[c.Item](false),
		c.IDMsgpack:  c.Msgpack[c.Item]{},
		c.IDProtobuf: c.Protobuf{},
	}
	r.decoders[r.codecID] = r.codec
	if opts.MaxRecordSize > 0 {
		for id, dec := range r.decoders {
			r.decoders[id] = c.LimitCodec[c.Item]{Inner: dec, MaxDecode: opts.MaxRecordSize}
		}
	}

	ns := coalesce(opts.DefaultNamespace, DefaultNamespace)
	def, err := r.Instance(ns, WithEncryptByDefault(opts.EncryptByDefault))
	if err != nil {
		return nil, err
	}
	r.def = def

	r.log.Debug("registry ready", Fields{
		"default_ns": ns,
		"codec":      r.codecID,
		"sync":       backend.SyncAvailable(r.backend),
		"encryption": r.cipher != nil,
	})
	return r, nil
}

// Default returns the default namespace's instance.
func (r *Registry) Default() *Instance { return r.def }

// Instance returns the store for namespace, creating it on first use.
// Options only apply at creation; later calls get the existing instance as is.
func (r *Registry) Instance(namespace string, opts ...InstanceOption) (*Instance, error) {
	if p := util.NamespaceProblem(namespace); p != "" {
		return nil, &KeyError{Key: namespace, Reason: p}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if in, ok := r.instances[namespace]; ok {
		return in, nil
	}

	cfg := instanceConfig{cache: r.cache, noCache: r.noCache}
	for _, o := range opts {
		o(&cfg)
	}
	in, err := newInstance(r, namespace, cfg)
	if err != nil {
		return nil, err
	}
	r.instances[namespace] = in
	r.log.Debug("namespace created", Fields{"ns": namespace, "cache": !cfg.noCache, "encrypt": cfg.encryptByDefault})
	return in, nil
}

// Namespaces lists the namespaces created so far, sorted.
func (r *Registry) Namespaces() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.instances))
	for ns := range r.instances {
		out = append(out, ns)
	}
	r.mu.Unlock()
	sort.Strings(out)
	return out
}

// Close closes the backend once. Instances must not be used afterwards.
func (r *Registry) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.closeErr = r.backend.Close(ctx)
	})
	return r.closeErr
}
