package redis

import (
	"context"
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/purestore/backend"
)

var ErrNilClient = errors.New("redis backend: nil client")

// Redis stores records as plain strings. It is network bound and therefore
// does not implement backend.SyncCapable.
type Redis struct {
	rdb         goredis.UniversalClient
	prefix      string
	scanCount   int64
	closeClient bool
}

var _ backend.Backend = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	Prefix      string // prepended to every key; Keys only reports keys under it
	ScanCount   int64  // SCAN COUNT hint; default 256
	CloseClient bool   // set true only if this backend exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	sc := cfg.ScanCount
	if sc <= 0 {
		sc = 256
	}
	return &Redis{rdb: cfg.Client, prefix: cfg.Prefix, scanCount: sc, closeClient: cfg.CloseClient}, nil
}

func (p *Redis) k(key string) string { return p.prefix + key }

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, p.k(key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte) (bool, error) {
	if err := p.rdb.Set(ctx, p.k(key), value, 0).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Remove(ctx context.Context, key string) (bool, error) {
	if err := p.rdb.Del(ctx, p.k(key)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Has(ctx context.Context, key string) (bool, error) {
	n, err := p.rdb.Exists(ctx, p.k(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Keys walks the keyspace with SCAN; it never issues KEYS.
func (p *Redis) Keys(ctx context.Context) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	match := escapeGlob(p.prefix) + "*"
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, match, p.scanCount).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, p.prefix))
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

func (p *Redis) MultiGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = p.k(k)
	}
	vals, err := p.rdb.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		switch s := v.(type) {
		case string:
			out[keys[i]] = []byte(s)
		case []byte:
			out[keys[i]] = s
		}
	}
	return out, nil
}

// MultiSet pipelines one SET per entry inside MULTI/EXEC.
func (p *Redis) MultiSet(ctx context.Context, entries map[string][]byte) (bool, error) {
	if len(entries) == 0 {
		return true, nil
	}
	_, err := p.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, p.k(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) MultiRemove(ctx context.Context, keys []string) (bool, error) {
	if len(keys) == 0 {
		return true, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = p.k(k)
	}
	if err := p.rdb.Del(ctx, full...).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the underlying redis client only when this backend owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
