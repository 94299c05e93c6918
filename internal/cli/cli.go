// Package cli implements the purestore command line tool.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/purestore"
	"github.com/unkn0wn-root/purestore/backend"
	bcbackend "github.com/unkn0wn-root/purestore/backend/bigcache"
	"github.com/unkn0wn-root/purestore/backend/memory"
	redisbackend "github.com/unkn0wn-root/purestore/backend/redis"
	rbackend "github.com/unkn0wn-root/purestore/backend/ristretto"
	"github.com/unkn0wn-root/purestore/backend/sqlite"
	c "github.com/unkn0wn-root/purestore/codec"
	"github.com/unkn0wn-root/purestore/crypt"
	asynchook "github.com/unkn0wn-root/purestore/hooks/async"
	"github.com/unkn0wn-root/purestore/hooks/otelhooks"
	"github.com/unkn0wn-root/purestore/internal/config"
	logruslog "github.com/unkn0wn-root/purestore/log/logrus"
	sloglog "github.com/unkn0wn-root/purestore/log/slog"
	zaplog "github.com/unkn0wn-root/purestore/log/zap"
	"github.com/unkn0wn-root/purestore/sloghooks"
)

const usage = `usage: purestore [flags] <command> [args]

commands:
  get <key>            print the value as JSON (null when absent)
  set <key> <value>    store value; JSON is parsed unless -raw is given
  rm <key>...          remove one or more keys
  has <key>            print true or false
  keys                 list the namespace's keys
  clear                remove every key of the namespace
  stats                print namespace and backend details as JSON

flags:
`

// ErrUsage is returned for unknown commands and wrong argument counts.
var ErrUsage = errors.New("invalid usage")

// Flags are the command line overrides of config.Config plus per-command
// switches.
type Flags struct {
	config.Config
	Raw      bool
	Compress bool
	Args     []string
}

// ParseFlags parses args over the environment configuration cfg.
func ParseFlags(fs *flag.FlagSet, cfg config.Config, args []string) (Flags, error) {
	f := Flags{Config: cfg}
	fs.StringVar(&f.Namespace, "ns", cfg.Namespace, "namespace")
	fs.StringVar(&f.Backend, "backend", cfg.Backend, "backend: memory, sqlite, redis, bigcache, ristretto")
	fs.StringVar(&f.SQLitePath, "sqlite", cfg.SQLitePath, "sqlite database path")
	fs.StringVar(&f.RedisAddr, "redis", cfg.RedisAddr, "redis address")
	fs.StringVar(&f.Codec, "codec", cfg.Codec, "record codec for writes: json, cbor, msgpack, protobuf")
	fs.BoolVar(&f.Encrypt, "encrypt", cfg.Encrypt, "encrypt written values")
	fs.BoolVar(&f.Metrics, "metrics", cfg.Metrics, "count hook events on the global OpenTelemetry meter provider")
	fs.BoolVar(&f.Raw, "raw", false, "store the value of set as a string")
	fs.BoolVar(&f.Compress, "compress", false, "run-length compress binary values")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	if err := f.Config.Validate(); err != nil {
		return Flags{}, err
	}
	f.Args = fs.Args()
	return f, nil
}

// Main parses args and runs the command. Usage goes to errOut.
func Main(ctx context.Context, cfg config.Config, args []string, out, errOut io.Writer) error {
	fs := flag.NewFlagSet("purestore", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprint(errOut, usage)
		fs.PrintDefaults()
	}
	f, err := ParseFlags(fs, cfg, args)
	if err != nil {
		return err
	}
	err = Run(ctx, f, out, errOut)
	if errors.Is(err, ErrUsage) {
		fs.Usage()
	}
	return err
}

// Run opens the configured store, runs one command and closes the store.
func Run(ctx context.Context, f Flags, out, errOut io.Writer) (err error) {
	if len(f.Args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}
	cmd, args := f.Args[0], f.Args[1:]
	if err := checkArgs(cmd, args); err != nil {
		return err
	}

	b, err := openBackend(ctx, f.Config)
	if err != nil {
		return err
	}
	log, slogger, flush, err := newLogger(f.Config, errOut)
	if err != nil {
		_ = b.Close(ctx)
		return err
	}
	defer flush()

	opts := purestore.Options{
		Backend:          b,
		RecordCodec:      recordCodec(f.Codec),
		Logger:           log,
		DefaultNamespace: f.Namespace,
		EncryptByDefault: f.Encrypt,
		StrictEncryption: f.Strict,
	}
	var hooks purestore.MultiHooks
	if slogger != nil {
		h := asynchook.New(sloghooks.New(slogger, sloghooks.Options{}), 1, 256)
		defer h.Close()
		hooks = append(hooks, h)
	}
	if f.Metrics {
		h, err := otelhooks.FromProvider(otel.GetMeterProvider())
		if err != nil {
			_ = b.Close(ctx)
			return fmt.Errorf("metrics: %w", err)
		}
		hooks = append(hooks, h)
	}
	if len(hooks) > 0 {
		opts.Hooks = hooks
	}
	if opts.Cipher, err = loadCipher(ctx, b, f.Config); err != nil {
		_ = b.Close(ctx)
		return err
	}

	reg, err := purestore.New(opts)
	if err != nil {
		_ = b.Close(ctx)
		return err
	}
	defer func() {
		if cerr := reg.Close(context.WithoutCancel(ctx)); err == nil {
			err = cerr
		}
	}()
	return exec(ctx, reg.Default(), b, f, cmd, args, out)
}

func checkArgs(cmd string, args []string) error {
	want := map[string][2]int{ // min, max; -1 = unbounded
		"get":   {1, 1},
		"set":   {2, 2},
		"rm":    {1, -1},
		"has":   {1, 1},
		"keys":  {0, 0},
		"clear": {0, 0},
		"stats": {0, 0},
	}
	n, ok := want[cmd]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
	if len(args) < n[0] || (n[1] >= 0 && len(args) > n[1]) {
		return fmt.Errorf("%w: wrong number of arguments for %s", ErrUsage, cmd)
	}
	return nil
}

func exec(ctx context.Context, in *purestore.Instance, b backend.Backend, f Flags, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "get":
		v, err := in.GetItem(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out, v)

	case "set":
		var opts []purestore.SetOption
		if f.Compress {
			opts = append(opts, purestore.Compress())
		}
		return in.SetItem(ctx, args[0], parseValue(args[1], f.Raw), opts...)

	case "rm":
		if len(args) == 1 {
			return in.RemoveItem(ctx, args[0])
		}
		return in.MultiRemove(ctx, args)

	case "has":
		ok, err := in.HasKey(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, ok)
		return err

	case "keys":
		keys, err := in.AllKeys(ctx)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if _, err := fmt.Fprintln(out, k); err != nil {
				return err
			}
		}
		return nil

	case "clear":
		return in.Clear(ctx)

	case "stats":
		keys, err := in.AllKeys(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]any{
			"namespace":  in.Namespace(),
			"backend":    f.Backend,
			"codec":      f.Codec,
			"keys":       len(keys),
			"sync":       backend.SyncAvailable(b),
			"encryption": f.Encrypt,
		})
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
}

// parseValue reads s as JSON, falling back to the string itself.
func parseValue(s string, raw bool) any {
	if raw {
		return s
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	return v
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func openBackend(ctx context.Context, cfg config.Config) (backend.Backend, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath)
	case "bigcache":
		return bcbackend.New(bcbackend.Config{})
	case "ristretto":
		return rbackend.New(rbackend.Config{})
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return redisbackend.New(redisbackend.Config{Client: rdb, Prefix: cfg.RedisPrefix, CloseClient: true})
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func recordCodec(name string) c.Codec[c.Item] {
	switch name {
	case "cbor":
		return c.MustCBOR[c.Item](true)
	case "msgpack":
		return c.Msgpack[c.Item]{}
	case "protobuf":
		return c.Protobuf{}
	}
	return c.JSON[c.Item]{}
}

// loadCipher builds a cipher when writes are encrypted or a secret already
// exists, so that encrypted values stay readable without -encrypt.
func loadCipher(ctx context.Context, b backend.Backend, cfg config.Config) (crypt.Cipher, error) {
	if !cfg.Encrypt {
		ok, err := b.Has(ctx, crypt.DefaultSecretKey)
		if err != nil {
			return nil, fmt.Errorf("check secret: %w", err)
		}
		if !ok {
			return nil, nil
		}
	}
	ci, err := crypt.FromBackend(ctx, b, crypt.Kind(cfg.Cipher))
	if err != nil {
		return nil, fmt.Errorf("load cipher: %w", err)
	}
	return ci, nil
}

// newLogger returns the configured purestore.Logger. slogger is non-nil for
// the slog logger and feeds the hook reporter.
func newLogger(cfg config.Config, w io.Writer) (l purestore.Logger, slogger *slog.Logger, flush func(), err error) {
	flush = func() {}
	switch cfg.Log {
	case "none":
		return purestore.NopLogger{}, nil, flush, nil
	case "zap":
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, nil, nil, err
		}
		core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(w), lvl)
		zl := zap.New(core)
		return zaplog.New(zl), nil, func() { _ = zl.Sync() }, nil
	case "logrus":
		lvl, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, nil, err
		}
		ll := logrus.New()
		ll.SetOutput(w)
		ll.SetLevel(lvl)
		return logruslog.New(ll), nil, flush, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, nil, nil, err
	}
	slogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	return sloglog.New(slogger), slogger, flush, nil
}
