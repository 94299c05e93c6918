// Package config loads the purestore CLI configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config selects and tunes the backend, logging, codec and encryption of the
// CLI. Flags given on the command line override these values.
type Config struct {
	Backend     string        `env:"PURESTORE_BACKEND"      envDefault:"sqlite"`
	SQLitePath  string        `env:"PURESTORE_SQLITE_PATH"  envDefault:"purestore.db"`
	RedisAddr   string        `env:"PURESTORE_REDIS_ADDR"   envDefault:"localhost:6379"`
	RedisDB     int           `env:"PURESTORE_REDIS_DB"     envDefault:"0"`
	RedisPrefix string        `env:"PURESTORE_REDIS_PREFIX"`
	Namespace   string        `env:"PURESTORE_NAMESPACE"    envDefault:"default"`
	Codec       string        `env:"PURESTORE_CODEC"        envDefault:"json"`
	Log         string        `env:"PURESTORE_LOG"          envDefault:"slog"`
	LogLevel    string        `env:"PURESTORE_LOG_LEVEL"    envDefault:"warn"`
	Encrypt     bool          `env:"PURESTORE_ENCRYPT"`
	Cipher      string        `env:"PURESTORE_CIPHER"       envDefault:"aes-gcm"`
	Strict      bool          `env:"PURESTORE_STRICT_ENCRYPTION"`
	Timeout     time.Duration `env:"PURESTORE_TIMEOUT"      envDefault:"10s"`
	Metrics     bool          `env:"PURESTORE_METRICS"`
}

var (
	backends = []string{"memory", "sqlite", "redis", "bigcache", "ristretto"}
	codecs   = []string{"json", "cbor", "msgpack", "protobuf"}
	loggers  = []string{"slog", "zap", "logrus", "none"}
	levels   = []string{"debug", "info", "warn", "error"}
	ciphers  = []string{"aes-gcm", "chacha20poly1305"}
)

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom is Load over an explicit environment (tests).
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate normalizes enum fields to lower case and checks them.
func (c *Config) Validate() error {
	for _, f := range []struct {
		name string
		val  *string
		ok   []string
	}{
		{"PURESTORE_BACKEND", &c.Backend, backends},
		{"PURESTORE_CODEC", &c.Codec, codecs},
		{"PURESTORE_LOG", &c.Log, loggers},
		{"PURESTORE_LOG_LEVEL", &c.LogLevel, levels},
		{"PURESTORE_CIPHER", &c.Cipher, ciphers},
	} {
		*f.val = strings.ToLower(strings.TrimSpace(*f.val))
		if !contains(f.ok, *f.val) {
			return fmt.Errorf("%s: %q is not one of %s", f.name, *f.val, strings.Join(f.ok, ", "))
		}
	}
	if c.Backend == "sqlite" && strings.TrimSpace(c.SQLitePath) == "" {
		return fmt.Errorf("PURESTORE_SQLITE_PATH is required for the sqlite backend")
	}
	if c.Backend == "redis" && strings.TrimSpace(c.RedisAddr) == "" {
		return fmt.Errorf("PURESTORE_REDIS_ADDR is required for the redis backend")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("PURESTORE_TIMEOUT must be positive")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
