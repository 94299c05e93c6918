package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{
		Backend:    "sqlite",
		SQLitePath: "purestore.db",
		RedisAddr:  "localhost:6379",
		Namespace:  "default",
		Codec:      "json",
		Log:        "slog",
		LogLevel:   "warn",
		Cipher:     "aes-gcm",
		Timeout:    10 * time.Second,
	}
	if cfg != want {
		t.Fatalf("cfg = %+v\nwant %+v", cfg, want)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"PURESTORE_BACKEND":   " Redis ",
		"PURESTORE_REDIS_DB":  "2",
		"PURESTORE_ENCRYPT":   "true",
		"PURESTORE_CIPHER":    "chacha20poly1305",
		"PURESTORE_CODEC":     "msgpack",
		"PURESTORE_TIMEOUT":   "250ms",
		"PURESTORE_NAMESPACE": "prefs",
		"PURESTORE_METRICS":   "true",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != "redis" || cfg.RedisDB != 2 || !cfg.Encrypt || cfg.Codec != "msgpack" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Timeout != 250*time.Millisecond || cfg.Namespace != "prefs" || !cfg.Metrics {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"backend", map[string]string{"PURESTORE_BACKEND": "etcd"}, "PURESTORE_BACKEND"},
		{"codec", map[string]string{"PURESTORE_CODEC": "xml"}, "PURESTORE_CODEC"},
		{"logger", map[string]string{"PURESTORE_LOG": "glog"}, "PURESTORE_LOG"},
		{"cipher", map[string]string{"PURESTORE_CIPHER": "rot13"}, "PURESTORE_CIPHER"},
		{"sqlite path", map[string]string{"PURESTORE_SQLITE_PATH": " "}, "PURESTORE_SQLITE_PATH"},
		{"timeout", map[string]string{"PURESTORE_TIMEOUT": "0s"}, "PURESTORE_TIMEOUT"},
		{"bad duration", map[string]string{"PURESTORE_TIMEOUT": "soon"}, "parse env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.env)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
