package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/purestore"
)

func newTextLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestKeysAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	h := New(newTextLogger(&buf), Options{})

	h.DecryptFailed("vault", "api-token", errors.New("auth failed"))
	out := buf.String()
	if strings.Contains(out, "api-token") {
		t.Fatalf("raw key logged: %s", out)
	}
	if !strings.Contains(out, "purestore.decrypt_failed") || !strings.Contains(out, "ns=vault") {
		t.Fatalf("output = %s", out)
	}
}

func TestCustomRedact(t *testing.T) {
	var buf bytes.Buffer
	h := New(newTextLogger(&buf), Options{Redact: func(string) string { return "xx" }})
	h.EncryptFallback("ns", "k", errors.New("no cipher"))
	if !strings.Contains(buf.String(), "key=xx") {
		t.Fatalf("output = %s", buf.String())
	}
}

func TestSampling(t *testing.T) {
	var buf bytes.Buffer
	h := New(newTextLogger(&buf), Options{DecodeFailedEvery: 3})
	for i := 0; i < 9; i++ {
		h.DecodeFailed("ns", "k", "corrupt_frame")
	}
	if n := strings.Count(buf.String(), "purestore.decode_failed"); n != 3 {
		t.Fatalf("logged %d times, want 3", n)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.DecodeFailed("ns", "k", "r")
	h.EncryptFallback("ns", "k", nil)
	h.DecryptFailed("ns", "k", nil)
	h.HandlerPanic("ns", "k", "boom")
	h.BackendError("ns", purestore.SetError, nil)
	h.CacheEvicted("ns", "k", true)
}
