// Package sloghooks reports purestore hook events through log/slog.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/purestore"
	"github.com/unkn0wn-root/purestore/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	DecodeFailedEvery uint64
	EvictedEvery      uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	decodeCtr  atomic.Uint64
	evictedCtr atomic.Uint64
}

var _ purestore.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.Redact(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) DecodeFailed(ns, key, reason string) {
	if h.l == nil || !sample(h.opts.DecodeFailedEvery, &h.decodeCtr) {
		return
	}
	h.l.Warn("purestore.decode_failed",
		"ns", ns,
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) EncryptFallback(ns, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("purestore.encrypt_fallback",
		"ns", ns,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) DecryptFailed(ns, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("purestore.decrypt_failed",
		"ns", ns,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) HandlerPanic(ns, key string, recovered any) {
	if h.l == nil {
		return
	}
	h.l.Error("purestore.handler_panic",
		"ns", ns,
		"key", h.redact(key),
		"panic", recovered)
}

func (h *Hooks) BackendError(ns string, op purestore.Code, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("purestore.backend_error",
		"ns", ns,
		"op", string(op),
		"err", err)
}

func (h *Hooks) CacheEvicted(ns, key string, expired bool) {
	if h.l == nil || !sample(h.opts.EvictedEvery, &h.evictedCtr) {
		return
	}
	h.l.Debug("purestore.cache_evicted",
		"ns", ns,
		"key", h.redact(key),
		"expired", expired)
}
