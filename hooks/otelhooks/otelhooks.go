// Package otelhooks counts purestore hook events with OpenTelemetry metrics.
//
// Keys are never recorded as attributes; only the namespace and a
// low-cardinality detail (reason, op, expired) are.
package otelhooks

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/purestore"
)

// Meter name used when the caller passes a MeterProvider.
const ScopeName = "github.com/unkn0wn-root/purestore"

// Hooks implements purestore.Hooks. Safe for concurrent use.
type Hooks struct {
	decodeFailed    metric.Int64Counter
	encryptFallback metric.Int64Counter
	decryptFailed   metric.Int64Counter
	handlerPanic    metric.Int64Counter
	backendError    metric.Int64Counter
	cacheEvicted    metric.Int64Counter
}

var _ purestore.Hooks = (*Hooks)(nil)

// FromProvider creates the counters on mp.Meter(ScopeName).
func FromProvider(mp metric.MeterProvider) (*Hooks, error) {
	return New(mp.Meter(ScopeName))
}

// New creates the counters on meter.
func New(meter metric.Meter) (*Hooks, error) {
	var (
		h   Hooks
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&h.decodeFailed, "purestore.record.decode_failures", "Stored records read as null because they could not be decoded"},
		{&h.encryptFallback, "purestore.encrypt.fallbacks", "Values stored in plaintext although encryption was requested"},
		{&h.decryptFailed, "purestore.decrypt.failures", "Encrypted records read as null because decryption failed"},
		{&h.handlerPanic, "purestore.handler.panics", "Change handlers that panicked"},
		{&h.backendError, "purestore.backend.errors", "Failed backend calls"},
		{&h.cacheEvicted, "purestore.cache.evictions", "Entries dropped from the local cache"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			return nil, err
		}
	}
	return &h, nil
}

func add(c metric.Int64Counter, attrs ...attribute.KeyValue) {
	c.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

func (h *Hooks) DecodeFailed(ns, _, reason string) {
	add(h.decodeFailed, attribute.String("purestore.namespace", ns), attribute.String("purestore.reason", reason))
}

func (h *Hooks) EncryptFallback(ns, _ string, _ error) {
	add(h.encryptFallback, attribute.String("purestore.namespace", ns))
}

func (h *Hooks) DecryptFailed(ns, _ string, _ error) {
	add(h.decryptFailed, attribute.String("purestore.namespace", ns))
}

func (h *Hooks) HandlerPanic(ns, _ string, _ any) {
	add(h.handlerPanic, attribute.String("purestore.namespace", ns))
}

func (h *Hooks) BackendError(ns string, op purestore.Code, _ error) {
	add(h.backendError, attribute.String("purestore.namespace", ns), attribute.String("purestore.op", string(op)))
}

func (h *Hooks) CacheEvicted(ns, _ string, expired bool) {
	add(h.cacheEvicted, attribute.String("purestore.namespace", ns), attribute.Bool("purestore.expired", expired))
}
