// Package purestore is a namespaced key-value store: a bounded in-memory cache
// in front of a slower durable backend, with a type-preserving value codec,
// optional per-value encryption and change notifications.
//
// Components:
//   - Backend: byte store (memory, SQLite, Redis, BigCache, Ristretto).
//   - codec: value <-> Item (type-tagged) and Item <-> record bytes
//     (JSON by default; CBOR, Msgpack, Protobuf).
//   - localcache: per-namespace insertion-order cache with TTL.
//   - crypt: AEAD ciphers keyed by a secret persisted in the backend.
//   - bus: global and per-key change subscriptions.
//
// Keys:
//
//	<namespace>:<key>  - one record per logical key
//	purestore.secret   - encryption secret (outside every namespace)
//
// Usage:
//
//	reg, _ := purestore.New(purestore.Options{Backend: memory.New()})
//	prefs, _ := reg.Instance("prefs")
//	_ = prefs.SetItem(ctx, "theme", "dark")
//	v, _ := prefs.GetItem(ctx, "theme") // "dark"
//
// Writes update the local cache first and leave it in place if the backend
// write fails.
package purestore
