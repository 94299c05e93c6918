// Package backend defines the durable key-value store that purestore
// delegates persistence to.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). If a store performs internal transforms
// (e.g., compression), they MUST be fully reversed so that the bytes returned by
// Get are identical to the bytes provided to Set.
//
// Keys of the form "<namespace>:<key>" are owned by purestore. Foreign writes
// under these prefixes fail strict wire-format validation and read as null.
package backend

import (
	"context"
	"errors"
)

// ErrRejected is returned by purestore when a backend answers ok=false to a
// write (for example an admission-controlled cache under pressure).
var ErrRejected = errors.New("backend: write rejected")

// Backend is a byte store. Must be safe for concurrent use.
type Backend interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. Returns ok=false when the store refused the write.
	Set(ctx context.Context, key string, value []byte) (ok bool, err error)

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) (ok bool, err error)

	// Keys lists every physical key.
	Keys(ctx context.Context) ([]string, error)

	Has(ctx context.Context, key string) (bool, error)

	// MultiGet returns the present keys only; absent keys are left out.
	MultiGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// MultiSet writes all entries in one round trip; atomicity is whatever the
	// store offers.
	MultiSet(ctx context.Context, entries map[string][]byte) (ok bool, err error)

	MultiRemove(ctx context.Context, keys []string) (ok bool, err error)

	// Close releases resources.
	Close(ctx context.Context) error
}

// SyncCapable is implemented by backends that can serve purestore's
// synchronous call family: local stores whose calls complete without waiting
// on the network. Backends that do not implement it are async-only.
type SyncCapable interface {
	SyncAvailable() bool
}

// SyncAvailable reports whether b may be used by the synchronous family.
func SyncAvailable(b Backend) bool {
	s, ok := b.(SyncCapable)
	return ok && s.SyncAvailable()
}
