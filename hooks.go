package purestore

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The store calls them on hot paths, sometimes while a read is in flight.
type Hooks interface {
	// A stored record could not be decoded and was read as null.
	// reason ∈ {"foreign_value", "corrupt_frame", "unknown_codec", "record_decode", "value_decode"}
	// foreign_value: the bytes carry no record header; corrupt_frame: the
	// header is present but the frame is malformed.
	DecodeFailed(namespace, key, reason string)

	// Encryption was requested but the value was stored in plaintext
	// (no cipher configured, or the cipher failed).
	EncryptFallback(namespace, key string, err error)

	// An encrypted record could not be decrypted and was read as null.
	DecryptFailed(namespace, key string, err error)

	// A change handler panicked. Delivery to other handlers continued.
	HandlerPanic(namespace, key string, recovered any)

	// A backend call failed. op is the StorageError code.
	BackendError(namespace string, op Code, err error)

	// The local cache dropped an entry (capacity, or expiry seen on read).
	CacheEvicted(namespace, key string, expired bool)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) DecodeFailed(string, string, string)   {}
func (NopHooks) EncryptFallback(string, string, error) {}
func (NopHooks) DecryptFailed(string, string, error)   {}
func (NopHooks) HandlerPanic(string, string, any)      {}
func (NopHooks) BackendError(string, Code, error)      {}
func (NopHooks) CacheEvicted(string, string, bool)     {}

// MultiHooks fans every callback out to each member, in order.
type MultiHooks []Hooks

var _ Hooks = MultiHooks(nil)

func (m MultiHooks) DecodeFailed(ns, key, reason string) {
	for _, h := range m {
		h.DecodeFailed(ns, key, reason)
	}
}

func (m MultiHooks) EncryptFallback(ns, key string, err error) {
	for _, h := range m {
		h.EncryptFallback(ns, key, err)
	}
}

func (m MultiHooks) DecryptFailed(ns, key string, err error) {
	for _, h := range m {
		h.DecryptFailed(ns, key, err)
	}
}

func (m MultiHooks) HandlerPanic(ns, key string, recovered any) {
	for _, h := range m {
		h.HandlerPanic(ns, key, recovered)
	}
}

func (m MultiHooks) BackendError(ns string, op Code, err error) {
	for _, h := range m {
		h.BackendError(ns, op, err)
	}
}

func (m MultiHooks) CacheEvicted(ns, key string, expired bool) {
	for _, h := range m {
		h.CacheEvicted(ns, key, expired)
	}
}
