package purestore

import (
	"errors"
	"fmt"
)

// ErrSyncUnavailable is wrapped by every SyncOperationError.
var ErrSyncUnavailable = errors.New("purestore: synchronous backend access is not available")

// KeyError reports a malformed key or namespace. It is returned before any I/O.
type KeyError struct {
	Key    string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("purestore: invalid key %q: %s", e.Key, e.Reason)
}

// SerializationError reports a value the codec cannot encode. Err is usually a
// *codec.SerializationError.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("purestore: serialize %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// EncryptionError is returned only with Options.StrictEncryption; otherwise
// encryption failures degrade to plaintext on write and nil on read.
type EncryptionError struct {
	Key string
	Err error
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("purestore: encryption %q: %v", e.Key, e.Err)
}

func (e *EncryptionError) Unwrap() error { return e.Err }

// SyncOperationError is returned by a *Sync method when the backend cannot
// serve synchronous calls. Nothing was read or written.
type SyncOperationError struct {
	Op string
}

func (e *SyncOperationError) Error() string {
	return fmt.Sprintf("purestore: %s: synchronous call unavailable on this backend", e.Op)
}

func (e *SyncOperationError) Unwrap() error { return ErrSyncUnavailable }

// Code classifies a StorageError by the operation that failed.
type Code string

const (
	SetError         Code = "SET_ERROR"
	GetError         Code = "GET_ERROR"
	RemoveError      Code = "REMOVE_ERROR"
	MultiSetError    Code = "MULTI_SET_ERROR"
	MultiGetError    Code = "MULTI_GET_ERROR"
	MultiRemoveError Code = "MULTI_REMOVE_ERROR"
	ClearError       Code = "CLEAR_ERROR"
	GetKeysError     Code = "GET_KEYS_ERROR"
	HasKeyError      Code = "HAS_KEY_ERROR"
)

// StorageError wraps a backend failure. Backend errors are never retried.
type StorageError struct {
	Code      Code
	Op        string
	Namespace string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("purestore: %s %s [%s]: %v", e.Code, e.Op, e.Namespace, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches another *StorageError by Code, so callers can write
// errors.Is(err, &StorageError{Code: SetError}).
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	return ok && t.Code == e.Code
}
