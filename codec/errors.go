package codec

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is wrapped by SerializationError for values outside the
// supported set (complex numbers, channels, funcs, unsafe pointers).
var ErrUnsupportedType = errors.New("codec: unsupported value type")

// SerializationError is returned by Encode for values that cannot be encoded.
type SerializationError struct {
	GoType string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("codec: cannot encode %s: %v", e.GoType, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// DecodeError describes why an Item could not be decoded. Decode swallows it
// and returns nil; DecodeResult surfaces it.
type DecodeError struct {
	Type   Type
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("codec: decode %s: %s: %v", e.Type, e.Reason, e.Err)
	}
	return fmt.Sprintf("codec: decode %s: %s", e.Type, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }
