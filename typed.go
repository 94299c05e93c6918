package purestore

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetAs reads key and converts the stored value to T. ok is false when the
// key is absent or reads as null.
//
// Values that already have type T are returned as is. Anything else goes
// through encoding/json, which covers numbers of another width and objects
// read back into structs.
func GetAs[T any](ctx context.Context, in *Instance, key string, opts ...GetOption) (v T, ok bool, err error) {
	raw, err := in.GetItem(ctx, key, opts...)
	if err != nil || raw == nil {
		return v, false, err
	}
	if t, isT := raw.(T); isT {
		return t, true, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return v, false, fmt.Errorf("purestore: convert %q from %T: %w", key, raw, err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, false, fmt.Errorf("purestore: convert %q from %T to %T: %w", key, raw, v, err)
	}
	return v, true, nil
}
