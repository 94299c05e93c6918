package purestore

import "context"

// SetItem encodes v and writes it under key.
func (in *Instance) SetItem(ctx context.Context, key string, v any, opts ...SetOption) error {
	cl, err := in.begin(ctx, "SetItem", false)
	if err != nil {
		return err
	}
	return in.setItem(cl, key, v, opts)
}

// GetItem returns the value under key, or nil (or the Default option) when
// the key is absent or its record is unreadable.
func (in *Instance) GetItem(ctx context.Context, key string, opts ...GetOption) (any, error) {
	cl, err := in.begin(ctx, "GetItem", false)
	if err != nil {
		return nil, err
	}
	return in.getItem(cl, key, opts)
}

func (in *Instance) RemoveItem(ctx context.Context, key string) error {
	cl, err := in.begin(ctx, "RemoveItem", false)
	if err != nil {
		return err
	}
	return in.removeItem(cl, key)
}

// MultiSet writes all entries with one backend call. Every entry is validated
// and encoded first; any failure aborts before I/O.
func (in *Instance) MultiSet(ctx context.Context, entries map[string]any, opts ...SetOption) error {
	cl, err := in.begin(ctx, "MultiSet", false)
	if err != nil {
		return err
	}
	return in.multiSet(cl, entries, opts)
}

// MultiGet reads keys with at most one backend call. The result has an entry
// for every requested key; absent keys map to nil.
func (in *Instance) MultiGet(ctx context.Context, keys []string, opts ...GetOption) (map[string]any, error) {
	cl, err := in.begin(ctx, "MultiGet", false)
	if err != nil {
		return nil, err
	}
	return in.multiGet(cl, keys, opts)
}

func (in *Instance) MultiRemove(ctx context.Context, keys []string) error {
	cl, err := in.begin(ctx, "MultiRemove", false)
	if err != nil {
		return err
	}
	return in.multiRemove(cl, keys)
}

// Clear removes every key of the namespace and emits a single clear event.
func (in *Instance) Clear(ctx context.Context) error {
	cl, err := in.begin(ctx, "Clear", false)
	if err != nil {
		return err
	}
	return in.clear(cl)
}

// AllKeys lists the namespace's keys, sorted.
func (in *Instance) AllKeys(ctx context.Context) ([]string, error) {
	cl, err := in.begin(ctx, "AllKeys", false)
	if err != nil {
		return nil, err
	}
	return in.allKeys(cl)
}

// HasKey reports whether key exists. A cache hit answers without the backend.
func (in *Instance) HasKey(ctx context.Context, key string, opts ...GetOption) (bool, error) {
	cl, err := in.begin(ctx, "HasKey", false)
	if err != nil {
		return false, err
	}
	return in.hasKey(cl, key, opts)
}

// Sync family. Same semantics as above; see Instance.

func (in *Instance) SetItemSync(key string, v any, opts ...SetOption) error {
	cl, err := in.begin(context.Background(), "SetItemSync", true)
	if err != nil {
		return err
	}
	return in.setItem(cl, key, v, opts)
}

func (in *Instance) GetItemSync(key string, opts ...GetOption) (any, error) {
	cl, err := in.begin(context.Background(), "GetItemSync", true)
	if err != nil {
		return nil, err
	}
	return in.getItem(cl, key, opts)
}

func (in *Instance) RemoveItemSync(key string) error {
	cl, err := in.begin(context.Background(), "RemoveItemSync", true)
	if err != nil {
		return err
	}
	return in.removeItem(cl, key)
}

func (in *Instance) MultiSetSync(entries map[string]any, opts ...SetOption) error {
	cl, err := in.begin(context.Background(), "MultiSetSync", true)
	if err != nil {
		return err
	}
	return in.multiSet(cl, entries, opts)
}

func (in *Instance) MultiGetSync(keys []string, opts ...GetOption) (map[string]any, error) {
	cl, err := in.begin(context.Background(), "MultiGetSync", true)
	if err != nil {
		return nil, err
	}
	return in.multiGet(cl, keys, opts)
}

func (in *Instance) MultiRemoveSync(keys []string) error {
	cl, err := in.begin(context.Background(), "MultiRemoveSync", true)
	if err != nil {
		return err
	}
	return in.multiRemove(cl, keys)
}

func (in *Instance) ClearSync() error {
	cl, err := in.begin(context.Background(), "ClearSync", true)
	if err != nil {
		return err
	}
	return in.clear(cl)
}

func (in *Instance) AllKeysSync() ([]string, error) {
	cl, err := in.begin(context.Background(), "AllKeysSync", true)
	if err != nil {
		return nil, err
	}
	return in.allKeys(cl)
}

func (in *Instance) HasKeySync(key string, opts ...GetOption) (bool, error) {
	cl, err := in.begin(context.Background(), "HasKeySync", true)
	if err != nil {
		return false, err
	}
	return in.hasKey(cl, key, opts)
}
