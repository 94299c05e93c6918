// Package memory is an in-process Backend. It is what tests and the CLI's
// "memory" mode run on; nothing survives the process.
package memory

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/purestore/backend"
)

type Memory struct {
	mu   sync.RWMutex
	m    map[string][]byte
	sync bool
}

var _ backend.Backend = (*Memory)(nil)
var _ backend.SyncCapable = (*Memory)(nil)

// New returns an empty store that serves the sync family.
func New() *Memory { return &Memory{m: make(map[string][]byte), sync: true} }

// NewAsyncOnly returns a store that reports no sync capability.
func NewAsyncOnly() *Memory { return &Memory{m: make(map[string][]byte)} }

func (s *Memory) SyncAvailable() bool { return s.sync }

func (s *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	v, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (s *Memory) Set(_ context.Context, key string, value []byte) (bool, error) {
	s.mu.Lock()
	s.m[key] = clone(value)
	s.mu.Unlock()
	return true, nil
}

func (s *Memory) Remove(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return true, nil
}

func (s *Memory) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	return out, nil
}

func (s *Memory) Has(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	_, ok := s.m[key]
	s.mu.RUnlock()
	return ok, nil
}

func (s *Memory) MultiGet(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	s.mu.RLock()
	for _, k := range keys {
		if v, ok := s.m[k]; ok {
			out[k] = clone(v)
		}
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *Memory) MultiSet(_ context.Context, entries map[string][]byte) (bool, error) {
	s.mu.Lock()
	for k, v := range entries {
		s.m[k] = clone(v)
	}
	s.mu.Unlock()
	return true, nil
}

func (s *Memory) MultiRemove(_ context.Context, keys []string) (bool, error) {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.m, k)
	}
	s.mu.Unlock()
	return true, nil
}

func (s *Memory) Close(context.Context) error { return nil }

// Len reports the number of stored keys.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
