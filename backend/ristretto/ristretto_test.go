package ristretto

import (
	"context"
	"sort"
	"testing"

	"github.com/unkn0wn-root/purestore/backend"
)

func newTest(t *testing.T, cfg Config) *Provider {
	t.Helper()
	p, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestNewRejectsNegative(t *testing.T) {
	if _, err := New(Config{MaxCost: -1}); err == nil {
		t.Fatalf("expected error for negative MaxCost")
	}
}

func TestRistrettoRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTest(t, Config{})

	if ok, err := p.Set(ctx, "ns:a", []byte("hello")); !ok || err != nil {
		t.Fatalf("set: %v %v", ok, err)
	}
	b, ok, _ := p.Get(ctx, "ns:a")
	if !ok || string(b) != "hello" {
		t.Fatalf("get: %q %v", b, ok)
	}
	b[0] = 'X'
	again, _, _ := p.Get(ctx, "ns:a")
	if string(again) != "hello" {
		t.Fatalf("Get must return a private copy, got %q", again)
	}
	if _, err := p.Remove(ctx, "ns:a"); err != nil {
		t.Fatal(err)
	}
	if has, _ := p.Has(ctx, "ns:a"); has {
		t.Fatalf("Has after remove")
	}
}

func TestRistrettoKeysAndMulti(t *testing.T) {
	ctx := context.Background()
	p := newTest(t, Config{})

	if ok, _ := p.MultiSet(ctx, map[string][]byte{"x:1": []byte("1"), "x:2": []byte("2")}); !ok {
		t.Fatalf("multiset rejected on an empty cache")
	}
	keys, _ := p.Keys(ctx)
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "x:1" || keys[1] != "x:2" {
		t.Fatalf("keys = %v", keys)
	}
	got, _ := p.MultiGet(ctx, []string{"x:1", "x:2", "x:3"})
	if len(got) != 2 {
		t.Fatalf("multiget = %v", got)
	}
	_, _ = p.MultiRemove(ctx, []string{"x:1"})
	keys, _ = p.Keys(ctx)
	if len(keys) != 1 || keys[0] != "x:2" {
		t.Fatalf("keys after remove = %v", keys)
	}
}

func TestRistrettoRejectsOversizedWrite(t *testing.T) {
	ctx := context.Background()
	p := newTest(t, Config{MaxCost: 16})

	ok, err := p.Set(ctx, "big", make([]byte, 64))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		if _, present, _ := p.Get(ctx, "big"); present {
			t.Fatalf("entry larger than MaxCost must not be resident")
		}
	}
	keys, _ := p.Keys(ctx)
	if len(keys) != 0 {
		t.Fatalf("rejected key still indexed: %v", keys)
	}
}

func TestRistrettoSyncCapable(t *testing.T) {
	if !backend.SyncAvailable(newTest(t, Config{})) {
		t.Fatalf("ristretto must be sync capable")
	}
}
