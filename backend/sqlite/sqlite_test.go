package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/purestore/backend"
)

func openTest(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "purestore.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(context.Background()); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return s, path
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	_, path := openTest(t)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()

	var name string
	if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'kv'`).Scan(&name); err != nil {
		t.Fatalf("kv table missing: %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	if _, ok, err := s.Get(ctx, "ns:a"); ok || err != nil {
		t.Fatalf("miss: %v %v", ok, err)
	}
	payload := []byte{0, 0xff, 'x'}
	if ok, err := s.Set(ctx, "ns:a", payload); !ok || err != nil {
		t.Fatalf("set: %v %v", ok, err)
	}
	got, ok, err := s.Get(ctx, "ns:a")
	if err != nil || !ok || string(got) != string(payload) {
		t.Fatalf("get: %v %v %v", got, ok, err)
	}
	if _, err := s.Set(ctx, "ns:a", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	got, _, _ = s.Get(ctx, "ns:a")
	if string(got) != "v2" {
		t.Fatalf("overwrite: %q", got)
	}

	var ts int64
	if err := s.db.QueryRow(`SELECT updated_at FROM kv WHERE key = ?`, "ns:a").Scan(&ts); err != nil || ts != 1700000000000 {
		t.Fatalf("updated_at = %d %v", ts, err)
	}

	if has, _ := s.Has(ctx, "ns:a"); !has {
		t.Fatalf("Has = false")
	}
	if _, err := s.Remove(ctx, "ns:a"); err != nil {
		t.Fatal(err)
	}
	if has, _ := s.Has(ctx, "ns:a"); has {
		t.Fatalf("Has after remove")
	}
}

func TestStoreEmptyValue(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()
	if _, err := s.Set(ctx, "k", nil); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || got == nil || len(got) != 0 {
		t.Fatalf("empty value: %v %v %v", got, ok, err)
	}
}

func TestStoreMultiOps(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	entries := make(map[string][]byte)
	var keys []string
	for i := 0; i < maxVars+20; i++ {
		k := fmt.Sprintf("ns:%04d", i)
		entries[k] = []byte(k)
		keys = append(keys, k)
	}
	if ok, err := s.MultiSet(ctx, entries); !ok || err != nil {
		t.Fatalf("multiset: %v %v", ok, err)
	}

	got, err := s.MultiGet(ctx, append(keys, "ns:missing"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(keys) {
		t.Fatalf("multiget returned %d of %d", len(got), len(keys))
	}
	if string(got["ns:0519"]) != "ns:0519" {
		t.Fatalf("value from second chunk = %q", got["ns:0519"])
	}

	all, err := s.Keys(ctx)
	if err != nil || len(all) != len(keys) || all[0] != "ns:0000" {
		t.Fatalf("keys: %d %v", len(all), err)
	}

	if _, err := s.MultiRemove(ctx, keys[:maxVars+10]); err != nil {
		t.Fatal(err)
	}
	all, _ = s.Keys(ctx)
	if len(all) != 10 {
		t.Fatalf("keys after multi remove = %d", len(all))
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Set(ctx, "ns:k", []byte("durable")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get(ctx, "ns:k"); err != ErrClosed {
		t.Fatalf("get after close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close(ctx)
	got, ok, _ := s2.Get(ctx, "ns:k")
	if !ok || string(got) != "durable" {
		t.Fatalf("reopen: %q %v", got, ok)
	}
}

func TestStoreSyncCapable(t *testing.T) {
	s, _ := openTest(t)
	if !backend.SyncAvailable(s) {
		t.Fatalf("sqlite must be sync capable")
	}
}
