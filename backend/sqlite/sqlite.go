// Package sqlite is a durable, file-backed backend built on modernc.org/sqlite
// (pure Go, no cgo). Records live in a single kv table; multi-key operations
// run inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/purestore/backend"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// maxVars keeps IN (...) lists under SQLite's bound-parameter limit.
const maxVars = 500

var ErrClosed = errors.New("sqlite backend: closed")

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ backend.Backend = (*Store)(nil)
var _ backend.SyncCapable = (*Store)(nil)

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) SyncAvailable() bool { return s != nil && s.db != nil }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	if v == nil {
		v = []byte{}
	}
	return v, true, nil
}

const upsert = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (s *Store) Set(ctx context.Context, key string, value []byte) (bool, error) {
	if s.db == nil {
		return false, ErrClosed
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, upsert, key, value, s.now().UnixMilli()); err != nil {
		return false, fmt.Errorf("set %q: %w", key, err)
	}
	return true, nil
}

func (s *Store) Remove(ctx context.Context, key string) (bool, error) {
	if s.db == nil {
		return false, ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return false, fmt.Errorf("remove %q: %w", key, err)
	}
	return true, nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if s.db == nil {
		return false, ErrClosed
	}
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM kv WHERE key = ?`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has %q: %w", key, err)
	}
	return true, nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return out, nil
}

func (s *Store) MultiGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	out := make(map[string][]byte, len(keys))
	for _, chunk := range chunks(keys) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT key, value FROM kv WHERE key IN (`+placeholders(len(chunk))+`)`,
			args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("multi get: %w", err)
		}
		for rows.Next() {
			var (
				k string
				v []byte
			)
			if err := rows.Scan(&k, &v); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scan row: %w", err)
			}
			if v == nil {
				v = []byte{}
			}
			out[k] = v
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate rows: %w", err)
		}
	}
	return out, nil
}

// MultiSet writes every entry or none.
func (s *Store) MultiSet(ctx context.Context, entries map[string][]byte) (bool, error) {
	if s.db == nil {
		return false, ErrClosed
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsert)
		if err != nil {
			return err
		}
		defer stmt.Close()
		ts := s.now().UnixMilli()
		for k, v := range entries {
			if v == nil {
				v = []byte{}
			}
			if _, err := stmt.ExecContext(ctx, k, v, ts); err != nil {
				return fmt.Errorf("set %q: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("multi set: %w", err)
	}
	return true, nil
}

func (s *Store) MultiRemove(ctx context.Context, keys []string) (bool, error) {
	if s.db == nil {
		return false, ErrClosed
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, chunk := range chunks(keys) {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM kv WHERE key IN (`+placeholders(len(chunk))+`)`,
				args(chunk)...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("multi remove: %w", err)
	}
	return true, nil
}

// Close releases the underlying SQLite connection. Later calls are no-ops.
func (s *Store) Close(context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func chunks(keys []string) [][]string {
	var out [][]string
	for len(keys) > maxVars {
		out = append(out, keys[:maxVars])
		keys = keys[maxVars:]
	}
	if len(keys) > 0 {
		out = append(out, keys)
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func args(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
