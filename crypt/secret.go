package crypt

import (
	"context"
	"crypto/hkdf"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/unkn0wn-root/purestore/backend"
)

const (
	// DefaultSecretKey is the physical key the secret is persisted under. It
	// holds no ':' and therefore belongs to no namespace.
	DefaultSecretKey = "purestore.secret"

	SecretSize = 32
)

// LoadOrCreateSecret returns the secret stored under name, generating and
// persisting a fresh random one on first use.
func LoadOrCreateSecret(ctx context.Context, b backend.Backend, name string) ([]byte, error) {
	if name == "" {
		name = DefaultSecretKey
	}
	v, ok, err := b.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load secret: %w", err)
	}
	if ok {
		if len(v) != SecretSize {
			return nil, fmt.Errorf("load secret: stored secret has %d bytes, want %d", len(v), SecretSize)
		}
		return v, nil
	}

	secret := make([]byte, SecretSize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	ok, err = b.Set(ctx, name, secret)
	if err != nil {
		return nil, fmt.Errorf("persist secret: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("persist secret: %w", backend.ErrRejected)
	}
	return secret, nil
}

// DeriveKey expands secret into a 32-byte key bound to info.
func DeriveKey(secret []byte, info string) ([]byte, error) {
	key, err := hkdf.Key(sha256.New, secret, nil, info, 32)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// FromBackend loads (or creates) the persisted secret and builds a cipher of
// the given kind keyed by it.
func FromBackend(ctx context.Context, b backend.Backend, kind Kind) (*AEAD, error) {
	secret, err := LoadOrCreateSecret(ctx, b, DefaultSecretKey)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = AESGCM
	}
	key, err := DeriveKey(secret, "purestore:"+string(kind))
	if err != nil {
		return nil, err
	}
	return New(kind, key)
}
