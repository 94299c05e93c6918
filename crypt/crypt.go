// Package crypt provides the value ciphers purestore encrypts records with.
//
// Ciphers are AEADs; their output is nonce || ciphertext and carries its own
// authentication tag, so a wrong key or a tampered value fails Decrypt instead
// of returning garbage.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher encrypts and decrypts opaque values. Must be safe for concurrent use.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(sealed []byte) ([]byte, error)
}

// Kind names a cipher construction.
type Kind string

const (
	AESGCM           Kind = "aes-gcm"
	ChaCha20Poly1305 Kind = "chacha20poly1305"
)

var ErrShortCiphertext = errors.New("crypt: sealed value is too short")

// AEAD seals values with a random nonce per call.
type AEAD struct {
	aead cipher.AEAD
}

var _ Cipher = (*AEAD)(nil)

// NewAESGCM builds an AES-GCM cipher. key must be 16, 24 or 32 bytes.
func NewAESGCM(key []byte) (*AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &AEAD{aead: aead}, nil
}

// NewChaCha20Poly1305 builds an XChaCha20-Poly1305 cipher from a 32-byte key.
// The extended nonce keeps random nonces safe for long-lived keys.
func NewChaCha20Poly1305(key []byte) (*AEAD, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("new xchacha20poly1305: %w", err)
	}
	return &AEAD{aead: aead}, nil
}

// New builds the cipher named by kind.
func New(kind Kind, key []byte) (*AEAD, error) {
	switch kind {
	case AESGCM, "":
		return NewAESGCM(key)
	case ChaCha20Poly1305:
		return NewChaCha20Poly1305(key)
	default:
		return nil, fmt.Errorf("crypt: unknown cipher %q", kind)
	}
}

func (c *AEAD) Encrypt(plaintext []byte) ([]byte, error) {
	if c == nil || c.aead == nil {
		return nil, fmt.Errorf("cipher is not configured")
	}
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *AEAD) Decrypt(sealed []byte) ([]byte, error) {
	if c == nil || c.aead == nil {
		return nil, fmt.Errorf("cipher is not configured")
	}
	ns := c.aead.NonceSize()
	if len(sealed) < ns+c.aead.Overhead() {
		return nil, ErrShortCiphertext
	}
	plaintext, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt sealed value: %w", err)
	}
	return plaintext, nil
}
