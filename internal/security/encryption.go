package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the random salt mixed into passphrase keys
const SaltSize = 16

// Argon2id parameters for passphrase keys
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	keySize      = 32
)

// ErrCiphertextTooShort is returned when a sealed value has no room for its nonce
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Encryptor seals locally stored health data with AES-256-GCM. Sealed values
// are base64 text so they fit every store backend.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates an encryptor from a raw 32-byte key
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes for AES-256, got %d bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Encryptor{aead: aead}, nil
}

// NewSalt returns SaltSize random bytes
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey stretches passphrase into an AES-256 key with Argon2id
func DeriveKey(passphrase string, salt []byte) ([]byte, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, errors.New("encryption passphrase must not be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d bytes", SaltSize, len(salt))
	}
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, keySize), nil
}

// NewEncryptorFromPassphrase derives the key from passphrase and salt
func NewEncryptorFromPassphrase(passphrase string, salt []byte) (*Encryptor, error) {
	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	return NewEncryptor(key)
}

// Seal encrypts plaintext and returns nonce||ciphertext as base64
func (e *Encryptor) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, plaintext, nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sealed)))
	base64.StdEncoding.Encode(out, sealed)
	return out, nil
}

// Open reverses Seal
func (e *Encryptor) Open(sealed []byte) ([]byte, error) {
	data := make([]byte, base64.StdEncoding.DecodedLen(len(sealed)))
	n, err := base64.StdEncoding.Decode(data, sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	data = data[:n]

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrCiphertextTooShort
	}

	plaintext, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
