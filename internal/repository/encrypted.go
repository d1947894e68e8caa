package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/vcscsvcscs/symptom-checker/internal/security"
)

// KeyEncryptionSalt holds the passphrase salt, unencrypted, in the wrapped store
const KeyEncryptionSalt = "encryptionSalt"

// EncryptedStore seals values before handing them to the wrapped store
type EncryptedStore struct {
	inner     KeyValueStore
	encryptor *security.Encryptor
}

// NewEncryptedStore wraps inner with encryptor
func NewEncryptedStore(inner KeyValueStore, encryptor *security.Encryptor) *EncryptedStore {
	return &EncryptedStore{inner: inner, encryptor: encryptor}
}

// OpenEncryptedStore derives the key from passphrase and the salt kept in
// inner, creating the salt on first use
func OpenEncryptedStore(ctx context.Context, inner KeyValueStore, passphrase string) (*EncryptedStore, error) {
	salt, err := loadSalt(ctx, inner)
	if err != nil {
		return nil, err
	}
	encryptor, err := security.NewEncryptorFromPassphrase(passphrase, salt)
	if err != nil {
		return nil, err
	}
	return NewEncryptedStore(inner, encryptor), nil
}

func loadSalt(ctx context.Context, inner KeyValueStore) ([]byte, error) {
	encoded, err := inner.Get(ctx, KeyEncryptionSalt)
	if errors.Is(err, ErrNotFound) {
		salt, err := security.NewSalt()
		if err != nil {
			return nil, err
		}
		if err := inner.Set(ctx, KeyEncryptionSalt, []byte(base64.StdEncoding.EncodeToString(salt))); err != nil {
			return nil, fmt.Errorf("failed to save encryption salt: %w", err)
		}
		return salt, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption salt: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil || len(salt) != security.SaltSize {
		return nil, errors.New("stored encryption salt is corrupt")
	}
	return salt, nil
}

func (s *EncryptedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	value, err := s.encryptor.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	return value, nil
}

func (s *EncryptedStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.encryptor.Seal(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *EncryptedStore) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

func (s *EncryptedStore) Close() error {
	return s.inner.Close()
}
