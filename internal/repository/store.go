package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when the key has never been set or was removed
var ErrNotFound = errors.New("key not found")

// KeyValueStore is the client-owned persistence capability. Values are opaque
// bytes, usually JSON.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// DefaultStatePath returns the per-user state file location
func DefaultStatePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, "symptom-checker", "state.json"), nil
}

// Open selects a backend from a DSN:
//
//	""                      default state file
//	memory:                 in-process map
//	redis://host:6379/0     Redis
//	postgres://...          Postgres table
//	anything else           path of a JSON state file
func Open(ctx context.Context, dsn string, logger *zap.Logger) (KeyValueStore, error) {
	dsn = strings.TrimSpace(dsn)

	switch {
	case dsn == "":
		path, err := DefaultStatePath()
		if err != nil {
			return nil, err
		}
		return NewFileStore(path, logger)
	case dsn == "memory:" || dsn == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "redis://") || strings.HasPrefix(dsn, "rediss://"):
		return NewRedisStore(ctx, dsn, logger)
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn, "", logger)
	case strings.HasPrefix(dsn, "file://"):
		u, err := url.Parse(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid file store url: %w", err)
		}
		return NewFileStore(u.Path, logger)
	default:
		return NewFileStore(dsn, logger)
	}
}
