package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultStateTable = "symptom_checker_state"

// PostgresStore keeps every key as a row of a single table
type PostgresStore struct {
	db     *pgxpool.Pool
	table  string
	logger *zap.Logger
}

// NewPostgresStore connects, pings and creates the state table if needed.
// An empty table name selects the default.
func NewPostgresStore(ctx context.Context, connString, table string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to state database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	store, err := NewPostgresStoreFromPool(ctx, pool, table, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreFromPool uses an existing pool. Close closes the pool.
func NewPostgresStoreFromPool(ctx context.Context, pool *pgxpool.Pool, table string, logger *zap.Logger) (*PostgresStore, error) {
	if table == "" {
		table = defaultStateTable
	}
	s := &PostgresStore{
		db:     pool,
		table:  pq.QuoteIdentifier(table),
		logger: logger.With(zap.String("store", "postgres"), zap.String("table", table)),
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.table)
	if _, err := pool.Exec(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table)

	var value []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to read key", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, s.table)

	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		s.logger.Error("failed to write key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.table)

	if _, err := s.db.Exec(ctx, query, key); err != nil {
		s.logger.Error("failed to remove key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
