package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "symptom-checker:"

// RedisStore keeps each key as a Redis string under a common prefix
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore connects to the Redis URL and verifies the connection
func NewRedisStore(ctx context.Context, redisURL string, logger *zap.Logger) (*RedisStore, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}

	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{
		rdb:    rdb,
		prefix: redisKeyPrefix,
		logger: logger.With(zap.String("store", "redis")),
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to read key", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		s.logger.Error("failed to write key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		s.logger.Error("failed to remove key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
