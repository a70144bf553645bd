package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a Store backed by a Redis server
type Redis struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedis connects to redisURL and verifies the connection with a short ping
func NewRedis(ctx context.Context, redisURL string, logger *zap.Logger) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis cache connected", zap.String("addr", opts.Addr))
	return &Redis{rdb: rdb, logger: logger}, nil
}

// Get returns the stored payload; connection errors read as a miss
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Debug("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

// Set stores a payload with expiry; failures are logged and dropped
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Debug("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the connection pool
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Open builds the cache used by the service: an in-process LRU, fronting Redis when redisURL
// is set and reachable. An unreachable Redis is logged and skipped.
func Open(ctx context.Context, redisURL string, maxEntries int, l1TTL time.Duration, logger *zap.Logger) (*Tiered, func() error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l1 := NewMemory(maxEntries, l1TTL)
	closer := func() error { return nil }

	if redisURL == "" {
		logger.Info("redis not configured, using in-process cache only")
		return NewTiered(l1, nil, logger), closer
	}

	r, err := NewRedis(ctx, redisURL, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-process cache only", zap.Error(err))
		return NewTiered(l1, nil, logger), closer
	}
	return NewTiered(l1, r, logger), r.Close
}
