// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/logging"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Backend is a byte-oriented cache with TTL support.
// All implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the value and true when the key exists and has not expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. ttl <= 0 uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Name returns the backend name used in metrics and logs.
	Name() string
}

// New creates the backend selected by cfg.Backend.
func New(ctx context.Context, cfg *config.CacheConfig) (Backend, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(cfg.Capacity, cfg.DefaultTTL), nil
	case BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		client := redis.NewClient(opts)
		client.AddHook(&MetricsHook{})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logging.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Connected to Redis cache")
		return NewRedis(client, cfg.KeyPrefix, cfg.DefaultTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// GetJSON reads key and decodes it into a T. A decode failure is reported as
// a miss and the stale entry is removed.
func GetJSON[T any](ctx context.Context, b Backend, key string) (T, bool, error) {
	var out T
	data, ok, err := b.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		logging.Warn().Err(err).Str("key", key).Str("backend", b.Name()).
			Msg("Discarding undecodable cache entry")
		_ = b.Delete(ctx, key)
		var zero T
		return zero, false, nil
	}
	return out, true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, b Backend, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %q: %w", key, err)
	}
	return b.Set(ctx, key, data, ttl)
}
