// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/reelmatch/internal/metrics"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 100

// Redis implements Backend on go-redis. Every key is stored as
// "{prefix}:{key}" so several deployments can share one Redis database.
type Redis struct {
	rdb        redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
}

// NewRedis wraps an existing client. An empty keyPrefix stores keys as given.
func NewRedis(rdb redis.UniversalClient, keyPrefix string, defaultTTL time.Duration) *Redis {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	prefix := ""
	if keyPrefix != "" {
		prefix = keyPrefix + ":"
	}
	return &Redis{rdb: rdb, prefix: prefix, defaultTTL: defaultTTL}
}

// Name returns "redis".
func (r *Redis) Name() string { return BackendRedis }

// Client returns the underlying go-redis client.
func (r *Redis) Client() redis.UniversalClient { return r.rdb }

func (r *Redis) key(k string) string { return r.prefix + k }

// Get reads a key. redis.Nil is reported as a miss, not an error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheLookup(BackendRedis, false)
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordCacheLookup(BackendRedis, false)
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	metrics.RecordCacheLookup(BackendRedis, true)
	return data, true, nil
}

// Set writes a key with an expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if err := r.rdb.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes keys in a single DEL.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeletePrefix walks the keyspace with SCAN and deletes matches batch by batch.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	pattern := r.key(prefix) + "*"
	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

var _ Backend = (*Redis)(nil)

// MetricsHook implements redis.Hook and records command latency.
type MetricsHook struct{}

var _ redis.Hook = (*MetricsHook)(nil)

// DialHook passes dials through unchanged.
func (h *MetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

// ProcessHook is called for every Redis command execution.
func (h *MetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		metrics.RedisCommandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		return err
	}
}

// ProcessPipelineHook tracks a pipeline as a single operation.
func (h *MetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		metrics.RedisCommandDuration.WithLabelValues("pipeline").Observe(time.Since(start).Seconds())
		return err
	}
}
