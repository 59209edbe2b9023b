// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// DefaultRedisImage matches the Redis major version used in deployment.
const DefaultRedisImage = "redis:7-alpine"

// RedisContainer is a running Redis instance for cache tests.
type RedisContainer struct {
	*tcredis.RedisContainer
	URL string
}

// RedisOption configures the Redis container.
type RedisOption func(*redisConfig)

type redisConfig struct {
	image        string
	startTimeout time.Duration
}

// WithRedisImage sets a custom Redis Docker image.
func WithRedisImage(image string) RedisOption {
	return func(c *redisConfig) {
		c.image = image
	}
}

// WithRedisStartTimeout bounds how long NewRedisContainer waits for startup.
func WithRedisStartTimeout(timeout time.Duration) RedisOption {
	return func(c *redisConfig) {
		c.startTimeout = timeout
	}
}

// NewRedisContainer starts Redis and returns its redis:// URL.
//
//	rc, err := testinfra.NewRedisContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, rc)
func NewRedisContainer(ctx context.Context, opts ...RedisOption) (*RedisContainer, error) {
	cfg := &redisConfig{
		image:        DefaultRedisImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	startCtx, cancel := context.WithTimeout(ctx, cfg.startTimeout)
	defer cancel()

	container, err := tcredis.Run(startCtx, cfg.image)
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get redis endpoint: %w", err)
	}

	return &RedisContainer{RedisContainer: container, URL: "redis://" + endpoint}, nil
}

// NewRedisClient connects to the container and flushes it so each test starts
// from an empty keyspace. The client is closed on test cleanup.
func (rc *RedisContainer) NewRedisClient(t *testing.T) *goredis.Client {
	t.Helper()

	opts, err := goredis.ParseURL(rc.URL)
	if err != nil {
		t.Fatalf("parse redis URL: %v", err)
	}
	client := goredis.NewClient(opts)

	ctx := context.Background()
	if err := client.FlushAll(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
