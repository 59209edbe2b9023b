// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

//go:build integration

package testinfra

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRedisOptions(t *testing.T) {
	cfg := &redisConfig{image: DefaultRedisImage, startTimeout: time.Minute}
	WithRedisImage("redis:7.2-alpine")(cfg)
	WithRedisStartTimeout(5 * time.Second)(cfg)

	if cfg.image != "redis:7.2-alpine" {
		t.Errorf("image = %q, want redis:7.2-alpine", cfg.image)
	}
	if cfg.startTimeout != 5*time.Second {
		t.Errorf("startTimeout = %v, want 5s", cfg.startTimeout)
	}
}

func TestRedisContainer_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rc, err := NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to create Redis container: %v", err)
	}
	defer CleanupContainer(t, ctx, rc)

	if !strings.HasPrefix(rc.URL, "redis://") {
		t.Errorf("URL = %q, want redis:// prefix", rc.URL)
	}

	client := rc.NewRedisClient(t)
	if err := client.Set(ctx, "probe", "ok", time.Minute).Err(); err != nil {
		t.Fatalf("SET: %v", err)
	}
	got, err := client.Get(ctx, "probe").Result()
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if got != "ok" {
		t.Errorf("GET probe = %q, want ok", got)
	}
}
