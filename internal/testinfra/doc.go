// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package testinfra provides container helpers for integration tests.
//
// Everything here is behind the integration build tag and uses testcontainers-go:
//
//	go test -tags integration ./internal/cache/...
//
// # Redis
//
//	func TestRedisBackend(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    rc, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, rc)
//
//	    backend := cache.NewRedis(rc.NewRedisClient(t), "test", time.Minute)
//	    // ...
//	}
//
// Tests are skipped when Docker is unavailable or when run with -short.
package testinfra
