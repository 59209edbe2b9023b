// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

//go:build integration

package testinfra

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// terminateTimeout bounds container teardown during test cleanup.
const terminateTimeout = 30 * time.Second

// SkipIfNoDocker skips t when no healthy container provider is reachable,
// so integration tests pass on machines without Docker.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// CleanupContainer terminates c, logging rather than failing on error.
// A nil container is ignored.
func CleanupContainer(t *testing.T, ctx context.Context, c testcontainers.Container) {
	t.Helper()
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminateTimeout)
	defer cancel()
	if err := testcontainers.TerminateContainer(c, testcontainers.StopContext(ctx)); err != nil {
		t.Logf("failed to terminate %T: %v", c, err)
	}
}
