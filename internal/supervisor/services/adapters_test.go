// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

type fakeHub struct{ started chan struct{} }

func (f *fakeHub) RunWithContext(ctx context.Context) error {
	close(f.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubService(t *testing.T) {
	hub := &fakeHub{started: make(chan struct{})}
	svc := NewWebSocketHubService(hub)
	if svc.String() != "websocket-hub" {
		t.Errorf("String() = %q, want websocket-hub", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	waitRan(t, hub.started)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

type fakeScheduler struct {
	startErr error
	started  atomic.Bool
	stopped  atomic.Bool
}

func (f *fakeScheduler) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started.Store(true)
	return nil
}

func (f *fakeScheduler) Stop() error {
	f.stopped.Store(true)
	return nil
}

func TestSchedulerService(t *testing.T) {
	s := &fakeScheduler{}
	svc := NewSchedulerService(s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if !s.started.Load() || !s.stopped.Load() {
		t.Errorf("started = %v, stopped = %v, want both true", s.started.Load(), s.stopped.Load())
	}

	failing := NewSchedulerService(&fakeScheduler{startErr: errors.New("already running")})
	if err := failing.Serve(context.Background()); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("Serve() error = %v, want start failure", err)
	}
}

type fakeRouter struct {
	err      error
	blocking bool
}

func (f *fakeRouter) Run(ctx context.Context) error {
	if f.blocking {
		<-ctx.Done()
	}
	return f.err
}

func TestEventRouterService(t *testing.T) {
	tests := []struct {
		name    string
		router  *fakeRouter
		cancel  bool
		wantErr string
	}{
		{"clean stop", &fakeRouter{blocking: true}, true, "context canceled"},
		{"router error", &fakeRouter{err: errors.New("subscriber gone")}, false, "subscriber gone"},
		{"unexpected return", &fakeRouter{}, false, "stopped unexpectedly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}
			err := NewEventRouterService(tt.router).Serve(ctx)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Serve() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

type fakeCleaner struct {
	calls atomic.Int32
	ran   chan struct{}
}

func (f *fakeCleaner) CleanupExpired(context.Context) (int, error) {
	n := f.calls.Add(1)
	f.ran <- struct{}{}
	if n == 1 {
		return 0, errors.New("badger closed")
	}
	return 3, nil
}

func TestBlacklistCleanupService(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cleaner := &fakeCleaner{ran: make(chan struct{}, 4)}
	svc := NewBlacklistCleanupService(cleaner, time.Minute, zerolog.Nop()).WithClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	for i := 0; i < 2; i++ {
		if err := clock.BlockUntilContext(ctx, 1); err != nil {
			t.Fatal(err)
		}
		clock.Advance(time.Minute)
		waitRan(t, cleaner.ran)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if got := cleaner.calls.Load(); got != 2 {
		t.Errorf("CleanupExpired calls = %d, want 2", got)
	}
}

func TestBlacklistCleanupService_DefaultInterval(t *testing.T) {
	svc := NewBlacklistCleanupService(&fakeCleaner{}, 0, zerolog.Nop())
	if svc.interval != time.Hour {
		t.Errorf("interval = %v, want 1h", svc.interval)
	}
}
