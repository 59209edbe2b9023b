// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

type fakeTrainer struct {
	calls atomic.Int32
	err   error
	ran   chan struct{}
}

func newFakeTrainer() *fakeTrainer {
	return &fakeTrainer{ran: make(chan struct{}, 16)}
}

func (f *fakeTrainer) Train(context.Context) error {
	f.calls.Add(1)
	f.ran <- struct{}{}
	return f.err
}

func waitRan(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for run")
	}
}

func TestRecommendService_TrainsOnStartupAndTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	trainer := newFakeTrainer()
	trainer.err = errors.New("not enough interactions")
	svc := NewRecommendService(trainer, RecommendServiceConfig{
		TrainOnStartup: true,
		TrainInterval:  time.Hour,
	}, zerolog.Nop()).WithClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	waitRan(t, trainer.ran)

	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Hour)
	waitRan(t, trainer.ran)

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if got := trainer.calls.Load(); got != 2 {
		t.Errorf("Train calls = %d, want 2", got)
	}
}

func TestRecommendService_Defaults(t *testing.T) {
	svc := NewRecommendService(newFakeTrainer(), RecommendServiceConfig{}, zerolog.Nop())
	if svc.config.TrainInterval != 24*time.Hour {
		t.Errorf("TrainInterval = %v, want 24h", svc.config.TrainInterval)
	}
	if svc.config.TrainTimeout != 30*time.Minute {
		t.Errorf("TrainTimeout = %v, want 30m", svc.config.TrainTimeout)
	}
	if svc.String() != "recommend-service" {
		t.Errorf("String() = %q, want recommend-service", svc.String())
	}
}

func TestRecommendService_NoStartupTraining(t *testing.T) {
	trainer := newFakeTrainer()
	svc := NewRecommendService(trainer, RecommendServiceConfig{}, zerolog.Nop()).
		WithClock(clockwork.NewFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if trainer.calls.Load() != 0 {
		t.Errorf("Train calls = %d, want 0", trainer.calls.Load())
	}
}
