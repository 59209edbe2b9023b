// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestRunner_Run(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRunner(clock)
	r.Register("ok", func(context.Context) (Result, error) {
		clock.Advance(1500 * time.Millisecond)
		return Result{Message: "done"}, nil
	})
	r.Register("bad", func(context.Context) (Result, error) {
		return Result{}, errors.New("boom")
	})

	run, err := r.Run(context.Background(), "ok", "manual")
	if err != nil {
		t.Fatalf("Run(ok) error = %v", err)
	}
	if run.Status != StatusSucceeded || run.Result == nil || run.Result.Message != "done" {
		t.Errorf("run = %+v, want succeeded with message", run)
	}
	if run.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", run.DurationMS)
	}
	if run.Trigger != "manual" || run.ID == "" || run.FinishedAt == nil {
		t.Errorf("run = %+v, want trigger, id and finish time", run)
	}

	run, err = r.Run(context.Background(), "bad", "schedule")
	if err == nil || err.Error() != "boom" {
		t.Fatalf("Run(bad) error = %v, want boom", err)
	}
	if run.Status != StatusFailed || run.Error != "boom" || run.Result != nil {
		t.Errorf("run = %+v, want failed", run)
	}

	if _, err := r.Run(context.Background(), "missing", "manual"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Run(missing) error = %v, want ErrUnknownTask", err)
	}
}

func TestRunner_Panic(t *testing.T) {
	r := NewRunner(nil)
	r.Register("panics", func(context.Context) (Result, error) {
		panic("kaboom")
	})

	run, err := r.Run(context.Background(), "panics", "manual")
	if err == nil {
		t.Fatal("Run() error = nil, want panic error")
	}
	if run.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", run.Status)
	}
	if r.IsRunning("panics") {
		t.Error("task still marked running after panic")
	}
}

func TestRunner_RejectsConcurrentRun(t *testing.T) {
	r := NewRunner(nil)
	release := make(chan struct{})
	started := make(chan struct{})
	r.Register("slow", func(context.Context) (Result, error) {
		close(started)
		<-release
		return Result{}, nil
	})

	id, err := r.Start(context.Background(), "slow", "manual")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-started

	if !r.IsRunning("slow") {
		t.Error("IsRunning() = false while running")
	}
	if _, err := r.Run(context.Background(), "slow", "manual"); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
	if run, ok := r.Get(id); !ok || run.Status != StatusRunning {
		t.Errorf("Get(%s) = %+v, %v, want running", id, run, ok)
	}

	close(release)
	r.Wait()

	run, ok := r.Get(id)
	if !ok || run.Status != StatusSucceeded {
		t.Errorf("Get(%s) = %+v, want succeeded", id, run)
	}
}

func TestRunner_StartSurvivesCancel(t *testing.T) {
	r := NewRunner(nil)
	r.Register("ctx", func(ctx context.Context) (Result, error) {
		time.Sleep(20 * time.Millisecond)
		return Result{}, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	id, err := r.Start(ctx, "ctx", "api")
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	r.Wait()

	if run, _ := r.Get(id); run.Status != StatusSucceeded {
		t.Errorf("Status = %q, want succeeded after caller cancel", run.Status)
	}
}

func TestRunner_History(t *testing.T) {
	r := NewRunner(nil)
	for i := 0; i < HistorySize+5; i++ {
		name := fmt.Sprintf("t%02d", i)
		r.Register(name, func(context.Context) (Result, error) { return Result{}, nil })
		if _, err := r.Run(context.Background(), name, "manual"); err != nil {
			t.Fatal(err)
		}
	}

	all := r.History(0)
	if len(all) != HistorySize {
		t.Fatalf("len(History(0)) = %d, want %d", len(all), HistorySize)
	}
	if all[0].Task != fmt.Sprintf("t%02d", HistorySize+4) {
		t.Errorf("newest = %s, want t%02d", all[0].Task, HistorySize+4)
	}
	if all[len(all)-1].Task != "t05" {
		t.Errorf("oldest = %s, want t05", all[len(all)-1].Task)
	}
	if got := r.History(3); len(got) != 3 {
		t.Errorf("len(History(3)) = %d, want 3", len(got))
	}
}

func TestRunner_Names(t *testing.T) {
	r := NewRunner(nil)
	New(Deps{}).Register(r)

	want := []string{
		CleanupExpired,
		GenerateTrendingRecommendations,
		GenerateUserRecommendations,
		SyncGenres,
		SyncTMDbData,
		UpdateMoviePopularity,
		UpdateSimilarityMatrix,
	}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if !r.Has(SyncGenres) || r.Has("nope") {
		t.Error("Has() mismatch")
	}
}
