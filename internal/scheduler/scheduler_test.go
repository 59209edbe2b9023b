// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/tasks"
)

var start = time.Date(2026, 3, 2, 10, 0, 30, 0, time.UTC)

// waitTimer blocks until the loop sleeps on its timer.
func waitTimer(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("scheduler never waited on the clock: %v", err)
	}
}

func expectCall(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}

func TestScheduler_RunsDueJob(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	s := New(clock, Config{})
	calls := make(chan struct{}, 10)
	if err := s.Add("tick", "* * * * *", func(context.Context) error {
		calls <- struct{}{}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	waitTimer(t, clock)
	clock.Advance(30 * time.Second)
	expectCall(t, calls)

	waitTimer(t, clock)
	clock.Advance(time.Minute)
	expectCall(t, calls)

	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].LastRun == nil {
		t.Fatalf("Jobs() = %+v, want one job with a last run", jobs)
	}
	if want := start.Add(90 * time.Second).Truncate(time.Minute).Add(time.Minute); !jobs[0].NextRun.Equal(want) {
		t.Errorf("NextRun = %v, want %v", jobs[0].NextRun, want)
	}
}

func TestScheduler_NoOverlap(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	s := New(clock, Config{})
	release := make(chan struct{})
	started := make(chan struct{}, 10)
	if err := s.Add("slow", "* * * * *", func(context.Context) error {
		started <- struct{}{}
		<-release
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	waitTimer(t, clock)
	clock.Advance(30 * time.Second)
	expectCall(t, started)

	waitTimer(t, clock)
	clock.Advance(time.Minute)
	waitTimer(t, clock)

	select {
	case <-started:
		t.Fatal("job started while its previous run was active")
	default:
	}
	if got := s.Jobs()[0].Skipped; got != 1 {
		t.Errorf("Skipped = %d, want 1", got)
	}
	if !s.Jobs()[0].Running {
		t.Error("Running = false during the slow run")
	}

	close(release)
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestScheduler_RecordsErrors(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	s := New(clock, Config{})
	done := make(chan struct{}, 1)
	_ = s.Add("fails", "* * * * *", func(context.Context) error {
		defer func() { done <- struct{}{} }()
		return errors.New("upstream down")
	})
	_ = s.Add("panics", "* * * * *", func(context.Context) error {
		panic("boom")
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	waitTimer(t, clock)
	clock.Advance(30 * time.Second)
	expectCall(t, done)
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}

	jobs := s.Jobs()
	if jobs[0].Name != "fails" || jobs[0].LastError != "upstream down" {
		t.Errorf("jobs[0] = %+v, want fails with error", jobs[0])
	}
	if jobs[1].Name != "panics" || jobs[1].LastError == "" {
		t.Errorf("jobs[1] = %+v, want recorded panic", jobs[1])
	}
}

func TestScheduler_JobTimeout(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	s := New(clock, Config{JobTimeout: 10 * time.Millisecond})
	errCh := make(chan error, 1)
	_ = s.Add("hang", "* * * * *", func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	waitTimer(t, clock)
	clock.Advance(30 * time.Second)
	select {
	case err := <-errCh:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("ctx error = %v, want DeadlineExceeded", err)
		}
	case <-time.After(time.Second):
		t.Fatal("job context never timed out")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(clockwork.NewFakeClockAt(start), Config{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
	if !s.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestScheduler_ContextCancelStopsLoop(t *testing.T) {
	s := New(clockwork.NewFakeClockAt(start), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		_ = s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() hung after context cancel")
	}
}

func TestScheduler_AddValidation(t *testing.T) {
	s := New(nil, Config{})
	noop := func(context.Context) error { return nil }
	if err := s.Add("a", "bad", noop); err == nil {
		t.Error("Add(bad cron) error = nil")
	}
	if err := s.Add("a", "0 * * * *", noop); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("a", "0 * * * *", noop); err == nil {
		t.Error("Add(duplicate) error = nil")
	}
}

func TestAddBeatSchedule(t *testing.T) {
	cfg := config.SchedulerConfig{
		SyncCron:            "0 2 * * *",
		RecommendationsCron: "0 3 * * *",
		CleanupCron:         "0 4 * * *",
		TrendingCron:        "0 * * * *",
		PopularityCron:      "", // disabled
	}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 1, 59, 0, 0, time.UTC))
	s := New(clock, Config{})

	ran := make(chan string, 10)
	if err := s.AddBeatSchedule(cfg, func(_ context.Context, task string) error {
		ran <- task
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	jobs := s.Jobs()
	if len(jobs) != 4 {
		t.Fatalf("len(Jobs()) = %d, want 4", len(jobs))
	}
	byName := map[string]JobInfo{}
	for _, j := range jobs {
		byName[j.Name] = j
	}
	want := map[string]time.Time{
		tasks.SyncTMDbData:                    time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC),
		tasks.GenerateUserRecommendations:     time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC),
		tasks.CleanupExpired:                  time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC),
		tasks.GenerateTrendingRecommendations: time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC),
	}
	for name, next := range want {
		if got := byName[name].NextRun; !got.Equal(next) {
			t.Errorf("%s NextRun = %v, want %v", name, got, next)
		}
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	waitTimer(t, clock)
	clock.Advance(time.Minute)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case task := <-ran:
			got[task] = true
		case <-time.After(time.Second):
			t.Fatal("beat tasks did not run")
		}
	}
	if !got[tasks.SyncTMDbData] || !got[tasks.GenerateTrendingRecommendations] {
		t.Errorf("ran = %v, want sync and trending at 02:00", got)
	}
}

func TestBeatSchedule_Defaults(t *testing.T) {
	entries := BeatSchedule(config.SchedulerConfig{
		SyncCron:            "0 2 * * *",
		RecommendationsCron: "0 3 * * *",
		CleanupCron:         "0 4 * * *",
		TrendingCron:        "0 * * * *",
		PopularityCron:      "30 * * * *",
	})
	if len(entries) != 5 {
		t.Fatalf("len(BeatSchedule()) = %d, want 5", len(entries))
	}
	for _, e := range entries {
		if _, err := Parse(e.Cron); err != nil {
			t.Errorf("%s cron %q: %v", e.Task, e.Cron, err)
		}
	}
}
