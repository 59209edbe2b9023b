// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/tasks"
)

// DefaultJobTimeout bounds one job run when Config.JobTimeout is unset.
const DefaultJobTimeout = 30 * time.Minute

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("scheduler already running")

// TaskFunc is a scheduled job body.
type TaskFunc func(ctx context.Context) error

// Config holds scheduler settings.
type Config struct {
	// Location evaluates cron expressions. Defaults to UTC.
	Location *time.Location

	// JobTimeout bounds each run. Defaults to DefaultJobTimeout.
	JobTimeout time.Duration
}

type job struct {
	name     string
	schedule *Schedule
	task     TaskFunc

	next    time.Time
	lastRun time.Time
	lastErr error
	running bool
	skipped int
}

// JobInfo is a snapshot of one job.
type JobInfo struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	NextRun   time.Time  `json:"next_run"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Running   bool       `json:"running"`
	Skipped   int        `json:"skipped"`
}

// Scheduler runs jobs on their cron schedules.
type Scheduler struct {
	clock   clockwork.Clock
	loc     *time.Location
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	jobs    []*job
	running bool
	wake    chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	runs    sync.WaitGroup
}

// New creates a scheduler. A nil clock uses the real clock.
func New(clock clockwork.Clock, cfg Config) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}
	return &Scheduler{
		clock:   clock,
		loc:     cfg.Location,
		timeout: cfg.JobTimeout,
		logger:  logging.WithComponent("scheduler"),
		wake:    make(chan struct{}, 1),
	}
}

// Add registers a job. Names must be unique.
func (s *Scheduler) Add(name, cronExpr string, task TaskFunc) error {
	sched, err := Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.name == name {
			return fmt.Errorf("job %s already registered", name)
		}
	}
	s.jobs = append(s.jobs, &job{
		name:     name,
		schedule: sched,
		task:     task,
		next:     sched.NextRun(s.clock.Now(), s.loc),
	})
	s.notify()
	return nil
}

// notify wakes the loop to recompute its sleep. Caller holds mu.
func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start begins the scheduling loop. Jobs run with contexts derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	now := s.clock.Now()
	for _, j := range s.jobs {
		j.next = j.schedule.NextRun(now, s.loc)
	}
	select {
	case <-s.wake:
	default:
	}

	s.logger.Info().Int("jobs", len(s.jobs)).Str("timezone", s.loc.String()).Msg("Starting scheduler")
	go s.loop(ctx, s.stopCh, s.doneCh)
	return nil
}

// Stop ends the loop and waits for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
	s.runs.Wait()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Jobs returns a snapshot of every job, sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := JobInfo{
			Name:     j.name,
			Schedule: j.schedule.String(),
			NextRun:  j.next,
			Running:  j.running,
			Skipped:  j.skipped,
		}
		if !j.lastRun.IsZero() {
			last := j.lastRun
			info.LastRun = &last
		}
		if j.lastErr != nil {
			info.LastError = j.lastErr.Error()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

func (s *Scheduler) loop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		wait, ok := s.untilNext()
		if ok && wait <= 0 {
			s.dispatchDue(ctx)
			continue
		}
		var timerC <-chan time.Time
		var timer clockwork.Timer
		if ok {
			timer = s.clock.NewTimer(wait)
			timerC = timer.Chan()
		}

		select {
		case <-timerC:
			s.dispatchDue(ctx)
		case <-s.wake:
		case <-stopCh:
			stopTimer(timer)
			return
		case <-ctx.Done():
			stopTimer(timer)
			return
		}
		stopTimer(timer)
	}
}

func stopTimer(t clockwork.Timer) {
	if t != nil {
		t.Stop()
	}
}

// untilNext returns the wait until the earliest job, false when there are
// no schedulable jobs.
func (s *Scheduler) untilNext() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var earliest time.Time
	for _, j := range s.jobs {
		if j.next.IsZero() {
			continue
		}
		if earliest.IsZero() || j.next.Before(earliest) {
			earliest = j.next
		}
	}
	if earliest.IsZero() {
		return 0, false
	}
	wait := earliest.Sub(s.clock.Now())
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

func (s *Scheduler) dispatchDue(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.next.IsZero() || j.next.After(now) {
			continue
		}
		j.next = j.schedule.NextRun(now, s.loc)
		if j.running {
			j.skipped++
			s.logger.Warn().Str("job", j.name).Time("next_run", j.next).Msg("Job still running, skipping this slot")
			continue
		}
		j.running = true
		j.lastRun = now
		s.runs.Add(1)
		go s.run(ctx, j)
	}
}

func (s *Scheduler) run(ctx context.Context, j *job) {
	defer s.runs.Done()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.clock.Now()
	err := safeCall(runCtx, j.task)
	elapsed := s.clock.Since(start)

	s.mu.Lock()
	j.running = false
	j.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("job", j.name).Dur("duration", elapsed).Msg("Scheduled job failed")
		return
	}
	s.logger.Debug().Str("job", j.name).Dur("duration", elapsed).Msg("Scheduled job finished")
}

func safeCall(ctx context.Context, fn TaskFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return fn(ctx)
}

// Entry pairs a task name with its cron expression.
type Entry struct {
	Task string
	Cron string
}

// BeatSchedule returns the periodic task schedule from cfg, in the order
// the jobs are registered.
func BeatSchedule(cfg config.SchedulerConfig) []Entry {
	return []Entry{
		{Task: tasks.SyncTMDbData, Cron: cfg.SyncCron},
		{Task: tasks.GenerateUserRecommendations, Cron: cfg.RecommendationsCron},
		{Task: tasks.CleanupExpired, Cron: cfg.CleanupCron},
		{Task: tasks.GenerateTrendingRecommendations, Cron: cfg.TrendingCron},
		{Task: tasks.UpdateMoviePopularity, Cron: cfg.PopularityCron},
	}
}

// RunFunc executes a task by name.
type RunFunc func(ctx context.Context, task string) error

// AddBeatSchedule registers every entry of BeatSchedule(cfg) with run.
// Empty cron expressions disable their entry.
func (s *Scheduler) AddBeatSchedule(cfg config.SchedulerConfig, run RunFunc) error {
	for _, e := range BeatSchedule(cfg) {
		if e.Cron == "" {
			continue
		}
		task := e.Task
		if err := s.Add(task, e.Cron, func(ctx context.Context) error {
			return run(ctx, task)
		}); err != nil {
			return err
		}
	}
	return nil
}
