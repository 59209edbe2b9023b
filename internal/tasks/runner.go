// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/metrics"
)

// HistorySize is the number of runs kept in memory.
const HistorySize = 50

var (
	// ErrUnknownTask is returned for names that were never registered.
	ErrUnknownTask = errors.New("unknown task")

	// ErrAlreadyRunning is returned when a task is started twice.
	ErrAlreadyRunning = errors.New("task already running")
)

// Result summarizes a finished run.
type Result struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Func is a task body.
type Func func(ctx context.Context) (Result, error)

// Status of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one execution of a task.
type Run struct {
	ID         string     `json:"id"`
	Task       string     `json:"task"`
	Trigger    string     `json:"trigger"`
	Status     Status     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	Result     *Result    `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Runner executes registered tasks and records their history.
type Runner struct {
	clock clockwork.Clock

	mu      sync.Mutex
	tasks   map[string]Func
	running map[string]string // task -> run id
	history []Run             // oldest first, at most HistorySize
	wg      sync.WaitGroup
}

// NewRunner creates an empty runner. A nil clock uses the real clock.
func NewRunner(clock clockwork.Clock) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{
		clock:   clock,
		tasks:   make(map[string]Func),
		running: make(map[string]string),
	}
}

// Register adds or replaces a task.
func (r *Runner) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = fn
}

// Names returns the registered task names, sorted.
func (r *Runner) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Runner) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[name]
	return ok
}

// Run executes a task synchronously and returns the finished run. The
// task's own error is reported in both the run and the returned error.
func (r *Runner) Run(ctx context.Context, name, trigger string) (Run, error) {
	fn, run, err := r.begin(name, trigger)
	if err != nil {
		return Run{}, err
	}
	return r.execute(ctx, fn, run)
}

// Start executes a task in the background and returns its run id. The run
// outlives ctx's cancellation but keeps its values.
func (r *Runner) Start(ctx context.Context, name, trigger string) (string, error) {
	fn, run, err := r.begin(name, trigger)
	if err != nil {
		return "", err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_, _ = r.execute(context.WithoutCancel(ctx), fn, run)
	}()
	return run.ID, nil
}

// Wait blocks until every background run finishes.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// IsRunning reports whether name has an active run.
func (r *Runner) IsRunning(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[name]
	return ok
}

// History returns up to limit runs, newest first. limit <= 0 returns all.
func (r *Runner) History(limit int) []Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Run, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.history[i])
	}
	return out
}

// Get returns a run by id.
func (r *Runner) Get(id string) (Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].ID == id {
			return r.history[i], true
		}
	}
	return Run{}, false
}

func (r *Runner) begin(name, trigger string) (Func, Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := r.tasks[name]
	if !ok {
		return nil, Run{}, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	if _, busy := r.running[name]; busy {
		return nil, Run{}, fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
	}

	run := Run{
		ID:        uuid.NewString(),
		Task:      name,
		Trigger:   trigger,
		Status:    StatusRunning,
		StartedAt: r.clock.Now().UTC(),
	}
	r.running[name] = run.ID
	r.record(run)
	return fn, run, nil
}

func (r *Runner) execute(ctx context.Context, fn Func, run Run) (out Run, err error) {
	logger := logging.Ctx(ctx).With().
		Str("component", "tasks").
		Str("task", run.Task).
		Str("run_id", run.ID).
		Str("trigger", run.Trigger).
		Logger()
	logger.Info().Msg("Task started")

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task %s panicked: %v", run.Task, p)
			out = r.finish(run, Result{}, err)
			logger.Error().Err(err).Msg("Task panicked")
		}
	}()

	res, err := fn(ctx)
	run = r.finish(run, res, err)
	if err != nil {
		logger.Error().Err(err).Int64("duration_ms", run.DurationMS).Msg("Task failed")
		return run, err
	}
	logger.Info().Int64("duration_ms", run.DurationMS).Str("result", res.Message).Msg("Task finished")
	return run, nil
}

func (r *Runner) finish(run Run, res Result, err error) Run {
	end := r.clock.Now().UTC()
	elapsed := end.Sub(run.StartedAt)
	run.FinishedAt = &end
	run.DurationMS = elapsed.Milliseconds()
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = StatusSucceeded
		run.Result = &res
	}
	metrics.RecordTaskRun(run.Task, elapsed, err)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, run.Task)
	r.record(run)
	return run
}

// record inserts or updates run in the history. Caller holds mu.
func (r *Runner) record(run Run) {
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].ID == run.ID {
			r.history[i] = run
			return
		}
	}
	r.history = append(r.history, run)
	if len(r.history) > HistorySize {
		r.history = append(r.history[:0:0], r.history[len(r.history)-HistorySize:]...)
	}
}
