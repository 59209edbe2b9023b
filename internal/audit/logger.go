// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/reelmatch/internal/logging"
)

// Config controls buffering and retention.
type Config struct {
	// RetentionDays <= 0 keeps events forever.
	RetentionDays   int
	CleanupInterval time.Duration
	BufferSize      int
}

// DefaultConfig returns 90 day retention with a daily sweep.
func DefaultConfig() Config {
	return Config{
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      1000,
	}
}

// Logger buffers events and persists them asynchronously.
type Logger struct {
	store  Store
	config Config
	clock  clockwork.Clock
	auth   *logging.AuthLogger

	events    chan *Event
	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	dropped   atomic.Int64
}

// NewLogger starts the background writer. Call Close to flush it.
func NewLogger(store Store, cfg Config) *Logger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultConfig().CleanupInterval
	}
	l := &Logger{
		store:  store,
		config: cfg,
		clock:  clockwork.NewRealClock(),
		auth:   logging.NewAuthLogger(),
		events: make(chan *Event, cfg.BufferSize),
		stop:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.writer()
	return l
}

// WithClock replaces the clock used for timestamps and retention.
func (l *Logger) WithClock(c clockwork.Clock) *Logger {
	l.clock = c
	return l
}

func (l *Logger) writer() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stop:
			for {
				select {
				case ev := <-l.events:
					l.write(ev)
				default:
					return
				}
			}
		case ev := <-l.events:
			l.write(ev)
		}
	}
}

func (l *Logger) write(ev *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.store.Save(ctx, ev); err != nil {
		logging.Error().Err(err).Str("type", string(ev.Type)).Msg("Failed to save audit event")
	}
}

// Log assigns an ID and timestamp if missing and queues the event. When
// the buffer is full the event is dropped and counted.
func (l *Logger) Log(ev *Event) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = l.clock.Now().UTC()
	}
	ev.Email = logging.SanitizeEmail(ev.Email)
	if ev.Reason != "" {
		ev.Reason = logging.SanitizeError(ev.Reason)
	}

	select {
	case <-l.stop:
		return
	default:
	}

	select {
	case l.events <- ev:
	default:
		l.dropped.Add(1)
		logging.Warn().Str("type", string(ev.Type)).Msg("Audit buffer full, event dropped")
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Close stops accepting events and flushes the buffer.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() { close(l.stop) })
	l.wg.Wait()
	return nil
}

// Serve implements suture.Service by running the retention sweep.
func (l *Logger) Serve(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			l.sweep(ctx)
		}
	}
}

func (l *Logger) sweep(ctx context.Context) {
	if l.config.RetentionDays <= 0 {
		return
	}
	cutoff := l.clock.Now().UTC().AddDate(0, 0, -l.config.RetentionDays)
	n, err := l.store.Delete(ctx, cutoff)
	if err != nil {
		logging.Warn().Err(err).Msg("Audit retention sweep failed")
		return
	}
	if n > 0 {
		logging.Info().Int64("deleted", n).Int("retention_days", l.config.RetentionDays).Msg("Removed expired audit events")
	}
}

func (l *Logger) String() string {
	return "audit-retention"
}

// Query returns stored events.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of stored events matching filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// Stats summarizes the store.
func (l *Logger) Stats(ctx context.Context) (*Stats, error) {
	return l.store.Stats(ctx)
}

func outcome(ok bool) Outcome {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// LoginSucceeded records a successful login.
func (l *Logger) LoginSucceeded(userID int64, email, ip string) {
	l.auth.LoginSucceeded(userID, email, ip)
	l.Log(&Event{Type: EventTypeLoginSuccess, Outcome: OutcomeSuccess, UserID: userID, Email: email, IPAddress: ip})
}

// LoginFailed records a rejected login.
func (l *Logger) LoginFailed(email, ip, reason string) {
	l.auth.LoginFailed(email, ip, reason)
	l.Log(&Event{Type: EventTypeLoginFailure, Outcome: OutcomeFailure, Email: email, IPAddress: ip, Reason: reason})
}

// Registered records a new account.
func (l *Logger) Registered(userID int64, email, ip string) {
	l.auth.Registered(userID, email, ip)
	l.Log(&Event{Type: EventTypeRegistered, Outcome: OutcomeSuccess, UserID: userID, Email: email, IPAddress: ip})
}

// LoggedOut records a refresh token revocation.
func (l *Logger) LoggedOut(userID int64, ip string) {
	l.auth.LoggedOut(userID, ip)
	l.Log(&Event{Type: EventTypeLogout, Outcome: OutcomeSuccess, UserID: userID, IPAddress: ip})
}

// TokenRefreshed records a refresh attempt.
func (l *Logger) TokenRefreshed(userID int64, success bool, reason string) {
	l.auth.TokenRefreshed(userID, success, reason)
	l.Log(&Event{Type: EventTypeTokenRefresh, Outcome: outcome(success), UserID: userID, Reason: reason})
}

// PasswordChanged records a password change attempt.
func (l *Logger) PasswordChanged(userID int64, success bool, reason string) {
	l.auth.PasswordChanged(userID, success, reason)
	l.Log(&Event{Type: EventTypePasswordChanged, Outcome: outcome(success), UserID: userID, Reason: reason})
}

// TaskRun records an admin-triggered task run.
func (l *Logger) TaskRun(ctx context.Context, userID int64, task, runID, ip string) {
	meta, err := json.Marshal(map[string]string{"task": task, "run_id": runID})
	if err != nil {
		meta = nil
	}
	l.Log(&Event{
		Type:      EventTypeTaskRun,
		Outcome:   OutcomeSuccess,
		UserID:    userID,
		IPAddress: ip,
		RequestID: logging.RequestIDFromContext(ctx),
		Metadata:  meta,
	})
}
