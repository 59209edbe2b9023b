// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	EventTypeRegistered      EventType = "account.registered"
	EventTypePasswordChanged EventType = "account.password_changed"

	EventTypeLoginSuccess EventType = "auth.login_success"
	EventTypeLoginFailure EventType = "auth.login_failure"
	EventTypeLogout       EventType = "auth.logout"
	EventTypeTokenRefresh EventType = "auth.token_refresh"

	EventTypeTaskRun EventType = "admin.task_run"
)

// Outcome indicates whether an action succeeded or failed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one audit record.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Outcome   Outcome   `json:"outcome"`

	// UserID is 0 when the actor is unknown, as for a failed login.
	UserID int64 `json:"user_id,omitempty"`

	// Email is stored masked.
	Email     string `json:"email,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// QueryFilter selects events. Zero fields match everything.
type QueryFilter struct {
	Types     []EventType
	Outcome   Outcome
	UserID    int64
	IPAddress string
	Since     *time.Time
	Until     *time.Time

	// Limit <= 0 means DefaultQueryLimit. Results are newest first.
	Limit  int
	Offset int
}

// DefaultQueryLimit bounds unfiltered queries.
const DefaultQueryLimit = 100

func (f QueryFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultQueryLimit
	}
	return f.Limit
}

// Stats summarizes the stored events.
type Stats struct {
	TotalEvents     int64            `json:"total_events"`
	EventsByType    map[string]int64 `json:"events_by_type"`
	EventsByOutcome map[string]int64 `json:"events_by_outcome"`
	OldestEvent     *time.Time       `json:"oldest_event,omitempty"`
	NewestEvent     *time.Time       `json:"newest_event,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes events older than olderThan and returns how many.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)

	Stats(ctx context.Context) (*Stats, error)
}
