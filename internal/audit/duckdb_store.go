// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/metrics"
)

// DuckDBStore implements Store on the audit_events table.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a store over db. Call CreateTable before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

var auditSchema = []string{
	`CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL,
		type TEXT NOT NULL,
		outcome TEXT NOT NULL,
		user_id BIGINT,
		email TEXT,
		ip_address TEXT,
		reason TEXT,
		request_id TEXT,
		metadata TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_events(type)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_events(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_ip_address ON audit_events(ip_address)`,
}

const auditColumns = `id, timestamp, type, outcome, user_id, email, ip_address, reason, request_id, metadata`

// CreateTable creates the audit_events table and its indexes.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	for _, stmt := range auditSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute audit schema statement: %w", err)
		}
	}
	logging.Debug().Msg("Audit events table created/verified")
	return nil
}

// Save inserts one event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (`+auditColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp, string(event.Type), string(event.Outcome),
		nullInt64(event.UserID), nullString(event.Email), nullString(event.IPAddress),
		nullString(event.Reason), nullString(event.RequestID), nullString(string(event.Metadata)),
	)
	metrics.RecordDBQuery("insert", "audit_events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	where, args := buildConditions(filter)
	query := `SELECT ` + auditColumns + ` FROM audit_events` + where +
		fmt.Sprintf(` ORDER BY timestamp DESC, id DESC LIMIT %d`, filter.limit())
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "audit_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Count returns the number of matching events.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	where, args := buildConditions(filter)
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return n, nil
}

// Delete removes events older than olderThan.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	return n, nil
}

// Stats summarizes the table.
func (s *DuckDBStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var oldest, newest sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(timestamp), MAX(timestamp) FROM audit_events`,
	).Scan(&stats.TotalEvents, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit totals: %w", err)
	}
	if oldest.Valid {
		stats.OldestEvent = &oldest.Time
	}
	if newest.Valid {
		stats.NewestEvent = &newest.Time
	}

	if stats.EventsByType, err = s.countByColumn(ctx, "type"); err != nil {
		return nil, err
	}
	if stats.EventsByOutcome, err = s.countByColumn(ctx, "outcome"); err != nil {
		return nil, err
	}
	return stats, nil
}

// countByColumn groups by a fixed column name; callers never pass input.
func (s *DuckDBStore) countByColumn(ctx context.Context, column string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM audit_events GROUP BY %s`, column, column))
	if err != nil {
		return nil, fmt.Errorf("failed to get %s counts: %w", column, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		out[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s counts: %w", column, err)
	}
	return out, nil
}

func buildConditions(filter QueryFilter) (string, []any) {
	var conds []string
	var args []any

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conds = append(conds, "type IN ("+strings.Join(placeholders, ",")+")")
	}
	if filter.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if filter.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.IPAddress != "" {
		conds = append(conds, "ip_address = ?")
		args = append(args, filter.IPAddress)
	}
	if filter.Since != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, *filter.Since)
	}
	if filter.Until != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, *filter.Until)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var (
		e                                           Event
		eventType, outcome                          string
		userID                                      sql.NullInt64
		email, ip, reason, requestID, metadataValue sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Timestamp, &eventType, &outcome, &userID,
		&email, &ip, &reason, &requestID, &metadataValue); err != nil {
		return Event{}, err
	}
	e.Type = EventType(eventType)
	e.Outcome = Outcome(outcome)
	e.UserID = userID.Int64
	e.Email = email.String
	e.IPAddress = ip.String
	e.Reason = reason.String
	e.RequestID = requestID.String
	if metadataValue.Valid && metadataValue.String != "" {
		e.Metadata = []byte(metadataValue.String)
	}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
