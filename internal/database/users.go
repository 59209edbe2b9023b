// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmatch/internal/models"
)

const userColumns = `id, email, username, password_hash, first_name, last_name, date_of_birth,
	bio, avatar, is_active, role, preferences, date_joined, last_login, updated_at`

func scanUser(s rowScanner) (*models.User, error) {
	var (
		u         models.User
		dob       sql.NullTime
		lastLogin sql.NullTime
		prefs     string
	)
	err := s.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&dob, &u.Bio, &u.Avatar, &u.IsActive, &u.Role, &prefs, &u.DateJoined, &lastLogin, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.DateOfBirth = timePtr(dob)
	u.LastLogin = timePtr(lastLogin)
	u.DateJoined = u.DateJoined.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	if prefs != "" {
		if err := json.Unmarshal([]byte(prefs), &u.Preferences); err != nil {
			return nil, fmt.Errorf("decode preferences for user %d: %w", u.ID, err)
		}
	}
	return &u, nil
}

func encodePreferences(p models.UserPreferences) (string, error) {
	if p.Genres == nil {
		p.Genres = []string{}
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}
	if p.Countries == nil {
		p.Countries = []string{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode preferences: %w", err)
	}
	return string(b), nil
}

// checkUnique returns a DuplicateError when another user (other than
// excludeID) already holds the email or username. Must be called with
// writeMu held.
func (db *DB) checkUnique(ctx context.Context, email, username string, excludeID int64) error {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE lower(email) = lower(?) AND id <> ?`, email, excludeID).Scan(&n)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return &DuplicateError{Field: "email"}
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? AND id <> ?`, username, excludeID).Scan(&n)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if n > 0 {
		return &DuplicateError{Field: "username"}
	}
	return nil
}

// CreateUser inserts u and fills in its id and timestamps. Email matching
// is case-insensitive. A collision returns a *DuplicateError naming the
// field.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("insert", "users", time.Now(), &err)

	prefs, err := encodePreferences(u.Preferences)
	if err != nil {
		return err
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if err = db.checkUnique(ctx, u.Email, u.Username, 0); err != nil {
		return err
	}

	now := db.utcNow()
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO users (email, username, password_hash, first_name, last_name, date_of_birth,
			bio, avatar, is_active, role, preferences, date_joined, last_login, updated_at)
		VALUES (?, ?, ?, ?, ?, CAST(CAST(? AS VARCHAR) AS DATE), ?, ?, ?, ?, ?, ?, NULL, ?)
		RETURNING id`,
		u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName, nullDate(u.DateOfBirth),
		u.Bio, u.Avatar, u.IsActive, u.Role, prefs, now, now,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.DateJoined = now
	u.UpdatedAt = now
	u.LastLogin = nil
	return nil
}

// GetUserByID returns ErrNotFound for unknown ids.
func (db *DB) GetUserByID(ctx context.Context, id int64) (u *models.User, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "users", time.Now(), &err)

	u, err = scanUser(db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail matches case-insensitively.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (u *models.User, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "users", time.Now(), &err)

	u, err = scanUser(db.conn.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE lower(email) = lower(?) ORDER BY id LIMIT 1",
		strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpdateUserProfile applies upd to the stored user and returns the result.
func (db *DB) UpdateUserProfile(ctx context.Context, id int64, upd *models.ProfileUpdate) (u *models.User, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("update", "users", time.Now(), &err)

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	current, err := scanUser(db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}

	next := upd.Apply(*current)
	if !strings.EqualFold(next.Email, current.Email) || next.Username != current.Username {
		if err = db.checkUnique(ctx, next.Email, next.Username, id); err != nil {
			return nil, err
		}
	}

	prefs, err := encodePreferences(next.Preferences)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = db.utcNow()

	_, err = db.conn.ExecContext(ctx, `
		UPDATE users SET email = ?, username = ?, first_name = ?, last_name = ?,
			date_of_birth = CAST(CAST(? AS VARCHAR) AS DATE), bio = ?, avatar = ?, preferences = ?, updated_at = ?
		WHERE id = ?`,
		next.Email, next.Username, next.FirstName, next.LastName, nullDate(next.DateOfBirth),
		next.Bio, next.Avatar, prefs, next.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return &next, nil
}

// UpdateUserPreferences merges patch into the stored preferences.
func (db *DB) UpdateUserPreferences(ctx context.Context, id int64, patch models.PreferencesPatch) (prefs models.UserPreferences, err error) {
	u, err := db.UpdateUserProfile(ctx, id, &models.ProfileUpdate{Preferences: patch})
	if err != nil {
		return models.UserPreferences{}, err
	}
	return u.Preferences, nil
}

// UpdatePassword replaces the stored password hash.
func (db *DB) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return db.execUserUpdate(ctx, id, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, db.utcNow(), id)
}

// TouchLastLogin sets last_login to now.
func (db *DB) TouchLastLogin(ctx context.Context, id int64) error {
	return db.execUserUpdate(ctx, id, `UPDATE users SET last_login = ? WHERE id = ?`, db.utcNow(), id)
}

func (db *DB) execUserUpdate(ctx context.Context, id int64, query string, args ...any) (err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("update", "users", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveUsersWithActivity returns up to limit active users that have
// rated or favorited at least one movie, ordered by id.
func (db *DB) ListActiveUsersWithActivity(ctx context.Context, limit int) (ids []int64, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("list", "users", time.Now(), &err)

	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT u.id FROM users u
		WHERE u.is_active AND (
			EXISTS (SELECT 1 FROM ratings r WHERE r.user_id = u.id)
			OR EXISTS (SELECT 1 FROM favorites f WHERE f.user_id = u.id))
		ORDER BY u.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return ids, nil
}
