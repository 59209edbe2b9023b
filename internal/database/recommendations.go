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
	"time"

	"github.com/tomtom215/reelmatch/internal/models"
)

// userPredicate matches user_id against a nullable id. General
// recommendations have no user.
func userPredicate(column string, userID *int64) (string, []any) {
	if userID == nil {
		return column + " IS NULL", nil
	}
	return column + " = ?", []any{*userID}
}

// ReplaceRecommendations atomically replaces the stored recommendations of
// one type for a user (or the general set when userID is nil). Repeated
// movies keep their first occurrence.
func (db *DB) ReplaceRecommendations(ctx context.Context, userID *int64, recType models.RecommendationType, recs []models.Recommendation) (inserted int, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("replace", "recommendations", time.Now(), &err)

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
		}
	}()

	pred, args := userPredicate("user_id", userID)
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM recommendations WHERE recommendation_type = ? AND "+pred,
		append([]any{string(recType)}, args...)...); err != nil {
		return 0, fmt.Errorf("delete recommendations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recommendations (user_id, movie_id, recommendation_type, score, reason, metadata, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "statement")

	now := db.utcNow()
	seen := make(map[int64]struct{}, len(recs))
	for i := range recs {
		r := &recs[i]
		if _, dup := seen[r.MovieID]; dup {
			continue
		}
		seen[r.MovieID] = struct{}{}

		meta, encErr := encodeMetadata(r.Metadata)
		if encErr != nil {
			err = encErr
			return 0, err
		}
		if _, err = stmt.ExecContext(ctx, nullInt64(userID), r.MovieID, string(recType),
			r.Score, r.Reason, meta, now, nullTime(r.ExpiresAt)); err != nil {
			return 0, fmt.Errorf("insert recommendation movie=%d: %w", r.MovieID, err)
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit recommendations: %w", err)
	}
	return inserted, nil
}

// ListRecommendations returns unexpired stored recommendations with their
// movies, best score first. limit <= 0 returns all.
func (db *DB) ListRecommendations(ctx context.Context, userID *int64, recType models.RecommendationType, limit int) (recs []models.Recommendation, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("list", "recommendations", time.Now(), &err)

	pred, args := userPredicate("r.user_id", userID)
	query := `
		SELECT r.id, r.user_id, r.movie_id, r.recommendation_type, r.score, r.reason, r.metadata,
			r.created_at, r.expires_at, ` + prefixedMovieColumns("m") + `
		FROM recommendations r JOIN movies m ON m.id = r.movie_id
		WHERE r.recommendation_type = ? AND ` + pred + `
			AND (r.expires_at IS NULL OR r.expires_at > ?)
		ORDER BY r.score DESC, r.id ASC`
	args = append([]any{string(recType)}, args...)
	args = append(args, db.utcNow())
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	recs = make([]models.Recommendation, 0)
	for rows.Next() {
		var (
			r       models.Recommendation
			uid     sql.NullInt64
			typ     string
			meta    string
			expires sql.NullTime
		)
		m, scanErr := scanMovie(prefixScanner{rows: rows, prefix: []any{
			&r.ID, &uid, &r.MovieID, &typ, &r.Score, &r.Reason, &meta, &r.CreatedAt, &expires,
		}})
		if scanErr != nil {
			return nil, fmt.Errorf("scan recommendation: %w", scanErr)
		}
		r.UserID = int64Ptr(uid)
		r.Type = models.RecommendationType(typ)
		r.Metadata = decodeMetadata(meta)
		r.CreatedAt = r.CreatedAt.UTC()
		r.ExpiresAt = timePtr(expires)
		r.Movie = m
		recs = append(recs, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return recs, nil
}

// DeleteExpiredRecommendations removes recommendations that expired before
// now and returns how many were removed.
func (db *DB) DeleteExpiredRecommendations(ctx context.Context, now time.Time) (int64, error) {
	return db.deleteExpired(ctx, "recommendations", now)
}

// DeleteExpiredCacheEntries removes cache rows that expired before now.
func (db *DB) DeleteExpiredCacheEntries(ctx context.Context, now time.Time) (int64, error) {
	return db.deleteExpired(ctx, "cache_entries", now)
}

func (db *DB) deleteExpired(ctx context.Context, table string, now time.Time) (n int64, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("delete", table, time.Now(), &err)

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	// table is one of two literals above.
	res, err := db.conn.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE expires_at IS NOT NULL AND expires_at < ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired %s: %w", table, err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// PutCacheEntry inserts or replaces a cache row by key.
func (db *DB) PutCacheEntry(ctx context.Context, e *models.CacheEntry) (err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "cache_entries", time.Now(), &err)

	if e.CreatedAt.IsZero() {
		e.CreatedAt = db.utcNow()
	}
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO cache_entries (cache_key, cache_type, data, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			cache_type = EXCLUDED.cache_type,
			data = EXCLUDED.data,
			user_id = EXCLUDED.user_id,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		RETURNING id`,
		e.Key, string(e.Type), string(e.Data), nullInt64(e.UserID), e.CreatedAt.UTC(), e.ExpiresAt.UTC(),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("put cache entry %q: %w", e.Key, err)
	}
	return nil
}

// GetCacheEntry returns ErrNotFound for missing or expired keys.
func (db *DB) GetCacheEntry(ctx context.Context, key string) (e *models.CacheEntry, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "cache_entries", time.Now(), &err)

	var (
		entry models.CacheEntry
		typ   string
		data  string
		uid   sql.NullInt64
	)
	err = db.conn.QueryRowContext(ctx, `
		SELECT id, cache_key, cache_type, data, user_id, created_at, expires_at
		FROM cache_entries WHERE cache_key = ?`, key).
		Scan(&entry.ID, &entry.Key, &typ, &data, &uid, &entry.CreatedAt, &entry.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cache entry %q: %w", key, err)
	}
	entry.Type = models.CacheType(typ)
	entry.Data = []byte(data)
	entry.UserID = int64Ptr(uid)
	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.ExpiresAt = entry.ExpiresAt.UTC()
	if entry.IsExpired(db.utcNow()) {
		return nil, ErrNotFound
	}
	return &entry, nil
}
