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

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmatch/internal/models"
)

// AddFavorite favourites a movie. A second favourite of the same movie
// returns ErrDuplicate.
func (db *DB) AddFavorite(ctx context.Context, userID, movieID int64) (fav *models.Favorite, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("insert", "favorites", time.Now(), &err)

	fav = &models.Favorite{UserID: userID, MovieID: movieID, CreatedAt: db.utcNow()}
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO favorites (user_id, movie_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id`, userID, movieID, fav.CreatedAt).Scan(&fav.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &DuplicateError{Field: "movie"}
	}
	if err != nil {
		return nil, fmt.Errorf("insert favorite: %w", err)
	}
	return fav, nil
}

// RemoveFavorite deletes one of the user's favourites by favourite id and
// returns the movie it referenced. Favourites of other users are
// ErrNotFound.
func (db *DB) RemoveFavorite(ctx context.Context, userID, favoriteID int64) (movieID int64, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("delete", "favorites", time.Now(), &err)

	err = db.conn.QueryRowContext(ctx,
		`DELETE FROM favorites WHERE id = ? AND user_id = ? RETURNING movie_id`,
		favoriteID, userID).Scan(&movieID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("delete favorite %d: %w", favoriteID, err)
	}
	return movieID, nil
}

// ListFavorites returns the user's favourites with their movies, newest first.
func (db *DB) ListFavorites(ctx context.Context, userID int64) (favs []models.Favorite, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("list", "favorites", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.id, f.user_id, f.movie_id, f.created_at, `+prefixedMovieColumns("m")+`
		FROM favorites f JOIN movies m ON m.id = f.movie_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer closeWithLog(rows, "rows")

	favs = make([]models.Favorite, 0)
	for rows.Next() {
		var f models.Favorite
		m, scanErr := scanMovie(prefixScanner{rows: rows, prefix: []any{&f.ID, &f.UserID, &f.MovieID, &f.CreatedAt}})
		if scanErr != nil {
			return nil, fmt.Errorf("scan favorite: %w", scanErr)
		}
		f.CreatedAt = f.CreatedAt.UTC()
		f.Movie = m
		favs = append(favs, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return favs, nil
}

// IsFavorite reports whether the user has favourited the movie.
func (db *DB) IsFavorite(ctx context.Context, userID, movieID int64) (ok bool, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "favorites", time.Now(), &err)

	var n int
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ? AND movie_id = ?`, userID, movieID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return n > 0, nil
}

// FavoriteMovieIDs returns the movie ids the user has favourited.
func (db *DB) FavoriteMovieIDs(ctx context.Context, userID int64) ([]int64, error) {
	return db.queryIDs(ctx, "favorites",
		`SELECT movie_id FROM favorites WHERE user_id = ? ORDER BY movie_id`, userID)
}

// UpsertRating creates or replaces the user's rating of a movie. created is
// false when an existing rating was updated.
func (db *DB) UpsertRating(ctx context.Context, userID, movieID int64, value float64, review string) (r *models.Rating, created bool, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "ratings", time.Now(), &err)

	if err = models.ValidateRating(value); err != nil {
		return nil, false, err
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	now := db.utcNow()
	r = &models.Rating{UserID: userID, MovieID: movieID, Rating: value, Review: review, UpdatedAt: now}

	err = db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM ratings WHERE user_id = ? AND movie_id = ?`,
		userID, movieID).Scan(&r.ID, &r.CreatedAt)
	switch {
	case err == nil:
		_, err = db.conn.ExecContext(ctx,
			`UPDATE ratings SET rating = ?, review = ?, updated_at = ? WHERE id = ?`,
			value, review, now, r.ID)
		if err != nil {
			return nil, false, fmt.Errorf("update rating %d: %w", r.ID, err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		return r, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, fmt.Errorf("lookup rating: %w", err)
	}

	r.CreatedAt = now
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO ratings (user_id, movie_id, rating, review, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		userID, movieID, value, review, now, now).Scan(&r.ID)
	if err != nil {
		return nil, false, fmt.Errorf("insert rating: %w", err)
	}
	return r, true, nil
}

// GetRating returns ErrNotFound when the user has not rated the movie.
func (db *DB) GetRating(ctx context.Context, userID, movieID int64) (r *models.Rating, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "ratings", time.Now(), &err)

	r = &models.Rating{}
	err = db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, movie_id, rating, review, created_at, updated_at
		FROM ratings WHERE user_id = ? AND movie_id = ?`, userID, movieID).
		Scan(&r.ID, &r.UserID, &r.MovieID, &r.Rating, &r.Review, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rating: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

// ListRatingsByUser returns the user's ratings with movies, newest first.
func (db *DB) ListRatingsByUser(ctx context.Context, userID int64) (ratings []models.Rating, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("list", "ratings", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.movie_id, r.rating, r.review, r.created_at, r.updated_at, `+prefixedMovieColumns("m")+`
		FROM ratings r JOIN movies m ON m.id = r.movie_id
		WHERE r.user_id = ?
		ORDER BY r.updated_at DESC, r.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer closeWithLog(rows, "rows")

	ratings = make([]models.Rating, 0)
	for rows.Next() {
		var r models.Rating
		m, scanErr := scanMovie(prefixScanner{rows: rows, prefix: []any{
			&r.ID, &r.UserID, &r.MovieID, &r.Rating, &r.Review, &r.CreatedAt, &r.UpdatedAt,
		}})
		if scanErr != nil {
			return nil, fmt.Errorf("scan rating: %w", scanErr)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		r.UpdatedAt = r.UpdatedAt.UTC()
		r.Movie = m
		ratings = append(ratings, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// AllRatings returns every rating as training input.
func (db *DB) AllRatings(ctx context.Context) (out []models.Rating, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("list", "ratings", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, movie_id, rating FROM ratings ORDER BY user_id, movie_id`)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var r models.Rating
		if err = rows.Scan(&r.ID, &r.UserID, &r.MovieID, &r.Rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return out, nil
}

// CountRatingsByUser returns how many movies the user has rated.
func (db *DB) CountRatingsByUser(ctx context.Context, userID int64) (n int, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "ratings", time.Now(), &err)

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return n, nil
}

// CreateInteraction stores an interaction and returns its id.
func (db *DB) CreateInteraction(ctx context.Context, in *models.Interaction) (id int64, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("insert", "interactions", time.Now(), &err)

	meta, err := encodeMetadata(in.Metadata)
	if err != nil {
		return 0, err
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = db.utcNow()
	}

	var value any
	if in.Value != nil {
		value = *in.Value
	}
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO interactions (user_id, movie_id, interaction_type, value, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		in.UserID, in.MovieID, string(in.Type), value, meta, in.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert interaction: %w", err)
	}
	in.ID = id
	return id, nil
}

// InteractedMovieIDs returns the distinct movies the user interacted with.
func (db *DB) InteractedMovieIDs(ctx context.Context, userID int64) ([]int64, error) {
	return db.queryIDs(ctx, "interactions",
		`SELECT DISTINCT movie_id FROM interactions WHERE user_id = ? ORDER BY movie_id`, userID)
}

func (db *DB) queryIDs(ctx context.Context, table, query string, args ...any) (ids []int64, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("list", table, time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s ids: %w", table, err)
	}
	defer closeWithLog(rows, "rows")

	ids = make([]int64, 0)
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s ids: %w", table, err)
	}
	return ids, nil
}

func encodeMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

func decodeMetadata(s string) map[string]any {
	if s == "" || s == "{}" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

// prefixedMovieColumns qualifies movieColumns with a table alias.
func prefixedMovieColumns(alias string) string {
	return alias + ".id, " + alias + ".tmdb_id, " + alias + ".title, " + alias + ".original_title, " +
		alias + ".overview, " + alias + ".release_date, " + alias + ".poster_path, " +
		alias + ".backdrop_path, " + alias + ".adult, " + alias + ".original_language, " +
		alias + ".popularity, " + alias + ".vote_average, " + alias + ".vote_count, " +
		alias + ".genre_ids, " + alias + ".created_at, " + alias + ".updated_at"
}

// prefixScanner scans leading columns into prefix before handing the movie
// columns to scanMovie.
type prefixScanner struct {
	rows   *sql.Rows
	prefix []any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append(p.prefix, dest...)...)
}
