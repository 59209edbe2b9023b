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
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/recommend"
)

const movieColumns = `id, tmdb_id, title, original_title, overview, release_date, poster_path,
	backdrop_path, adult, original_language, popularity, vote_average, vote_count, genre_ids,
	created_at, updated_at`

// movieSortColumns maps accepted sort keys to columns.
var movieSortColumns = map[string]string{
	models.SortPopularity:  "popularity",
	models.SortVoteAverage: "vote_average",
	models.SortReleaseDate: "release_date",
	models.SortTitle:       "title",
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner) (*models.Movie, error) {
	var (
		m       models.Movie
		release sql.NullTime
		genres  string
	)
	err := s.Scan(&m.ID, &m.TMDbID, &m.Title, &m.OriginalTitle, &m.Overview, &release,
		&m.PosterPath, &m.BackdropPath, &m.Adult, &m.OriginalLanguage, &m.Popularity,
		&m.VoteAverage, &m.VoteCount, &genres, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.ReleaseDate = timePtr(release)
	m.GenreIDs = decodeGenreIDs(genres)
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

// encodeGenreIDs renders ids as a DuckDB list literal, e.g. "[28,12]".
func encodeGenreIDs(ids []int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	b.WriteByte(']')
	return b.String()
}

// decodeGenreIDs parses a list literal; malformed elements are skipped.
func decodeGenreIDs(s string) []int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	ids := []int{}
	if strings.TrimSpace(s) == "" {
		return ids
	}
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// nullDate renders an optional date as YYYY-MM-DD; queries cast it back to
// DATE through VARCHAR so the driver binds a plain string.
func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(models.DateLayout)
}

// UpsertMovie inserts or updates a movie keyed by TMDb id and fills in the
// row's id and timestamps.
func (db *DB) UpsertMovie(ctx context.Context, m *models.Movie) (err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "movies", time.Now(), &err)

	if m.TMDbID == 0 {
		return errors.New("movie tmdb_id is required")
	}
	if m.GenreIDs == nil {
		m.GenreIDs = []int{}
	}
	now := db.utcNow()

	query := `
		INSERT INTO movies (tmdb_id, title, original_title, overview, release_date, poster_path,
			backdrop_path, adult, original_language, popularity, vote_average, vote_count,
			genre_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, CAST(CAST(? AS VARCHAR) AS DATE), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tmdb_id) DO UPDATE SET
			title = EXCLUDED.title,
			original_title = EXCLUDED.original_title,
			overview = EXCLUDED.overview,
			release_date = EXCLUDED.release_date,
			poster_path = EXCLUDED.poster_path,
			backdrop_path = EXCLUDED.backdrop_path,
			adult = EXCLUDED.adult,
			original_language = EXCLUDED.original_language,
			popularity = EXCLUDED.popularity,
			vote_average = EXCLUDED.vote_average,
			vote_count = EXCLUDED.vote_count,
			genre_ids = EXCLUDED.genre_ids,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	err = db.conn.QueryRowContext(ctx, query,
		m.TMDbID, m.Title, m.OriginalTitle, m.Overview, nullDate(m.ReleaseDate), m.PosterPath,
		m.BackdropPath, m.Adult, m.OriginalLanguage, m.Popularity, m.VoteAverage, m.VoteCount,
		encodeGenreIDs(m.GenreIDs), now, now,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert movie tmdb_id=%d: %w", m.TMDbID, err)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = now
	return nil
}

// GetMovieByID returns ErrNotFound when no movie has the id.
func (db *DB) GetMovieByID(ctx context.Context, id int64) (*models.Movie, error) {
	return db.getMovie(ctx, "id", id)
}

// GetMovieByTMDbID returns ErrNotFound when the TMDb id is not mirrored.
func (db *DB) GetMovieByTMDbID(ctx context.Context, tmdbID int64) (*models.Movie, error) {
	return db.getMovie(ctx, "tmdb_id", tmdbID)
}

func (db *DB) getMovie(ctx context.Context, column string, value int64) (m *models.Movie, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "movies", time.Now(), &err)

	// column is one of two literals above.
	query := "SELECT " + movieColumns + " FROM movies WHERE " + column + " = ?"
	m, err = scanMovie(db.conn.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get movie %s=%d: %w", column, value, err)
	}
	return m, nil
}

// MoviesByIDs loads several movies at once. Unknown ids are absent from the
// returned map.
func (db *DB) MoviesByIDs(ctx context.Context, ids []int64) (out map[int64]*models.Movie, err error) {
	out = make(map[int64]*models.Movie, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "movies", time.Now(), &err)

	placeholders, args := int64Placeholders(ids)
	query := "SELECT " + movieColumns + " FROM movies WHERE id IN (" + placeholders + ")"
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movies by ids: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		m, scanErr := scanMovie(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan movie: %w", scanErr)
		}
		out[m.ID] = m
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return out, nil
}

func int64Placeholders(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	marks := make([]string, len(ids))
	for i, id := range ids {
		args[i] = id
		marks[i] = "?"
	}
	return strings.Join(marks, ", "), args
}

// buildMovieWhere renders the filter's predicates.
func buildMovieWhere(f *models.MovieFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if len(f.GenreIDs) > 0 {
		clauses = append(clauses, "list_has_any(CAST(genre_ids AS INTEGER[]), CAST(CAST(? AS VARCHAR) AS INTEGER[]))")
		args = append(args, encodeGenreIDs(f.GenreIDs))
	}
	if f.ReleasedAfter != nil {
		clauses = append(clauses, "release_date >= CAST(CAST(? AS VARCHAR) AS DATE)")
		args = append(args, nullDate(f.ReleasedAfter))
	}
	if f.ReleasedBy != nil {
		clauses = append(clauses, "release_date <= CAST(CAST(? AS VARCHAR) AS DATE)")
		args = append(args, nullDate(f.ReleasedBy))
	}
	if f.MinRating != nil {
		clauses = append(clauses, "vote_average >= ?")
		args = append(args, *f.MinRating)
	}
	if f.MaxRating != nil {
		clauses = append(clauses, "vote_average <= ?")
		args = append(args, *f.MaxRating)
	}
	if f.Adult != nil {
		clauses = append(clauses, "adult = ?")
		args = append(args, *f.Adult)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		clauses = append(clauses,
			"(contains(lower(title), lower(?)) OR contains(lower(original_title), lower(?)) OR contains(lower(overview), lower(?)))")
		args = append(args, q, q, q)
	}
	if len(f.ExcludeIDs) > 0 {
		placeholders, excludeArgs := int64Placeholders(f.ExcludeIDs)
		clauses = append(clauses, "id NOT IN ("+placeholders+")")
		args = append(args, excludeArgs...)
	}
	if f.MinPopularity > 0 {
		clauses = append(clauses, "popularity > ?")
		args = append(args, f.MinPopularity)
	}
	if f.MinVoteAverage > 0 {
		clauses = append(clauses, "vote_average > ?")
		args = append(args, f.MinVoteAverage)
	}
	if f.MinVoteCount > 0 {
		clauses = append(clauses, "vote_count > ?")
		args = append(args, f.MinVoteCount)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// buildMovieOrder maps sort keys through movieSortColumns; unknown keys are
// dropped. id breaks ties so paging is stable.
func buildMovieOrder(keys []string) string {
	if len(keys) == 0 {
		keys = []string{"-" + models.SortPopularity, "-" + models.SortVoteAverage}
	}
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		dir := "ASC"
		if strings.HasPrefix(k, "-") {
			dir = "DESC"
			k = k[1:]
		}
		col, ok := movieSortColumns[k]
		if !ok {
			continue
		}
		parts = append(parts, col+" "+dir+" NULLS LAST")
	}
	parts = append(parts, "id ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

// ListMovies returns one page of movies matching the filter and the total
// number of matches. A non-positive Limit returns every match.
func (db *DB) ListMovies(ctx context.Context, f models.MovieFilter) (movies []models.Movie, total int, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("list", "movies", time.Now(), &err)

	where, args := buildMovieWhere(&f)

	if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	query := "SELECT " + movieColumns + " FROM movies" + where + buildMovieOrder(f.OrderBy)
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		offset := f.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, f.Limit, offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	defer closeWithLog(rows, "rows")

	movies = make([]models.Movie, 0)
	for rows.Next() {
		m, scanErr := scanMovie(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("scan movie: %w", scanErr)
		}
		movies = append(movies, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, total, nil
}

// ListMoviesForRecommendation returns the feature table for every movie.
func (db *DB) ListMoviesForRecommendation(ctx context.Context) (features []recommend.MovieFeatures, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("list", "movies", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, genre_ids, popularity, vote_average, vote_count FROM movies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query movie features: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			f      recommend.MovieFeatures
			genres string
		)
		if err = rows.Scan(&f.ID, &genres, &f.Popularity, &f.VoteAverage, &f.VoteCount); err != nil {
			return nil, fmt.Errorf("scan movie features: %w", err)
		}
		f.GenreIDs = decodeGenreIDs(genres)
		features = append(features, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movie features: %w", err)
	}
	return features, nil
}

// UpdateMoviePopularityFromRatings recomputes popularity for every rated
// movie as (avg/10*0.6 + min(count/100, 1)*0.4)*100 and returns the number
// of movies updated. Unrated movies keep their TMDb popularity.
func (db *DB) UpdateMoviePopularityFromRatings(ctx context.Context) (updated int64, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("update", "movies", time.Now(), &err)

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE movies SET popularity = s.score, updated_at = ?
		FROM (
			SELECT movie_id,
				(AVG(rating) / 10.0 * 0.6 + LEAST(COUNT(*) / 100.0, 1.0) * 0.4) * 100 AS score
			FROM ratings
			GROUP BY movie_id
		) s
		WHERE movies.id = s.movie_id`, db.utcNow())
	if err != nil {
		return 0, fmt.Errorf("update popularity: %w", err)
	}
	updated, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return updated, nil
}

// UpsertGenre inserts or renames a genre and reports whether it was created.
func (db *DB) UpsertGenre(ctx context.Context, tmdbID int, name string) (g *models.Genre, created bool, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "genres", time.Now(), &err)

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	g = &models.Genre{TMDbID: tmdbID, Name: name}
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM genres WHERE tmdb_id = ?`, tmdbID).Scan(&g.ID, &g.CreatedAt)
	switch {
	case err == nil:
		if _, err = db.conn.ExecContext(ctx, `UPDATE genres SET name = ? WHERE id = ?`, name, g.ID); err != nil {
			return nil, false, fmt.Errorf("update genre %d: %w", tmdbID, err)
		}
		g.CreatedAt = g.CreatedAt.UTC()
		return g, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, fmt.Errorf("lookup genre %d: %w", tmdbID, err)
	}

	g.CreatedAt = db.utcNow()
	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO genres (tmdb_id, name, created_at) VALUES (?, ?, ?) RETURNING id`,
		tmdbID, name, g.CreatedAt).Scan(&g.ID)
	if err != nil {
		return nil, false, fmt.Errorf("insert genre %d: %w", tmdbID, err)
	}
	return g, true, nil
}

// ListGenres returns all genres ordered by name.
func (db *DB) ListGenres(ctx context.Context) (genres []models.Genre, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("list", "genres", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `SELECT id, tmdb_id, name, created_at FROM genres ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer closeWithLog(rows, "rows")

	genres = make([]models.Genre, 0)
	for rows.Next() {
		var g models.Genre
		if err = rows.Scan(&g.ID, &g.TMDbID, &g.Name, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		g.CreatedAt = g.CreatedAt.UTC()
		genres = append(genres, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genres: %w", err)
	}
	return genres, nil
}
