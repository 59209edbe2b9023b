// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaVersion is bumped whenever tableCreationQueries changes shape.
const schemaVersion = 1

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates sequences, tables and indexes.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries returns the idempotent schema statements in order.
//
// Indexes are limited to columns that are never updated in place.
func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_movies START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_genres START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_users START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_favorites START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_ratings START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_interactions START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_recommendations START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_cache_entries START 1`,

		`CREATE TABLE IF NOT EXISTS movies (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_movies'),
			tmdb_id BIGINT NOT NULL UNIQUE,
			title VARCHAR NOT NULL,
			original_title VARCHAR NOT NULL DEFAULT '',
			overview VARCHAR NOT NULL DEFAULT '',
			release_date DATE,
			poster_path VARCHAR NOT NULL DEFAULT '',
			backdrop_path VARCHAR NOT NULL DEFAULT '',
			adult BOOLEAN NOT NULL DEFAULT false,
			original_language VARCHAR NOT NULL DEFAULT '',
			popularity DOUBLE NOT NULL DEFAULT 0,
			vote_average DOUBLE NOT NULL DEFAULT 0,
			vote_count INTEGER NOT NULL DEFAULT 0,
			genre_ids VARCHAR NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS genres (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_genres'),
			tmdb_id INTEGER NOT NULL UNIQUE,
			name VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_users'),
			email VARCHAR NOT NULL,
			username VARCHAR NOT NULL,
			password_hash VARCHAR NOT NULL,
			first_name VARCHAR NOT NULL DEFAULT '',
			last_name VARCHAR NOT NULL DEFAULT '',
			date_of_birth DATE,
			bio VARCHAR NOT NULL DEFAULT '',
			avatar VARCHAR NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT true,
			role VARCHAR NOT NULL DEFAULT 'user',
			preferences VARCHAR NOT NULL DEFAULT '{}',
			date_joined TIMESTAMP NOT NULL,
			last_login TIMESTAMP,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS favorites (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_favorites'),
			user_id BIGINT NOT NULL,
			movie_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, movie_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ratings (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_ratings'),
			user_id BIGINT NOT NULL,
			movie_id BIGINT NOT NULL,
			rating DOUBLE NOT NULL CHECK (rating >= 0.5 AND rating <= 5.0),
			review VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, movie_id)
		)`,

		`CREATE TABLE IF NOT EXISTS interactions (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_interactions'),
			user_id BIGINT NOT NULL,
			movie_id BIGINT NOT NULL,
			interaction_type VARCHAR NOT NULL,
			value DOUBLE,
			metadata VARCHAR NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS recommendations (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_recommendations'),
			user_id BIGINT,
			movie_id BIGINT NOT NULL,
			recommendation_type VARCHAR NOT NULL,
			score DOUBLE NOT NULL,
			reason VARCHAR NOT NULL DEFAULT '',
			metadata VARCHAR NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS cache_entries (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_cache_entries'),
			cache_key VARCHAR NOT NULL UNIQUE,
			cache_type VARCHAR NOT NULL,
			data VARCHAR NOT NULL,
			user_id BIGINT,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_user ON ratings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_movie ON ratings(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_type ON recommendations(recommendation_type)`,
	}
}

// schemaMigrationsTable tracks applied schema versions.
const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL
)`

// runVersionedMigrations records schemaVersion once.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		schemaVersion, db.utcNow()); err != nil {
		return fmt.Errorf("failed to record schema version %d: %w", schemaVersion, err)
	}
	return nil
}

// SchemaVersion returns the highest applied schema version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var v int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return v, nil
}
