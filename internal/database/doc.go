// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package database provides the DuckDB-backed store for the movie catalog, user
accounts, user activity and persisted recommendations.

# Overview

DuckDB runs in-process through github.com/duckdb/duckdb-go/v2. A single file
(database.path) holds every table; ":memory:" is used by tests.

# Schema

The schema is created on startup with idempotent CREATE ... IF NOT EXISTS
statements and tracked in schema_migrations. Tables:

  - movies: TMDb catalog mirror; genre_ids is a list literal such as [28,12]
    cast to INTEGER[] when filtering
  - genres: TMDb genre names
  - users: accounts; preferences are stored as a JSON document
  - favorites, ratings: per-user activity, unique per (user, movie)
  - interactions: tracked user actions
  - recommendations: persisted engine output; user_id NULL means general
  - cache_entries: persisted snapshots of computed recommendation data

Identifiers come from sequences (seq_movies, seq_users, ...).

# Errors

Lookups that match nothing return an error wrapping ErrNotFound. Unique
violations detected before writing return a *DuplicateError wrapping
ErrDuplicate. Both sentinels are shared with the models package so service
code can branch on them with errors.Is.

# Thread Safety

DB is safe for concurrent use. Read-modify-write sequences that must not
interleave (user creation, rating upserts) are serialized by an internal
write mutex.
*/
package database
