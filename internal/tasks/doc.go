// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package tasks implements the background jobs that keep the catalog and the
stored recommendations fresh.

Jobs:

  - sync_tmdb_data: pull trending and popular pages from TMDb into the catalog
  - sync_genres: refresh the genre table
  - update_movie_popularity: recompute popularity from local ratings
  - generate_user_recommendations: batch hybrid recommendations for active users
  - cleanup_expired: delete expired recommendations and cache rows
  - update_similarity_matrix: retrain the recommendation engine
  - generate_trending_recommendations: store the current TMDb weekly trending set

A Runner executes jobs by name. It refuses to start a job that is already
running, records task_runs_total and task_duration_seconds, and keeps the
last 50 runs in memory for the admin API. The scheduler package decides when
jobs run; the cmd/sync binary runs one job from the command line.
*/
package tasks
