// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package catalog

import "errors"

// Catalog errors. Messages are returned to API clients verbatim.
//
//nolint:revive,stylecheck // user-facing messages
var (
	ErrQueryRequired    = errors.New("Search query is required")
	ErrUpstream         = errors.New("Failed to fetch movies from TMDb")
	ErrMovieNotFound    = errors.New("Movie not found")
	ErrFavoriteNotFound = errors.New("Favorite not found")
	ErrAlreadyFavorite  = errors.New("Movie is already in favorites.")
	ErrReviewTooLong    = errors.New("Review must be at most 1000 characters.")
	ErrSyncFailed       = errors.New("Failed to process movie data")
)
