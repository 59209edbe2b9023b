// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps a thread-safe singleton validator with the custom rules the
// API needs and translates failures into messages for the VALIDATION_FAILED
// error response.
//
// # Field Names
//
// Errors report the `query` tag of a field, then its `json` tag, then the Go
// field name. A MovieListQuery failing on MinRating reports "min_rating".
//
// # Custom Validators
//
//   - username: letters, digits, and @/./+/-/_ only
//
// MovieListQuery additionally carries a struct-level rule: min_rating must not
// exceed max_rating when both are set.
//
// # Query Types
//
// The query structs mirror the movie and recommendation endpoints:
//
//	q := validation.MovieListQuery{Page: 1, PageSize: 20, SortBy: "popularity"}
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // 400 apiErr.Code, apiErr.Message, apiErr.Details
//	}
//
// Bounds:
//   - year: 1900 to 2030
//   - min_rating, max_rating: 0 to 10
//   - sort_by: popularity, vote_average, release_date, title
//   - order: asc, desc
//   - page: 1 to 1000
//   - page_size: 1 to 100
//   - time_window: day, week
package validation
