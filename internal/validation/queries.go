// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package validation

import "github.com/go-playground/validator/v10"

// PageQuery is the common page/page_size pair.
type PageQuery struct {
	Page     int `query:"page" validate:"min=1,max=1000"`
	PageSize int `query:"page_size" validate:"min=1,max=100"`
}

// TrendingQuery is GET /api/movies/trending/.
type TrendingQuery struct {
	TimeWindow string `query:"time_window" validate:"omitempty,oneof=day week"`
	PageQuery
}

// SearchQuery is GET /api/movies/search/.
type SearchQuery struct {
	Query string `query:"query" validate:"required,max=200"`
	Year  *int   `query:"year" validate:"omitempty,min=1900,max=2030"`
	Page  int    `query:"page" validate:"min=1,max=1000"`
}

// MovieListQuery is GET /api/movies/.
type MovieListQuery struct {
	Genre     *int     `query:"genre" validate:"omitempty,min=1"`
	Year      *int     `query:"year" validate:"omitempty,min=1900,max=2030"`
	MinRating *float64 `query:"min_rating" validate:"omitempty,min=0,max=10"`
	MaxRating *float64 `query:"max_rating" validate:"omitempty,min=0,max=10"`
	SortBy    string   `query:"sort_by" validate:"omitempty,oneof=popularity vote_average release_date title"`
	Order     string   `query:"order" validate:"omitempty,oneof=asc desc"`
	Search    string   `query:"search" validate:"max=200"`
	PageQuery
}

// LimitQuery is the limit parameter of recommendation endpoints.
type LimitQuery struct {
	Limit int `query:"limit" validate:"min=1,max=100"`
}

// AuditQuery is GET /api/admin/audit/.
type AuditQuery struct {
	Type    string `query:"type" validate:"omitempty,max=64"`
	Outcome string `query:"outcome" validate:"omitempty,oneof=success failure"`
	UserID  *int   `query:"user_id" validate:"omitempty,min=1"`
	PageQuery
}

// movieListQueryLevel rejects min_rating > max_rating.
func movieListQueryLevel(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(MovieListQuery)
	if !ok || q.MinRating == nil || q.MaxRating == nil {
		return
	}
	if *q.MinRating > *q.MaxRating {
		sl.ReportError(q.MaxRating, "max_rating", "MaxRating", "ratingmax", "")
	}
}
