// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package models

import (
	"errors"
	"time"
)

// Rating bounds (stars).
const (
	MinRating       = 0.5
	MaxRating       = 5.0
	MaxReviewLength = 1000
)

// ErrRatingOutOfRange is returned by ValidateRating.
var ErrRatingOutOfRange = errors.New("Rating must be between 0.5 and 5.0.") //nolint:revive,stylecheck // user-facing message

// ValidateRating checks the star range.
func ValidateRating(r float64) error {
	if r < MinRating || r > MaxRating {
		return ErrRatingOutOfRange
	}
	return nil
}

// Favorite marks a movie as a favourite of a user; unique per pair.
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
	Movie     *Movie    `json:"movie,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating is a user's star rating and optional review; unique per pair.
type Rating struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
	Movie     *Movie    `json:"movie,omitempty"`
	Rating    float64   `json:"rating"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InteractionType classifies a tracked user action.
type InteractionType string

const (
	InteractionView      InteractionType = "view"
	InteractionFavorite  InteractionType = "favorite"
	InteractionRating    InteractionType = "rating"
	InteractionWatchlist InteractionType = "watchlist"
	InteractionSearch    InteractionType = "search"
	InteractionClick     InteractionType = "click"
)

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionFavorite, InteractionRating,
		InteractionWatchlist, InteractionSearch, InteractionClick:
		return true
	}
	return false
}

// Interaction is one tracked user action on a movie.
type Interaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	MovieID   int64           `json:"movie_id"`
	Type      InteractionType `json:"interaction_type"`
	Value     *float64        `json:"value,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// RecommendationType names the algorithm that produced a recommendation.
type RecommendationType string

const (
	RecTrending      RecommendationType = "trending"
	RecPopular       RecommendationType = "popular"
	RecSimilar       RecommendationType = "similar"
	RecGenreBased    RecommendationType = "genre_based"
	RecCollaborative RecommendationType = "collaborative"
	RecContentBased  RecommendationType = "content_based"
	RecHybrid        RecommendationType = "hybrid"
)

// Recommendation is a persisted, scored suggestion. A nil UserID marks a
// general recommendation (trending, popular). Unique per user, movie and type.
type Recommendation struct {
	ID        int64              `json:"id"`
	UserID    *int64             `json:"user_id,omitempty"`
	MovieID   int64              `json:"movie_id"`
	Movie     *Movie             `json:"movie,omitempty"`
	Type      RecommendationType `json:"recommendation_type"`
	Score     float64            `json:"score"`
	Reason    string             `json:"reason"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`
}

// IsExpired is false when no expiry is set.
func (r *Recommendation) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// CacheType classifies persisted recommendation cache rows.
type CacheType string

const (
	CacheTrending CacheType = "trending"
	CachePopular  CacheType = "popular"
	CacheGenre    CacheType = "genre_cache"
	CacheUser     CacheType = "user_cache"
)

// CacheEntry is a persisted snapshot of computed recommendation data.
type CacheEntry struct {
	ID        int64
	Key       string
	Type      CacheType
	Data      []byte // JSON
	UserID    *int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the entry is past its expiry.
func (c *CacheEntry) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
