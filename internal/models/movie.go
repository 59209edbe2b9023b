// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package models defines the domain types shared by the storage, service and
// HTTP layers: the movie catalog, user accounts, user activity and computed
// recommendations.
package models

import (
	"time"
)

// DateLayout is the calendar date format used by TMDb and the API.
const DateLayout = "2006-01-02"

// Movie is a catalog entry mirrored from TMDb.
//
// PosterPath and BackdropPath hold absolute image URLs once the movie has
// been synced; relative TMDb paths are prefixed with the image base during
// the upsert. Default catalog ordering is popularity then vote average,
// both descending.
type Movie struct {
	ID               int64      `json:"id"`
	TMDbID           int64      `json:"tmdb_id"`
	Title            string     `json:"title"`
	OriginalTitle    string     `json:"original_title"`
	Overview         string     `json:"overview"`
	ReleaseDate      *time.Time `json:"release_date,omitempty"`
	PosterPath       string     `json:"poster_path"`
	BackdropPath     string     `json:"backdrop_path"`
	Adult            bool       `json:"adult"`
	OriginalLanguage string     `json:"original_language"`
	Popularity       float64    `json:"popularity"`
	VoteAverage      float64    `json:"vote_average"`
	VoteCount        int        `json:"vote_count"`
	GenreIDs         []int      `json:"genre_ids"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ReleaseYear returns 0 when the release date is unknown.
func (m *Movie) ReleaseYear() int {
	if m.ReleaseDate == nil {
		return 0
	}
	return m.ReleaseDate.Year()
}

// ReleaseDateString formats the release date, or returns "" when unknown.
func (m *Movie) ReleaseDateString() string {
	if m.ReleaseDate == nil {
		return ""
	}
	return m.ReleaseDate.Format(DateLayout)
}

// FullPosterURL returns nil when no poster is stored.
func (m *Movie) FullPosterURL() *string {
	return optionalString(m.PosterPath)
}

// FullBackdropURL returns nil when no backdrop is stored.
func (m *Movie) FullBackdropURL() *string {
	return optionalString(m.BackdropPath)
}

// HasGenre reports whether the movie is tagged with genreID.
func (m *Movie) HasGenre(genreID int) bool {
	for _, g := range m.GenreIDs {
		if g == genreID {
			return true
		}
	}
	return false
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Genre is a TMDb movie genre. Listed by name.
type Genre struct {
	ID        int64     `json:"id"`
	TMDbID    int       `json:"tmdb_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Sort keys accepted by MovieFilter.OrderBy.
const (
	SortPopularity  = "popularity"
	SortVoteAverage = "vote_average"
	SortReleaseDate = "release_date"
	SortTitle       = "title"
)

// MovieFilter selects movies from the local catalog.
type MovieFilter struct {
	GenreIDs      []int
	ReleasedAfter *time.Time
	ReleasedBy    *time.Time
	MinRating     *float64
	MaxRating     *float64
	Adult         *bool
	Search        string

	// OrderBy holds sort keys, each optionally prefixed with "-" for
	// descending. Empty means -popularity,-vote_average.
	OrderBy []string

	// ExcludeIDs drops movies by internal id.
	ExcludeIDs []int64

	MinPopularity  float64
	MinVoteAverage float64
	MinVoteCount   int

	Limit  int
	Offset int
}
