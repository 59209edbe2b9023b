// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"net/http"

	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/validation"
)

const defaultRecommendationLimit = 20

// ResultsResponse wraps a recommendation list.
type ResultsResponse[T any] struct {
	Results []T `json:"results"`
}

// TrackResponse confirms a tracked interaction.
type TrackResponse struct {
	Message       string `json:"message"`
	InteractionID int64  `json:"interaction_id"`
}

type trackRequest struct {
	MovieID         int64                  `json:"movie_id"`
	InteractionType models.InteractionType `json:"interaction_type"`
	Value           *float64               `json:"value"`
	Metadata        map[string]any         `json:"metadata"`
}

func parseLimit(rw *ResponseWriter, r *http.Request) (int, bool) {
	p := newQueryParser(r)
	q := validation.LimitQuery{Limit: p.Int("limit", defaultRecommendationLimit)}
	if !p.ok(rw) || !validateQuery(rw, &q) {
		return 0, false
	}
	return q.Limit, true
}

// handlePersonalized returns the caller's hybrid recommendations.
//
// @Summary Personalized recommendations
// @Tags Recommendations
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum results" default(20)
// @Success 200 {object} APIResponse{data=ResultsResponse[models.Recommendation]}
// @Router /recommendations/personalized/ [get]
func (rt *Router) handlePersonalized(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(rw, r)
	if !ok {
		return
	}

	recs, err := rt.deps.Recommend.Personalized(r.Context(), uid, limit)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	rw.Success(ResultsResponse[models.Recommendation]{Results: recs})
}

// handleTrendingRecommendations returns trending movies for everyone.
//
// @Summary Trending recommendations
// @Tags Recommendations
// @Produce json
// @Param limit query int false "Maximum results" default(20)
// @Success 200 {object} APIResponse{data=ResultsResponse[models.Movie]}
// @Failure 500 {object} APIResponse
// @Router /recommendations/trending/ [get]
func (rt *Router) handleTrendingRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, ok := parseLimit(rw, r)
	if !ok {
		return
	}

	movies, err := rt.deps.Recommend.Trending(r.Context(), limit)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	rw.Success(ResultsResponse[models.Movie]{Results: movies})
}

// handleTrackInteraction records a user action on a movie.
//
// @Summary Track an interaction
// @Tags Recommendations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} APIResponse{data=TrackResponse}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /recommendations/track-interaction/ [post]
func (rt *Router) handleTrackInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	var body trackRequest
	if !decodeJSON(rw, w, r, &body) {
		return
	}

	id, err := rt.deps.Recommend.TrackInteraction(r.Context(), recommend.TrackInput{
		UserID:   uid,
		MovieID:  body.MovieID,
		Type:     body.InteractionType,
		Value:    body.Value,
		Metadata: body.Metadata,
	})
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Created(TrackResponse{Message: "Interaction tracked successfully", InteractionID: id})
}

// handleRecommendStatus reports engine training and cache state.
//
// @Summary Recommendation engine status
// @Tags Recommendations
// @Produce json
// @Success 200 {object} APIResponse{data=recommend.Status}
// @Router /recommendations/status [get]
func (rt *Router) handleRecommendStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(rt.deps.Recommend.Status())
}
