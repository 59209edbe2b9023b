// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"net/http"
)

const msgFieldRequired = "This field is required."

type favoriteRequest struct {
	MovieID int64 `json:"movie_id"`
}

type rateRequest struct {
	MovieID int64    `json:"movie_id"`
	Rating  *float64 `json:"rating"`
	Review  string   `json:"review"`
}

// handleListFavorites lists the caller's favourites, newest first.
//
// @Summary List favorites
// @Tags Activity
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=[]models.Favorite}
// @Router /movies/favorites/ [get]
func (rt *Router) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	favs, err := rt.deps.Catalog.ListFavorites(r.Context(), uid)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(favs)
}

// handleAddFavorite marks a catalog movie as a favourite.
//
// @Summary Add a favorite
// @Tags Activity
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} APIResponse{data=models.Favorite}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /movies/favorites/ [post]
func (rt *Router) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	var body favoriteRequest
	if !decodeJSON(rw, w, r, &body) {
		return
	}
	if body.MovieID <= 0 {
		rw.ValidationError(msgFieldRequired, map[string]string{"movie_id": msgFieldRequired})
		return
	}

	fav, err := rt.deps.Catalog.AddFavorite(r.Context(), uid, body.MovieID)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Created(fav)
}

// handleRemoveFavorite deletes one of the caller's favourites.
//
// @Summary Remove a favorite
// @Tags Activity
// @Security BearerAuth
// @Param id path int true "Favorite id"
// @Success 204
// @Failure 404 {object} APIResponse
// @Router /movies/favorites/{id}/remove/ [delete]
func (rt *Router) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	id, ok := int64Param(r, "id")
	if !ok {
		rw.NotFound("Favorite not found")
		return
	}

	if err := rt.deps.Catalog.RemoveFavorite(r.Context(), uid, id); err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.NoContent()
}

// handleRate creates or updates the caller's rating of a movie.
//
// @Summary Rate a movie
// @Tags Activity
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=models.Rating} "Rating updated"
// @Success 201 {object} APIResponse{data=models.Rating} "Rating created"
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /movies/rate/ [post]
func (rt *Router) handleRate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	var body rateRequest
	if !decodeJSON(rw, w, r, &body) {
		return
	}
	missing := map[string]string{}
	if body.MovieID <= 0 {
		missing["movie_id"] = msgFieldRequired
	}
	if body.Rating == nil {
		missing["rating"] = msgFieldRequired
	}
	if len(missing) > 0 {
		rw.ValidationError(msgFieldRequired, missing)
		return
	}

	rating, created, err := rt.deps.Catalog.Rate(r.Context(), uid, body.MovieID, *body.Rating, body.Review)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	if created {
		rw.Created(rating)
		return
	}
	rw.Success(rating)
}

// handleListRatings lists the caller's ratings, newest first.
//
// @Summary List ratings
// @Tags Activity
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=[]models.Rating}
// @Router /movies/ratings/ [get]
func (rt *Router) handleListRatings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	ratings, err := rt.deps.Catalog.ListRatings(r.Context(), uid)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(ratings)
}
