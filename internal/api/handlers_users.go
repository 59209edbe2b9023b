// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/reelmatch/internal/accounts"
)

// handleGetProfile returns the caller's profile.
//
// @Summary Get the current user's profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=models.User}
// @Router /users/profile/ [get]
func (rt *Router) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	u, err := rt.deps.Accounts.Profile(r.Context(), uid)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(u)
}

// handleUpdateProfile replaces the editable profile fields.
//
// @Summary Replace the current user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=models.User}
// @Failure 400 {object} APIResponse
// @Router /users/profile/ [put]
func (rt *Router) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	rt.updateProfile(w, r, false)
}

// handlePatchProfile updates only the fields present in the body.
//
// @Summary Partially update the current user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=models.User}
// @Failure 400 {object} APIResponse
// @Router /users/profile/ [patch]
func (rt *Router) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	rt.updateProfile(w, r, true)
}

func (rt *Router) updateProfile(w http.ResponseWriter, r *http.Request, partial bool) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	body, ok := rt.body(rw, w, r)
	if !ok {
		return
	}
	in, err := accounts.DecodeProfileInput(body)
	if err != nil {
		writeServiceError(rw, err)
		return
	}

	u, err := rt.deps.Accounts.UpdateProfile(r.Context(), uid, in, partial)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(u)
}

// handleGetPreferences returns the caller's recommendation preferences.
//
// @Summary Get preferences
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=models.UserPreferences}
// @Router /users/preferences/ [get]
func (rt *Router) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	prefs, err := rt.deps.Accounts.Preferences(r.Context(), uid)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(prefs)
}

// handlePatchPreferences merges the given lists into the preferences.
//
// @Summary Update preferences
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=models.UserPreferences}
// @Failure 400 {object} APIResponse
// @Router /users/preferences/ [patch]
func (rt *Router) handlePatchPreferences(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	body, ok := rt.body(rw, w, r)
	if !ok {
		return
	}
	patch, err := accounts.DecodePreferencesPatch(body)
	if err != nil {
		writeServiceError(rw, err)
		return
	}

	prefs, err := rt.deps.Accounts.UpdatePreferences(r.Context(), uid, patch)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(prefs)
}

// handleChangePassword verifies the old password and sets a new one.
//
// @Summary Change password
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body accounts.ChangePasswordInput true "Passwords"
// @Success 200 {object} APIResponse{data=MessageResponse}
// @Failure 400 {object} APIResponse
// @Router /users/change-password/ [post]
func (rt *Router) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	var in accounts.ChangePasswordInput
	if !decodeJSON(rw, w, r, &in) {
		return
	}

	if err := rt.deps.Accounts.ChangePassword(r.Context(), uid, in); err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(MessageResponse{Message: "Password changed successfully"})
}

// body reads a raw JSON body for decoders that track field presence.
func (rt *Router) body(rw *ResponseWriter, w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := readBody(w, r)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return nil, false
		}
		rw.BadRequest("Failed to read request body")
		return nil, false
	}
	return body, true
}
