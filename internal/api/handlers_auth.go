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

// Token endpoints answer bad credentials with 401 rather than the 400 of
// the login form.
const (
	msgNoActiveAccount = "No active account found with the given credentials"
	msgTokenInvalid    = "Token is invalid or expired"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// MessageResponse is a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// handleObtainToken issues a token pair without the user body.
//
// @Summary Obtain a JWT pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body accounts.LoginInput true "Credentials"
// @Success 200 {object} APIResponse{data=auth.TokenPair}
// @Failure 401 {object} APIResponse
// @Router /auth/token/ [post]
func (rt *Router) handleObtainToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var in accounts.LoginInput
	if !decodeJSON(rw, w, r, &in) {
		return
	}
	in.ClientIP = clientIP(r)

	pair, err := rt.deps.Accounts.ObtainToken(r.Context(), in)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) || errors.Is(err, accounts.ErrAccountDisabled) {
			rw.Unauthorized(msgNoActiveAccount)
			return
		}
		writeServiceError(rw, err)
		return
	}
	rw.Success(pair)
}

// handleRefreshToken exchanges a refresh token for an access token.
//
// @Summary Refresh the access token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} APIResponse{data=accounts.RefreshResult}
// @Failure 401 {object} APIResponse
// @Router /auth/token/refresh/ [post]
func (rt *Router) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var body refreshRequest
	if !decodeJSON(rw, w, r, &body) {
		return
	}

	res, err := rt.deps.Accounts.RefreshToken(r.Context(), body.Refresh)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidToken) {
			rw.Unauthorized(msgTokenInvalid)
			return
		}
		writeServiceError(rw, err)
		return
	}
	rw.Success(res)
}

// handleRegister creates an account.
//
// @Summary Register a user
// @Tags Users
// @Accept json
// @Produce json
// @Param body body accounts.RegisterInput true "New account"
// @Success 201 {object} APIResponse{data=accounts.AuthResult}
// @Failure 400 {object} APIResponse
// @Router /users/register/ [post]
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var in accounts.RegisterInput
	if !decodeJSON(rw, w, r, &in) {
		return
	}
	in.ClientIP = clientIP(r)

	res, err := rt.deps.Accounts.Register(r.Context(), in)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Created(res)
}

// handleLogin signs a user in.
//
// @Summary Log in
// @Tags Users
// @Accept json
// @Produce json
// @Param body body accounts.LoginInput true "Credentials"
// @Success 200 {object} APIResponse{data=accounts.AuthResult}
// @Failure 400 {object} APIResponse
// @Router /users/login/ [post]
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var in accounts.LoginInput
	if !decodeJSON(rw, w, r, &in) {
		return
	}
	in.ClientIP = clientIP(r)

	res, err := rt.deps.Accounts.Login(r.Context(), in)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(res)
}

// handleLogout blacklists the caller's refresh token.
//
// @Summary Log out
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=MessageResponse}
// @Failure 400 {object} APIResponse
// @Router /users/logout/ [post]
func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	uid, ok := userID(rw, r)
	if !ok {
		return
	}
	var body refreshRequest
	if !decodeJSON(rw, w, r, &body) {
		return
	}

	if err := rt.deps.Accounts.Logout(r.Context(), uid, body.Refresh, clientIP(r)); err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(MessageResponse{Message: "Logout successful"})
}
