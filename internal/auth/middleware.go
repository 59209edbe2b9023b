// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmatch/internal/logging"
)

type contextKey string

// ClaimsContextKey holds the *Claims of an authenticated request.
const ClaimsContextKey contextKey = "claims"

// Middleware provides authentication middleware
type Middleware struct {
	jwtManager *JWTManager
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(jwtManager *JWTManager) *Middleware {
	return &Middleware{jwtManager: jwtManager}
}

// Authenticate requires a valid Bearer access token.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return m.authenticate(next, ExtractToken)
}

// AuthenticateWebSocket is Authenticate for the websocket upgrade route.
// Browsers cannot set an Authorization header there, so the access token
// is also accepted as the token query parameter.
func (m *Middleware) AuthenticateWebSocket(next http.HandlerFunc) http.HandlerFunc {
	return m.authenticate(next, extractTokenOrQuery)
}

func (m *Middleware) authenticate(next http.HandlerFunc, extract func(*http.Request) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		token, err := extract(r)
		if err != nil {
			writeAuthError(w, r, start, err.Error())
			return
		}

		claims, err := m.jwtManager.ValidateAccessToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			msg := "Given token not valid for any token type"
			if errors.Is(err, ErrTokenExpired) {
				msg = "Token is expired"
			}
			writeAuthError(w, r, start, msg)
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}

// OptionalAuthenticate attaches claims when a valid access token is present
// and otherwise serves the request anonymously.
func (m *Middleware) OptionalAuthenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := ExtractToken(r)
		if err != nil {
			next(w, r)
			return
		}
		claims, err := m.jwtManager.ValidateAccessToken(token)
		if err != nil {
			next(w, r)
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}

// ExtractToken reads the Bearer token from the Authorization header.
func ExtractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("Authentication credentials were not provided.") //nolint:revive,stylecheck // user-facing message
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("Invalid authorization header") //nolint:revive,stylecheck // user-facing message
	}
	return strings.TrimSpace(parts[1]), nil
}

func extractTokenOrQuery(r *http.Request) (string, error) {
	if r.Header.Get("Authorization") == "" {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, nil
		}
	}
	return ExtractToken(r)
}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, ClaimsContextKey, claims)
	return logging.ContextWithUserID(ctx, claims.UserID)
}

// ClaimsFromContext returns the request's claims, if authenticated.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// writeAuthError writes a 401 in the API error envelope.
func writeAuthError(w http.ResponseWriter, r *http.Request, start time.Time, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	WriteErrorEnvelope(w, r, start, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// WriteErrorEnvelope writes an error in the same envelope the API handlers
// use, for middleware that rejects a request before it reaches them.
func WriteErrorEnvelope(w http.ResponseWriter, r *http.Request, start time.Time, status int, code, message string) {
	requestID := logging.RequestIDFromContext(r.Context())
	body := map[string]any{
		"success": false,
		"error": map[string]string{
			"code":       code,
			"message":    message,
			"request_id": requestID,
		},
		"meta": map[string]any{
			"request_id":  requestID,
			"timestamp":   time.Now().UTC(),
			"duration_ms": time.Since(start).Milliseconds(),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write error response")
	}
}
