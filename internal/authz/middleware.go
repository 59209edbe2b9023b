// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package authz

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/reelmatch/internal/auth"
	"github.com/tomtom215/reelmatch/internal/logging"
)

// ForbiddenMessage is returned for denied requests.
const ForbiddenMessage = "Forbidden: insufficient permissions"

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// AuthorizeRequest derives the action from the HTTP method and authorizes
// the request path. It must run after auth.Middleware.Authenticate.
func (m *Middleware) AuthorizeRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			auth.WriteErrorEnvelope(w, r, start, http.StatusForbidden, "FORBIDDEN", "Forbidden: no authentication context")
			return
		}

		subject := "user:" + strconv.FormatInt(claims.UserID, 10)
		allowed, err := m.enforcer.Enforce(subject, claims.Role, r.URL.Path, methodToAction(r.Method))
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
			auth.WriteErrorEnvelope(w, r, start, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			return
		}
		if !allowed {
			logging.Ctx(r.Context()).Warn().
				Int64("user_id", claims.UserID).
				Str("role", claims.Role).
				Str("path", r.URL.Path).
				Msg("Authorization denied")
			auth.WriteErrorEnvelope(w, r, start, http.StatusForbidden, "FORBIDDEN", ForbiddenMessage)
			return
		}

		next(w, r)
	}
}

// methodToAction maps HTTP methods to Casbin actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
