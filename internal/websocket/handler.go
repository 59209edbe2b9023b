// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/reelmatch/internal/auth"
	"github.com/tomtom215/reelmatch/internal/logging"
)

// NewHandler upgrades authenticated requests and registers the client with
// hub. It must run behind auth.Middleware.Authenticate. An empty
// allowedOrigins, or "*", accepts any origin.
func NewHandler(hub *Hub, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication credentials were not provided.", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written an HTTP error.
			logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := NewClient(hub, conn, claims.UserID)
		hub.Register <- client
		client.Start()
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := len(allowed) == 0
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		set[strings.ToLower(o)] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		if set[strings.ToLower(origin)] {
			return true
		}
		// Same-origin requests are always allowed.
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
