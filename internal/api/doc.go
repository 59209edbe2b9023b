// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package api implements the ReelMatch HTTP API on the chi router.

Every JSON response uses one envelope:

	{
	  "success": true,
	  "data": ...,
	  "error": {"code": "NOT_FOUND", "message": "Movie not found", "request_id": "..."},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3, "pagination": {...}}
	}

Route groups:

  - /api/health: liveness and readiness probes
  - /api/auth, /api/users: registration, JWT issue, refresh and logout,
    profile, preferences and password change (strict rate limit)
  - /api/movies: TMDb-backed browsing, local catalog listing, favorites and
    ratings
  - /api/recommendations: personalized and trending lists, interaction
    tracking and engine status
  - /api/admin: background task listing and manual runs (admin role)
  - /api/ws: websocket notifications
  - /metrics and /swagger/*

Handlers depend on small service interfaces declared in this package, so
tests substitute fakes for the catalog, account, recommendation and task
services.
*/
package api
