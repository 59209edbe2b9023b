// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// @title ReelMatch API
// @version 1.0
// @description Movie catalog, favorites, ratings and hybrid recommendations backed by TMDb.
// @description
// @description ## Authentication
// @description
// @description Protected endpoints take a JWT access token in the `Authorization: Bearer` header.
// @description Obtain a pair from `/api/auth/token/` or `/api/users/login/` and refresh it with `/api/auth/token/refresh/`.
// @description
// @description ## Rate Limiting
// @description
// @description Default limit: 100 requests per minute per IP. Auth endpoints are limited separately.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {"code": "VALIDATION_FAILED", "message": "...", "details": {}, "request_id": "..."}
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/reelmatch/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8000
// @BasePath /api
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT access token, formatted as "Bearer {token}".
//
// @tag.name Health
// @tag.description Liveness and readiness probes
//
// @tag.name Auth
// @tag.description Registration, login and token management
//
// @tag.name Users
// @tag.description Profile and preferences
//
// @tag.name Movies
// @tag.description TMDb browsing, the local catalog, favorites and ratings
//
// @tag.name Recommendations
// @tag.description Personalized and trending recommendations, interaction tracking
//
// @tag.name Admin
// @tag.description Background task control and performance statistics
package main
