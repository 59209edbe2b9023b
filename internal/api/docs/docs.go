// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package docs registers the ReelMatch OpenAPI document with swag so that
// /swagger/doc.json can serve it.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health/live": {"get": {"tags": ["Health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/health/ready": {"get": {"tags": ["Health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK"}, "503": {"description": "Not ready"}}}},
        "/auth/token/": {"post": {"tags": ["Auth"], "summary": "Obtain a JWT pair", "responses": {"200": {"description": "OK"}, "401": {"description": "Bad credentials"}}}},
        "/auth/token/refresh/": {"post": {"tags": ["Auth"], "summary": "Refresh the access token", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid token"}}}},
        "/users/register/": {"post": {"tags": ["Users"], "summary": "Register a user", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}}}},
        "/users/login/": {"post": {"tags": ["Users"], "summary": "Log in", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid credentials"}}}},
        "/users/logout/": {"post": {"tags": ["Users"], "summary": "Log out", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid token"}}}},
        "/users/profile/": {
            "get": {"tags": ["Users"], "summary": "Get the current user's profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Users"], "summary": "Replace the current user's profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation failed"}}},
            "patch": {"tags": ["Users"], "summary": "Partially update the current user's profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation failed"}}}
        },
        "/users/preferences/": {
            "get": {"tags": ["Users"], "summary": "Get preferences", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "patch": {"tags": ["Users"], "summary": "Update preferences", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation failed"}}}
        },
        "/users/change-password/": {"post": {"tags": ["Users"], "summary": "Change password", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation failed"}}}},
        "/movies/": {"get": {"tags": ["Movies"], "summary": "List catalog movies", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid query"}}}},
        "/movies/trending/": {"get": {"tags": ["Movies"], "summary": "Trending movies", "responses": {"200": {"description": "OK"}, "500": {"description": "TMDb error"}}}},
        "/movies/popular/": {"get": {"tags": ["Movies"], "summary": "Popular movies", "responses": {"200": {"description": "OK"}, "500": {"description": "TMDb error"}}}},
        "/movies/search/": {"get": {"tags": ["Movies"], "summary": "Search movies", "responses": {"200": {"description": "OK"}, "400": {"description": "Missing query"}}}},
        "/movies/genres/": {"get": {"tags": ["Movies"], "summary": "List genres", "responses": {"200": {"description": "OK"}}}},
        "/movies/{tmdb_id}/": {"get": {"tags": ["Movies"], "summary": "Movie details", "parameters": [{"type": "integer", "name": "tmdb_id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid TMDB ID"}, "404": {"description": "Not found"}}}},
        "/movies/favorites/": {
            "get": {"tags": ["Activity"], "summary": "List favorites", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Activity"], "summary": "Add a favorite", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Already a favorite"}, "404": {"description": "Movie not found"}}}
        },
        "/movies/favorites/{id}/remove/": {"delete": {"tags": ["Activity"], "summary": "Remove a favorite", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "Removed"}, "404": {"description": "Not found"}}}},
        "/movies/rate/": {"post": {"tags": ["Activity"], "summary": "Rate a movie", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Updated"}, "201": {"description": "Created"}, "400": {"description": "Validation failed"}}}},
        "/movies/ratings/": {"get": {"tags": ["Activity"], "summary": "List ratings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/recommendations/personalized/": {"get": {"tags": ["Recommendations"], "summary": "Personalized recommendations", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/recommendations/trending/": {"get": {"tags": ["Recommendations"], "summary": "Trending recommendations", "responses": {"200": {"description": "OK"}, "500": {"description": "TMDb error"}}}},
        "/recommendations/track-interaction/": {"post": {"tags": ["Recommendations"], "summary": "Track an interaction", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Missing fields"}, "404": {"description": "Movie not found"}}}},
        "/recommendations/status": {"get": {"tags": ["Recommendations"], "summary": "Recommendation engine status", "responses": {"200": {"description": "OK"}}}},
        "/admin/tasks/": {"get": {"tags": ["Admin"], "summary": "List background tasks", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/admin/tasks/{name}/run": {"post": {"tags": ["Admin"], "summary": "Run a background task", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}], "responses": {"202": {"description": "Started"}, "404": {"description": "Unknown task"}, "409": {"description": "Already running"}}}},
        "/admin/tasks/runs/{id}": {"get": {"tags": ["Admin"], "summary": "Get a task run", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/admin/performance/": {"get": {"tags": ["Admin"], "summary": "Request performance statistics", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/audit/": {"get": {"tags": ["Admin"], "summary": "List audit events", "security": [{"BearerAuth": []}], "parameters": [{"name": "type", "in": "query", "type": "string"}, {"name": "outcome", "in": "query", "type": "string", "enum": ["success", "failure"]}, {"name": "user_id", "in": "query", "type": "integer"}, {"name": "page", "in": "query", "type": "integer", "default": 1}, {"name": "page_size", "in": "query", "type": "integer", "default": 20}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}},
        "/admin/audit/stats": {"get": {"tags": ["Admin"], "summary": "Audit trail statistics", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "ReelMatch API",
	Description:      "Movie catalog, user accounts and hybrid recommendations backed by TMDb.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
