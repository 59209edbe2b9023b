// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package authz provides role-based authorization using Casbin.

The model and policy are embedded. There are two roles: user and admin, with
admin inheriting every user permission. Objects are request paths matched
with keyMatch2, and actions are derived from the HTTP method:

	GET, HEAD, OPTIONS  read
	POST, PUT, PATCH    write
	DELETE              delete

Decisions are cached per (role, path, action) for EnforcerConfig.CacheTTL.

# Usage

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{CacheTTL: time.Minute})
	mw := authz.NewMiddleware(enforcer)
	r.With(chiMiddleware(authMW.Authenticate), chiMiddleware(mw.AuthorizeRequest)).
		Get("/api/admin/tasks/", h.ListTasks)
*/
package authz
