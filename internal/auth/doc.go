// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package auth issues and validates JWT token pairs and guards HTTP handlers.

# Tokens

Access and refresh tokens are HS256-signed JWTs. Both carry the user ID as
the subject, the email, username and role, the token type, and a random JTI:

	pair, err := jwtManager.GenerateTokenPair(user)
	claims, err := jwtManager.ValidateAccessToken(pair.Access)

Logging out revokes the refresh token's JTI in a Blacklist until the token
would have expired anyway. BadgerBlacklist persists revocations across
restarts with a native badger TTL; MemoryBlacklist is used in tests and
single-process development.

# Passwords

HashPassword uses bcrypt with cost 12. CheckPassword is constant time.

# Middleware

	mw := auth.NewMiddleware(jwtManager)
	r.With(mw.Authenticate).Get("/api/users/profile/", h.Profile)
	r.With(mw.OptionalAuthenticate).Get("/api/movies/{tmdb_id}/", h.MovieDetail)

Handlers read the caller with ClaimsFromContext.
*/
package auth
