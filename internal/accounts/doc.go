// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package accounts implements user registration, login, token issuance, and
profile management.

Login is by email. Passwords are bcrypt hashed via the auth package, and every
successful login or registration returns an access/refresh token pair. Email
addresses listed in security.admin_emails are granted the admin role when the
account is created.

Errors that describe bad input are *ValidationError values carrying per-field
messages suitable for a 400 response. Credential and token failures use the
sentinel errors in errors.go.

Usage:

	svc := accounts.NewService(db, jwtManager, &cfg.Security)
	res, err := svc.Login(ctx, accounts.LoginInput{Email: email, Password: pw})
*/
package accounts
