// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package logging

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// AuthEvent is an audit record for account and token operations.
type AuthEvent struct {
	Event     string // login_success, login_failed, logout, token_refresh, register, password_changed
	UserID    int64
	Email     string
	IPAddress string
	UserAgent string
	Success   bool
	Reason    string
}

// AuthLogger writes account audit entries with emails and tokens masked.
type AuthLogger struct {
	logger zerolog.Logger
}

// NewAuthLogger returns an audit logger tagged component=auth.
func NewAuthLogger() *AuthLogger {
	return &AuthLogger{logger: WithComponent("auth")}
}

// NewAuthLoggerWithLogger wraps a specific logger.
//
//nolint:gocritic // zerolog.Logger is passed by value by design of the library
func NewAuthLoggerWithLogger(logger zerolog.Logger) *AuthLogger {
	return &AuthLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// Log writes one audit entry. Failures are logged at warn level.
func (l *AuthLogger) Log(ev *AuthEvent) {
	e := l.logger.Info()
	status := "success"
	if !ev.Success {
		e = l.logger.Warn()
		status = "failed"
	}
	e = e.Str("event", ev.Event).Str("status", status)
	if ev.UserID > 0 {
		e = e.Str("user_id", strconv.FormatInt(ev.UserID, 10))
	}
	if ev.Email != "" {
		e = e.Str("email", SanitizeEmail(ev.Email))
	}
	if ev.IPAddress != "" {
		e = e.Str("ip", ev.IPAddress)
	}
	if ev.UserAgent != "" {
		e = e.Str("user_agent", truncateString(ev.UserAgent, 100))
	}
	if ev.Reason != "" && !ev.Success {
		e = e.Str("reason", SanitizeError(ev.Reason))
	}
	e.Msg("")
}

// LoginSucceeded records a successful login.
func (l *AuthLogger) LoginSucceeded(userID int64, email, ip string) {
	l.Log(&AuthEvent{Event: "login_success", UserID: userID, Email: email, IPAddress: ip, Success: true})
}

// LoginFailed records a rejected login.
func (l *AuthLogger) LoginFailed(email, ip, reason string) {
	l.Log(&AuthEvent{Event: "login_failed", Email: email, IPAddress: ip, Reason: reason})
}

// Registered records a new account.
func (l *AuthLogger) Registered(userID int64, email, ip string) {
	l.Log(&AuthEvent{Event: "register", UserID: userID, Email: email, IPAddress: ip, Success: true})
}

// LoggedOut records a refresh token revocation.
func (l *AuthLogger) LoggedOut(userID int64, ip string) {
	l.Log(&AuthEvent{Event: "logout", UserID: userID, IPAddress: ip, Success: true})
}

// TokenRefreshed records a refresh attempt.
func (l *AuthLogger) TokenRefreshed(userID int64, success bool, reason string) {
	l.Log(&AuthEvent{Event: "token_refresh", UserID: userID, Success: success, Reason: reason})
}

// PasswordChanged records a password change attempt.
func (l *AuthLogger) PasswordChanged(userID int64, success bool, reason string) {
	l.Log(&AuthEvent{Event: "password_changed", UserID: userID, Success: success, Reason: reason})
}

// SanitizeToken keeps the first and last four characters.
//
//	"eyJhbGciOiJIUzI1NiJ9.e30.abcd" -> "eyJh...abcd"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeEmail keeps the first two characters of the local part.
//
//	"jane.doe@example.com" -> "ja***@example.com"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

// SanitizeError replaces messages that mention credentials with a generic
// string and truncates the rest.
func SanitizeError(msg string) string {
	lower := strings.ToLower(msg)
	for _, p := range []string{"password", "secret", "token", "api_key", "bearer", "authorization"} {
		if strings.Contains(lower, p) {
			return "authentication error"
		}
	}
	return truncateString(msg, 200)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
