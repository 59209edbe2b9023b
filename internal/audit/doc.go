// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package audit records a persistent trail of account and administrative
// events: registrations, logins, logouts, token refreshes, password changes
// and admin task runs.
//
// # Overview
//
// Events flow through a Logger, which buffers them and writes them to a Store
// on a background goroutine so request latency is unaffected. Every event is
// also written to the structured log through logging.AuthLogger.
//
//	store := audit.NewDuckDBStore(db.Conn())
//	if err := store.CreateTable(ctx); err != nil { ... }
//	trail := audit.NewLogger(store, audit.DefaultConfig())
//	defer trail.Close()
//	accounts.SetAuditor(trail)
//
// # Stores
//
//   - DuckDBStore: the audit_events table in the main database
//   - MemoryStore: bounded in-memory store for tests and development
//
// # Retention
//
// Logger implements suture.Service. While served it deletes events older
// than Config.RetentionDays every Config.CleanupInterval.
//
// # Privacy
//
// Emails are stored masked (see logging.SanitizeEmail) and failure reasons
// that mention credentials are replaced with a generic message.
package audit
