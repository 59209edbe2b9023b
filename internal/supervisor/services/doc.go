// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package services adapts the server's long-running components to
// suture.Service. Each adapter's Serve blocks until its context is
// canceled and returns ctx.Err() on a clean stop.
package services
