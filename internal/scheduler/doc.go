// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package scheduler runs named jobs on cron schedules.
//
// The loop sleeps on a clockwork timer until the earliest next run, starts
// every due job in its own goroutine with a timeout, and never overlaps two
// runs of the same job: a job still running when it comes due again is
// skipped for that slot. Tests drive the loop with clockwork.FakeClock.
package scheduler
