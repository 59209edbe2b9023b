// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"errors"
	"io"

	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/models"
)

// Sentinel errors, shared with models so callers need not import this package.
var (
	ErrNotFound  = models.ErrNotFound
	ErrDuplicate = models.ErrDuplicate
)

// DuplicateError names the field that collided.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Field
}

// Unwrap makes errors.Is(err, ErrDuplicate) hold.
func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// DuplicateField returns the colliding field, or "" if err is not a
// DuplicateError.
func DuplicateField(err error) string {
	var de *DuplicateError
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource in an error path where Close errors are not
// actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
