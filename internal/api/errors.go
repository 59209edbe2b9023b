// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/reelmatch/internal/accounts"
	"github.com/tomtom215/reelmatch/internal/catalog"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/tasks"
	"github.com/tomtom215/reelmatch/internal/tmdb"
)

// writeServiceError maps a domain error to a status and error code. Errors
// that carry user-facing text keep that text; anything unrecognised becomes
// a generic 500 and is logged.
func writeServiceError(rw *ResponseWriter, err error) {
	if verr, ok := accounts.AsValidationError(err); ok {
		rw.ValidationError(verr.Message(), verr.Fields)
		return
	}

	switch {
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful can be written.
		logging.Ctx(rw.r.Context()).Debug().Err(err).Msg("Request canceled")
		return

	case errors.Is(err, accounts.ErrInvalidCredentials),
		errors.Is(err, accounts.ErrAccountDisabled):
		rw.ValidationError(err.Error(), map[string]string{accounts.NonFieldErrors: err.Error()})

	case errors.Is(err, accounts.ErrRefreshRequired),
		errors.Is(err, accounts.ErrInvalidToken):
		rw.BadRequest(userMessage(err))

	case errors.Is(err, accounts.ErrUserNotFound):
		rw.NotFound("User not found")

	case errors.Is(err, catalog.ErrQueryRequired),
		errors.Is(err, catalog.ErrReviewTooLong),
		errors.Is(err, models.ErrRatingOutOfRange),
		errors.Is(err, recommend.ErrMissingInteractionFields),
		errors.Is(err, recommend.ErrInvalidInteractionType),
		errors.Is(err, tmdb.ErrInvalidTimeWindow):
		rw.BadRequest(userMessage(err))

	case errors.Is(err, catalog.ErrAlreadyFavorite):
		rw.ValidationError(err.Error(), map[string]string{accounts.NonFieldErrors: err.Error()})

	case errors.Is(err, catalog.ErrMovieNotFound),
		errors.Is(err, recommend.ErrMovieNotFound):
		rw.NotFound("Movie not found")

	case errors.Is(err, catalog.ErrFavoriteNotFound):
		rw.NotFound("Favorite not found")

	case errors.Is(err, models.ErrNotFound):
		rw.NotFound("Not found")

	case errors.Is(err, tasks.ErrUnknownTask):
		rw.NotFound("Unknown task")

	case errors.Is(err, tasks.ErrAlreadyRunning):
		rw.Conflict("Task is already running")

	case errors.Is(err, tmdb.ErrNotConfigured):
		rw.ServiceUnavailable("TMDb integration is not configured", nil)

	case errors.Is(err, catalog.ErrUpstream),
		errors.Is(err, catalog.ErrSyncFailed),
		errors.Is(err, recommend.ErrUpstream):
		rw.ExternalServiceError(userMessage(err), err)

	default:
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Request failed")
		rw.InternalError("Internal server error")
	}
}

// userMessage returns the text of the outermost sentinel in err's chain.
func userMessage(err error) string {
	for _, sentinel := range []error{
		accounts.ErrRefreshRequired,
		accounts.ErrInvalidToken,
		catalog.ErrQueryRequired,
		catalog.ErrReviewTooLong,
		catalog.ErrUpstream,
		catalog.ErrSyncFailed,
		models.ErrRatingOutOfRange,
		recommend.ErrMissingInteractionFields,
		recommend.ErrInvalidInteractionType,
		recommend.ErrUpstream,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	if errors.Is(err, tmdb.ErrInvalidTimeWindow) {
		return "time_window must be day or week"
	}
	return http.StatusText(http.StatusBadRequest)
}
