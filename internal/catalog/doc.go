// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package catalog keeps the local movie catalog in step with TMDb and serves
the browsing, favorites, and ratings operations.

Every TMDb list the service fetches (trending, popular, search) is upserted
into the catalog before it is returned, so recommendation training always
sees the movies users have been shown. Results are paginated locally over
the synced page; TMDb paging is passed through unchanged.

Favorites and ratings publish an interaction event and drop the user's cached
recommendation lists. Both side effects are best effort: a failure is logged
and the write still succeeds.

# Usage

	svc := catalog.NewService(tmdbClient, db, cfg.TMDb.ImageBaseURL)
	svc.SetInteractionHooks(eventBus, recService)

	page, err := svc.Trending(ctx, "week", 1, 20)
*/
package catalog
