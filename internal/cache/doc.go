// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package cache provides the pluggable key-value cache behind TMDb responses and
computed recommendations.

# Backends

Two implementations satisfy Backend:

  - Memory: an in-process LRU with per-entry TTL, O(1) Get/Set/eviction
  - Redis: go-redis with namespaced keys ("movie_rec:trending_movies_week_1")

New selects the backend from config.CacheConfig.

# Values

Backends store raw bytes. GetJSON and SetJSON encode values with goccy/go-json.
A value that no longer decodes (for example after a struct change) is treated
as a miss and removed.

# Key Naming

Callers own their key space. Current prefixes:

  - trending_movies_, popular_movies_, movie_details_, similar_movies_,
    search_movies_, movie_genres, movies_by_genre_ (TMDb client)
  - user_recommendations_, trending_recommendations_ (recommend service)

DeletePrefix removes a whole family, which is how list caches are cleared after
a catalog sync and how a user's recommendations are invalidated.

# Metrics

Lookups are counted in reelmatch_cache_hits_total and
reelmatch_cache_misses_total, labelled by backend name.
*/
package cache
