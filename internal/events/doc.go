// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package events carries domain events between the catalog, the recommendation
engine, the job runner, and websocket clients.

# Transports

The Bus is built on Watermill. Two transports are available:

  - channel: in-process gochannel pub/sub (default)
  - nats: NATS JetStream through watermill-nats, optionally backed by an
    embedded nats-server. Requires building with -tags=nats.

Publishing goes through a gobreaker circuit breaker so a broken broker fails
fast instead of stalling request handlers.

# Topics

Topic names are prefixed with events.topic_prefix:

	{prefix}.interaction.tracked        user favourited, rated, or viewed a movie
	{prefix}.catalog.synced             a TMDb sync run finished
	{prefix}.recommendations.generated  batch recommendation generation finished

# Router

Router subscribes to all three topics. Interaction events invalidate the
user's cached recommendations; catalog and recommendation events are pushed
to websocket clients.
*/
package events
