// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package websocket pushes live catalog and recommendation updates to clients.

It uses gorilla/websocket with a hub-and-spoke layout:

	┌──────────┐
	│   Hub    │ ← broadcasts, or targets one user's clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│ Client1  │ Client2 │ Client3 │
	│ (user 4) │ (user 4)│ (user 9)│
	└──────────┴─────────┴─────────┘

Each client runs a read pump (handles client pings and pong keepalive) and a
write pump (drains the send queue and pings the peer).

Message types:

  - catalog_synced: a TMDb sync run finished
  - recommendations_ready: new batch recommendations exist for this user
  - trending_updated: trending recommendations were regenerated
  - ping / pong: application-level keepalive initiated by the client

Connections are authenticated before the upgrade. Browsers cannot set an
Authorization header on a websocket request, so /api/ws also accepts the
access token as ?token=.

Usage:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)
	r.Get("/api/ws", authMW.AuthenticateWebSocket(websocket.NewHandler(hub, origins)))
*/
package websocket
