// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

//go:build !nats

package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/reelmatch/internal/config"
)

// newNATSTransport is unavailable without the nats build tag.
func newNATSTransport(_ *config.EventsConfig, _ watermill.LoggerAdapter) (*transport, error) {
	return nil, fmt.Errorf("NATS transport not available: build with -tags=nats")
}
