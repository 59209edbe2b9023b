// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package events

import "github.com/ThreeDotsLabs/watermill/message"

// transport is a pub/sub pair plus whatever must be closed with it.
type transport struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	closers    []func() error
}
