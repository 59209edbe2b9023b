// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillLogger implements watermill.LoggerAdapter with zerolog.
type WatermillLogger struct {
	logger zerolog.Logger
	fields watermill.LogFields
}

var _ watermill.LoggerAdapter = (*WatermillLogger)(nil)

// NewWatermillLogger returns an adapter tagged component=events.
func NewWatermillLogger() *WatermillLogger {
	return &WatermillLogger{logger: WithComponent("events")}
}

// NewWatermillLoggerWithLogger wraps a specific logger.
//
//nolint:gocritic // zerolog.Logger is passed by value by design of the library
func NewWatermillLoggerWithLogger(logger zerolog.Logger) *WatermillLogger {
	return &WatermillLogger{logger: logger}
}

func (w *WatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.emit(w.logger.Error().Err(err), msg, fields)
}

func (w *WatermillLogger) Info(msg string, fields watermill.LogFields) {
	w.emit(w.logger.Info(), msg, fields)
}

// Debug is used by watermill for per-message chatter.
func (w *WatermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.emit(w.logger.Debug(), msg, fields)
}

func (w *WatermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.emit(w.logger.Trace(), msg, fields)
}

func (w *WatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillLogger{logger: w.logger, fields: w.fields.Add(fields)}
}

func (w *WatermillLogger) emit(e *zerolog.Event, msg string, fields watermill.LogFields) {
	if e == nil {
		return
	}
	for k, v := range w.fields.Add(fields) {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}
