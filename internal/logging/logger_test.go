// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.Caller {
		t.Error("Caller should default to false")
	}
	if !cfg.Timestamp {
		t.Error("Timestamp should default to true")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Timestamp: true, Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("output missing level: %s", out)
	}
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("output missing field: %s", out)
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Msg("dropped")
	Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info entry should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn entry missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{" Debug ", zerolog.DebugLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCtx_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithUserID(ctx, 42)

	Ctx(ctx).Info().Msg("handled")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"correlation_id":"corr-1"`, `"user_id":42`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestContextIDs_Absent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext = %q, want empty", got)
	}
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("CorrelationIDFromContext = %q, want empty", got)
	}
}

func TestGenerateIDs(t *testing.T) {
	t.Parallel()

	if got := len(GenerateRequestID()); got != 36 {
		t.Errorf("request id length = %d, want 36", got)
	}
	if got := len(GenerateCorrelationID()); got != 8 {
		t.Errorf("correlation id length = %d, want 8", got)
	}
	if GenerateRequestID() == GenerateRequestID() {
		t.Error("request ids should be unique")
	}
}
