// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// captureLogs swaps in a debug-level JSON logger writing to a buffer and
// restores the previous logger when the test ends.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("Timestamp should default to true")
	}
	if cfg.Caller {
		t.Error("Caller should default to false")
	}
}

func TestInit_WritesJSON(t *testing.T) {
	buf := captureLogs(t)

	Info().Str("video_id", "v1").Msg("uploaded")

	out := buf.String()
	for _, want := range []string{`"level":"info"`, `"video_id":"v1"`, `"message":"uploaded"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCtx_AddsRequestAndCorrelationIDs(t *testing.T) {
	buf := captureLogs(t)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithCorrelationID(ctx, "corr-9")
	Ctx(ctx).Info().Msg("handled")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-123"`) {
		t.Errorf("missing request_id in %q", out)
	}
	if !strings.Contains(out, `"correlation_id":"corr-9"`) {
		t.Errorf("missing correlation_id in %q", out)
	}
}

func TestContextIDs_EmptyWhenAbsent(t *testing.T) {
	ctx := context.Background()
	if id := RequestIDFromContext(ctx); id != "" {
		t.Errorf("RequestIDFromContext = %q, want empty", id)
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		t.Errorf("CorrelationIDFromContext = %q, want empty", id)
	}
}

func TestGenerateIDs(t *testing.T) {
	if got := len(GenerateCorrelationID()); got != 8 {
		t.Errorf("correlation id length = %d, want 8", got)
	}
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b {
		t.Error("request ids should be unique")
	}
}

func TestSlogBridge(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLoggerFrom(zerolog.New(&buf))

	logger.WithGroup("svc").Warn("service restarted", "name", "http-server", "attempt", 3)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"svc.name":"http-server"`, `"svc.attempt":3`, `"message":"service restarted"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

func TestWatermillAdapter(t *testing.T) {
	buf := captureLogs(t)

	adapter := NewWatermillLogger().With(watermill.LogFields{"topic": "vidstream.view.recorded"})
	adapter.Error("publish failed", errors.New("nats down"), watermill.LogFields{"attempt": 1})

	out := buf.String()
	for _, want := range []string{`"component":"events"`, `"topic":"vidstream.view.recorded"`, `"error":"nats down"`, `"attempt":1`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}
