// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/deckhub/pkg/errutil"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "failed to parse JSON: %s", buf.String())
	return entry
}

func newTestLogger(t *testing.T, format string, buf *bytes.Buffer) *slog.Logger {
	t.Helper()
	logger, err := New(Options{Service: "deckhub", Version: "1.0.0", Format: format, Level: "debug", Writer: buf})
	require.NoError(t, err)
	return logger
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "json", &buf)

	logger.Info("test message")

	entry := decode(t, &buf)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "deckhub", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "level")
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "text", &buf)

	logger.Info("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), "service=deckhub")
}

func TestHandler_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "json", &buf)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "traced message")

	entry := decode(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestHandler_NoTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "json", &buf)

	logger.Info("untraced message")

	entry := decode(t, &buf)
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
	assert.NotContains(t, entry, "request_id")
}

func TestHandler_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "json", &buf)

	ctx := WithRequestID(context.Background(), "01J0000000000000000000000A")
	logger.InfoContext(ctx, "handled")

	entry := decode(t, &buf)
	assert.Equal(t, "01J0000000000000000000000A", entry["request_id"])
	assert.Equal(t, "01J0000000000000000000000A", RequestID(ctx))
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "json", &buf).
		With("component", "web").
		WithGroup("http")

	logger.Info("request", "status", 200)

	entry := decode(t, &buf)
	assert.Equal(t, "web", entry["component"])
	group, ok := entry["http"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 200, group["status"], 0)
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Service: "deckhub", Format: "json", Level: "warn", Writer: &buf})
	require.NoError(t, err)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "LOG_FORMAT_INVALID")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "LOG_LEVEL_INVALID")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
