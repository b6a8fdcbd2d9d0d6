// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/deckhub/pkg/errutil"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("DECK_CREATE_FAILED").
		With("deck_name", "starter").
		Errorf("insert failed")

	errutil.LogError(logger, "create deck", err)

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "create deck", entry["msg"])
	assert.Equal(t, "DECK_CREATE_FAILED", entry["code"])
	ctx, ok := entry["context"].(map[string]any)
	require.True(t, ok, "context should be logged as an object")
	assert.Equal(t, "starter", ctx["deck_name"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("connection reset"))

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "connection reset")
	assert.NotContains(t, entry, "code")
}

func TestLogErrorContext_KeepsCallerAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogErrorContext(context.Background(), logger, "request failed",
		oops.Code("USER_QUERY_FAILED").Errorf("timeout"),
		"request_id", "01HZN3XS000000000000000000")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "01HZN3XS000000000000000000", entry["request_id"])
	assert.Equal(t, "USER_QUERY_FAILED", entry["code"])
}
