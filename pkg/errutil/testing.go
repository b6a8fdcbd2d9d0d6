// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOops(t testing.TB, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode asserts the innermost oops code of err.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	assert.Equal(t, code, requireOops(t, err).Code(), "error: %v", err)
}

// AssertErrorContext asserts that some layer of err attached key with value.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	ctx := requireOops(t, err).Context()
	if assert.Contains(t, ctx, key, "context keys of %v", err) {
		assert.Equal(t, value, ctx[key], "context %q", key)
	}
}

// AssertSentinel asserts that err wraps target and carries code. Domain
// errors are a sentinel for callers to branch on plus a code for logs, and
// both must survive wrapping.
func AssertSentinel(t testing.TB, err, target error, code string) {
	t.Helper()
	assert.ErrorIs(t, err, target)
	AssertErrorCode(t, err, code)
}
