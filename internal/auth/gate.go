// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"strings"

	"github.com/samber/oops"
)

const bearerPrefix = "Bearer "

// TokenVerifier resolves a raw token into an Identity.
type TokenVerifier interface {
	Verify(raw string) (Identity, error)
}

// Gate turns an Authorization header into an Identity. It does no store
// access.
type Gate struct {
	tokens TokenVerifier
}

// NewGate creates a Gate backed by tokens.
func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate verifies a "Bearer <token>" header value.
//
// A missing header or other scheme wraps ErrUnauthenticated. Verification
// failures keep the verifier's kind. A panic inside the verifier is recovered
// and returned as an error wrapping no sentinel, which KindOf reports as
// KindInternal.
func (g *Gate) Authenticate(header string) (id Identity, err error) {
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return Identity{}, oops.Code("AUTH_UNAUTHENTICATED").Wrap(ErrUnauthenticated)
	}

	defer func() {
		if r := recover(); r != nil {
			id = Identity{}
			err = oops.Code("AUTH_GATE_FAILED").Errorf("token verification panicked: %v", r)
		}
	}()

	id, err = g.tokens.Verify(raw)
	if err != nil {
		//nolint:wrapcheck // verifier returns coded oops errors
		return Identity{}, err
	}
	return id, nil
}
