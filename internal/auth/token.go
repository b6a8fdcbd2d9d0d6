// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the identity token lifetime.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Identity is the subject of a verified token.
type Identity struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// tokenClaims is the exact token payload. Pointer fields let verification
// tell a missing claim from a zero value.
type tokenClaims struct {
	UserID *int64  `json:"userId"`
	Email  *string `json:"email"`
	jwt.RegisteredClaims
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// TokenService issues and verifies HS256 identity tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenService creates a TokenService signing with secret. The secret is
// copied, so later changes to the caller's slice have no effect.
func NewTokenService(secret []byte, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, oops.Code("AUTH_SECRET_MISSING").Errorf("token signing secret is required")
	}

	s := &TokenService{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return s, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the user, expiring TTL after now.
func (s *TokenService) Issue(userID int64, email string) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID: &userID,
		Email:  &email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").With("user_id", userID).Wrap(err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns its subject.
// Failures wrap ErrTokenExpired when the token is past its expiry and
// ErrTokenInvalid for everything else, including payloads that do not match
// the claim schema.
func (s *TokenService) Verify(raw string) (Identity, error) {
	claims := &tokenClaims{}
	_, err := s.parser.ParseWithClaims(raw, claims, s.key)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, oops.Code("AUTH_TOKEN_EXPIRED").Wrap(ErrTokenExpired)
		}
		return Identity{}, oops.Code("AUTH_TOKEN_INVALID").
			With("reason", err.Error()).
			Wrap(ErrTokenInvalid)
	}

	if claims.UserID == nil || claims.Email == nil {
		return Identity{}, oops.Code("AUTH_TOKEN_INVALID").
			With("reason", "missing identity claims").
			Wrap(ErrTokenInvalid)
	}

	return Identity{UserID: *claims.UserID, Email: *claims.Email}, nil
}

func (s *TokenService) key(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, oops.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return s.secret, nil
}
