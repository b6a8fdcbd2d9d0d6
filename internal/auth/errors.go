// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "errors"

// Sentinel errors. Returned errors wrap exactly one of these.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("no token provided")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// Kind classifies an auth error for transport mapping.
type Kind string

// Error kinds.
const (
	KindNone               Kind = ""
	KindValidation         Kind = "validation"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthenticated    Kind = "unauthenticated"
	KindTokenInvalid       Kind = "token_invalid"
	KindTokenExpired       Kind = "token_expired"
	KindInternal           Kind = "internal"
)

// KindOf returns the kind of err. Errors wrapping no known sentinel are
// KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDuplicateEmail):
		return KindDuplicateEmail
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrTokenExpired):
		return KindTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		return KindTokenInvalid
	default:
		return KindInternal
	}
}
