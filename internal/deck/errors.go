// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package deck

import "errors"

// Sentinel errors.
var (
	ErrNotFound     = errors.New("deck not found")
	ErrNameRequired = errors.New("name is required")
	ErrCardCount    = errors.New("a deck must have exactly 10 cards")
	ErrInvalidCards = errors.New("one or more card ids are invalid")
)

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrCardCount) ||
		errors.Is(err, ErrInvalidCards)
}
