// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"
)

// User is a stored account. PasswordHash never leaves the server.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Summary returns the client-visible view of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Username: u.Username}
}

// UserSummary is the user shape returned to clients.
type UserSummary struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UserRepository is the credential store.
type UserRepository interface {
	// GetByEmail returns the user with email, or an error wrapping ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts user and sets its ID and CreatedAt. An email that is
	// already taken yields an error wrapping ErrDuplicateEmail.
	Create(ctx context.Context, user *User) error
}
