// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth implements credential handling and identity tokens for deckhub.
//
// # Components
//
//   - PasswordHasher - salted one-way hashing (argon2id or bcrypt)
//   - TokenService - issues and verifies HS256 identity tokens
//   - Service - sign-up and sign-in over a UserRepository
//   - Gate - resolves an Authorization header into an Identity
//
// Every failure carries one of the package sentinel errors. Callers branch
// with errors.Is or KindOf, never on message text.
//
// The Gate trusts the token signature and never consults the store, so a
// deleted user's token stays valid until it expires.
package auth
