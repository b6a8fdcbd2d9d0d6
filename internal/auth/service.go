// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/samber/oops"
)

// MinPasswordLength is the shortest password sign-up accepts.
const MinPasswordLength = 6

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
}

// SignUpInput is the sign-up request.
type SignUpInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate requires every field and a password of at least
// MinPasswordLength characters.
func (in SignUpInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Password, validation.Required, validation.RuneLength(MinPasswordLength, 0)),
	)
}

// SignInInput is the sign-in request.
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate requires both fields.
func (in SignInInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// Session is a successful sign-up or sign-in result.
type Session struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// Service orchestrates sign-up and sign-in.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger

	// dummyHash is verified when the email is unknown, so sign-in costs the
	// same whether or not the account exists. It hashes a random secret
	// with the configured hasher and never matches a real password.
	dummyHash string
}

// NewService creates a Service. logger may be nil.
func NewService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("token issuer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dummyHash, err := hasher.Hash(rand.Text())
	if err != nil {
		return nil, oops.Code("AUTH_DUMMY_HASH_FAILED").Wrap(err)
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger, dummyHash: dummyHash}, nil
}

// SignUp registers a user and returns a token for it.
//
// Validation runs before any store access. The email lookup is an early
// check only; a concurrent sign-up that wins the race is caught by the
// store's unique constraint and reported the same way.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	if err := validationError(in.Validate()); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
	case !errors.Is(err, ErrNotFound):
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &User{Email: in.Email, Username: in.Username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").
				With("race", true).
				Wrap(err)
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return session, nil
}

// SignIn authenticates by email and password. Unknown email and wrong
// password both wrap ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	if err := validationError(in.Validate()); err != nil {
		return nil, err
	}

	user, lookupErr := s.users.GetByEmail(ctx, in.Email)

	var targetHash string
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		targetHash = s.dummyHash
	default:
		return nil, oops.Code("AUTH_SIGNIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	// Always verify so response time does not reveal whether the email exists.
	valid, verifyErr := s.hasher.Verify(in.Password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return nil, oops.Code("AUTH_SIGNIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		if userExists {
			s.logger.InfoContext(ctx, "sign-in rejected", "user_id", user.ID, "reason", "password_mismatch")
		} else {
			s.logger.InfoContext(ctx, "sign-in rejected", "reason", "unknown_email")
		}
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	return s.issue(user)
}

func (s *Service) issue(user *User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("user_id", user.ID).
			Wrap(err)
	}
	return &Session{Token: token, User: user.Summary()}, nil
}

// validationError turns ozzo field errors into an AUTH_VALIDATION error
// wrapping ErrValidation, with the failing fields in its context.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return oops.Code("AUTH_VALIDATION").Wrapf(ErrValidation, "%s", err.Error())
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return oops.Code("AUTH_VALIDATION").
		With("fields", names).
		Wrapf(ErrValidation, "%s", fields.Error())
}
