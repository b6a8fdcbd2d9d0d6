// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Client-visible messages.
const (
	msgInternal        = "Internal server error"
	msgNoToken         = "No token provided"
	msgInvalidToken    = "Invalid token"
	msgTokenExpired    = "Token expired"
	msgGateFailed      = "Invalid or expired token"
	msgSignUpInvalid   = "Missing or invalid required fields (password must be at least 6 characters)"
	msgSignInInvalid   = "Missing required fields"
	msgBadCredentials  = "Invalid credentials"
	msgEmailTaken      = "Email already in use"
	msgDeckNotFound    = "Deck not found"
	msgNameRequired    = "Name is required"
	msgCardCount       = "A deck must have exactly 10 cards"
	msgInvalidCards    = "One or more card IDs are invalid"
	msgInvalidCardsUpd = "Invalid card IDs"
	msgInvalidBody     = "Invalid request body"
	msgDeckDeleted     = "Deck deleted successfully"
	msgNotFound        = "Not found"
)

// messageBody is the shape of every error response.
type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errchkjson,errcheck // client may have gone away
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

// errEmptyBody is returned by decodeJSON for a request without a body.
var errEmptyBody = errors.New("empty body")

// decodeJSON decodes a single JSON value from r's body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err //nolint:wrapcheck // mapped to a 400 by callers
	}
	return nil
}
