// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/holomush/deckhub/internal/auth"
	"github.com/holomush/deckhub/internal/catalog"
	"github.com/holomush/deckhub/internal/deck"
	"github.com/holomush/deckhub/internal/observability"
	"github.com/holomush/deckhub/pkg/errutil"
)

// AuthService signs users up and in. *auth.Service satisfies it.
type AuthService interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (*auth.Session, error)
	SignIn(ctx context.Context, in auth.SignInInput) (*auth.Session, error)
}

// Authenticator resolves an Authorization header. *auth.Gate satisfies it.
type Authenticator interface {
	Authenticate(header string) (auth.Identity, error)
}

// CardLister lists the catalog. catalog.Repository satisfies it.
type CardLister interface {
	List(ctx context.Context) ([]catalog.Card, error)
}

// DeckService manages the caller's decks. *deck.Service satisfies it.
type DeckService interface {
	Create(ctx context.Context, userID int64, in deck.CreateInput) (*deck.Deck, error)
	ListMine(ctx context.Context, userID int64) ([]deck.Deck, error)
	Get(ctx context.Context, userID, id int64) (*deck.Deck, error)
	Update(ctx context.Context, userID, id int64, in deck.UpdateInput) (*deck.Deck, error)
	Delete(ctx context.Context, userID, id int64) error
}

type handlers struct {
	auth    AuthService
	cards   CardLister
	decks   DeckService
	logger  *slog.Logger
	metrics *observability.Metrics
}

type signUpRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	User auth.Identity `json:"user"`
}

func (h *handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		h.metrics.RecordAuth("sign_up", string(auth.KindValidation))
		writeMessage(w, http.StatusBadRequest, msgSignUpInvalid)
		return
	}

	session, err := h.auth.SignUp(r.Context(), auth.SignUpInput(req))
	kind := auth.KindOf(err)
	h.metrics.RecordAuth("sign_up", outcome(kind))
	switch kind {
	case auth.KindNone:
		writeJSON(w, http.StatusCreated, session)
	case auth.KindValidation:
		writeMessage(w, http.StatusBadRequest, msgSignUpInvalid)
	case auth.KindDuplicateEmail:
		writeMessage(w, http.StatusConflict, msgEmailTaken)
	default:
		h.internal(w, r, "sign-up failed", err)
	}
}

func (h *handlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		h.metrics.RecordAuth("sign_in", string(auth.KindValidation))
		writeMessage(w, http.StatusBadRequest, msgSignInInvalid)
		return
	}

	session, err := h.auth.SignIn(r.Context(), auth.SignInInput(req))
	kind := auth.KindOf(err)
	h.metrics.RecordAuth("sign_in", outcome(kind))
	switch kind {
	case auth.KindNone:
		writeJSON(w, http.StatusOK, session)
	case auth.KindValidation:
		writeMessage(w, http.StatusBadRequest, msgSignInInvalid)
	case auth.KindInvalidCredentials:
		writeMessage(w, http.StatusUnauthorized, msgBadCredentials)
	default:
		h.internal(w, r, "sign-in failed", err)
	}
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgNoToken)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: id})
}

func (h *handlers) listCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.List(r.Context())
	if err != nil {
		h.internal(w, r, "list cards failed", err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *handlers) createDeck(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	var req deck.CreateInput
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, deckBodyMessage(err))
		return
	}

	created, err := h.decks.Create(r.Context(), id.UserID, req)
	if err != nil {
		h.deckError(w, r, err, msgInvalidCards)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) listMyDecks(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	decks, err := h.decks.ListMine(r.Context(), id.UserID)
	if err != nil {
		h.internal(w, r, "list decks failed", err)
		return
	}
	writeJSON(w, http.StatusOK, decks)
}

func (h *handlers) getDeck(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	deckID, ok := deckIDParam(w, r)
	if !ok {
		return
	}

	d, err := h.decks.Get(r.Context(), id.UserID, deckID)
	if err != nil {
		h.deckError(w, r, err, msgInvalidCards)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) updateDeck(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	deckID, ok := deckIDParam(w, r)
	if !ok {
		return
	}

	var req deck.UpdateInput
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		// Ownership is checked before the body, so a foreign deck stays 404.
		if _, getErr := h.decks.Get(r.Context(), id.UserID, deckID); getErr != nil {
			h.deckError(w, r, getErr, msgInvalidCardsUpd)
			return
		}
		writeMessage(w, http.StatusBadRequest, deckBodyMessage(err))
		return
	}

	d, err := h.decks.Update(r.Context(), id.UserID, deckID, req)
	if err != nil {
		h.deckError(w, r, err, msgInvalidCardsUpd)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) deleteDeck(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	deckID, ok := deckIDParam(w, r)
	if !ok {
		return
	}

	if err := h.decks.Delete(r.Context(), id.UserID, deckID); err != nil {
		h.deckError(w, r, err, msgInvalidCards)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msgDeckDeleted})
}

// deckError maps deck errors to responses. invalidCards differs between
// create and update.
func (h *handlers) deckError(w http.ResponseWriter, r *http.Request, err error, invalidCards string) {
	switch {
	case errors.Is(err, deck.ErrNotFound):
		writeMessage(w, http.StatusNotFound, msgDeckNotFound)
	case deck.IsValidation(err):
		msg := invalidCards
		if errors.Is(err, deck.ErrNameRequired) {
			msg = msgNameRequired
		} else if errors.Is(err, deck.ErrCardCount) {
			msg = msgCardCount
		}
		writeMessage(w, http.StatusBadRequest, msg)
	default:
		h.internal(w, r, "deck operation failed", err)
	}
}

// deckBodyMessage maps a deck body that does not decode. A field of the
// wrong JSON type gets that field's validation message.
func deckBodyMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return msgInvalidBody
	}
	switch field, _, _ := strings.Cut(typeErr.Field, "."); field {
	case "cards":
		return msgCardCount
	case "name":
		return msgNameRequired
	default:
		return msgInvalidBody
	}
}

func (h *handlers) internal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	errutil.LogErrorContext(r.Context(), h.logger, msg, err, "method", r.Method, "path", r.URL.Path)
	writeMessage(w, http.StatusInternalServerError, msgInternal)
}

// deckIDParam parses {id}. A non-numeric id cannot name a deck, so it is
// reported as not found.
func deckIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusNotFound, msgDeckNotFound)
		return 0, false
	}
	return id, true
}

func outcome(kind auth.Kind) string {
	if kind == auth.KindNone {
		return "ok"
	}
	return string(kind)
}
