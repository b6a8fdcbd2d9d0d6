// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/require"

	"github.com/holomush/deckhub/internal/auth"
	"github.com/holomush/deckhub/internal/catalog"
	"github.com/holomush/deckhub/internal/deck"
	"github.com/holomush/deckhub/internal/observability"
	"github.com/holomush/deckhub/internal/web"
)

var testSecret = []byte("web-test-secret")

// memoryUsers is an in-memory auth.UserRepository.
type memoryUsers struct {
	mu     sync.Mutex
	users  map[string]*auth.User
	nextID int64
	err    error
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) Create(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return oops.Code("USER_EMAIL_TAKEN").Wrap(auth.ErrDuplicateEmail)
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.Email] = &cp
	return nil
}

// stubCards is a fixed catalog.
type stubCards struct {
	cards []catalog.Card
	err   error
}

func (s *stubCards) List(context.Context) ([]catalog.Card, error) {
	return s.cards, s.err
}

// stubDecks records calls and returns canned results.
type stubDecks struct {
	createFn func(userID int64, in deck.CreateInput) (*deck.Deck, error)
	listFn   func(userID int64) ([]deck.Deck, error)
	getFn    func(userID, id int64) (*deck.Deck, error)
	updateFn func(userID, id int64, in deck.UpdateInput) (*deck.Deck, error)
	deleteFn func(userID, id int64) error
}

func (s *stubDecks) Create(_ context.Context, userID int64, in deck.CreateInput) (*deck.Deck, error) {
	return s.createFn(userID, in)
}

func (s *stubDecks) ListMine(_ context.Context, userID int64) ([]deck.Deck, error) {
	return s.listFn(userID)
}

func (s *stubDecks) Get(_ context.Context, userID, id int64) (*deck.Deck, error) {
	return s.getFn(userID, id)
}

func (s *stubDecks) Update(_ context.Context, userID, id int64, in deck.UpdateInput) (*deck.Deck, error) {
	return s.updateFn(userID, id, in)
}

func (s *stubDecks) Delete(_ context.Context, userID, id int64) error {
	return s.deleteFn(userID, id)
}

func deckNotFound() error {
	return oops.Code("DECK_NOT_FOUND").Wrap(deck.ErrNotFound)
}

type apiFixture struct {
	users   *memoryUsers
	cards   *stubCards
	decks   *stubDecks
	tokens  *auth.TokenService
	svc     *auth.Service
	logger  *slog.Logger
	metrics *observability.Metrics
	logs    *bytes.Buffer
	handler http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		users: &memoryUsers{users: make(map[string]*auth.User)},
		cards: &stubCards{},
		decks: &stubDecks{
			createFn: func(int64, deck.CreateInput) (*deck.Deck, error) { return nil, errors.New("unexpected") },
			listFn:   func(int64) ([]deck.Deck, error) { return nil, errors.New("unexpected") },
			getFn:    func(int64, int64) (*deck.Deck, error) { return nil, errors.New("unexpected") },
			updateFn: func(int64, int64, deck.UpdateInput) (*deck.Deck, error) { return nil, errors.New("unexpected") },
			deleteFn: func(int64, int64) error { return errors.New("unexpected") },
		},
		metrics: observability.NewServer("127.0.0.1:0", nil).Metrics(),
		logs:    &bytes.Buffer{},
	}

	var err error
	f.tokens, err = auth.NewTokenService(testSecret)
	require.NoError(t, err)

	f.logger = slog.New(slog.NewJSONHandler(f.logs, nil))
	hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1})
	f.svc, err = auth.NewService(f.users, hasher, f.tokens, f.logger)
	require.NoError(t, err)

	f.handler = mustHandler(t, f, auth.NewGate(f.tokens))
	return f
}

func mustHandler(t *testing.T, f *apiFixture, gate web.Authenticator) http.Handler {
	t.Helper()
	h, err := web.NewHandler(web.Options{
		Auth:           f.svc,
		Gate:           gate,
		Cards:          f.cards,
		Decks:          f.decks,
		AllowedOrigins: []string{"http://localhost:*", "https://*.example.com"},
		Logger:         f.logger,
		Metrics:        f.metrics,
	})
	require.NoError(t, err)
	return h
}

// do sends a request and decodes a JSON body into out when out is non-nil.
func (f *apiFixture) do(t *testing.T, method, path, body string, header http.Header, out any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
	}
	return rec
}

func (f *apiFixture) bearer(t *testing.T, userID int64, email string) http.Header {
	t.Helper()
	token, err := f.tokens.Issue(userID, email)
	require.NoError(t, err)
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

type messageResponse struct {
	Message string `json:"message"`
}
