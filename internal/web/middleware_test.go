// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/deckhub/internal/auth"
	"github.com/holomush/deckhub/internal/deck"
	"github.com/holomush/deckhub/internal/logging"
	"github.com/holomush/deckhub/internal/web"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := web.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logging.RequestID(r.Context())
	}))

	t.Run("assigns a ulid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get(web.RequestIDHeader)
		_, err := ulid.ParseStrict(id)
		require.NoError(t, err)
		assert.Equal(t, id, seen)
	})

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		incoming := ulid.Make().String()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(web.RequestIDHeader, incoming)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, incoming, rec.Header().Get(web.RequestIDHeader))
		assert.Equal(t, incoming, seen)
	})

	t.Run("replaces a malformed incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(web.RequestIDHeader, "<script>")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.NotEqual(t, "<script>", rec.Header().Get(web.RequestIDHeader))
	})
}

func TestCORS(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("reflects an allowed origin", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/cards", "", http.Header{"Origin": []string{"http://localhost:5173"}}, nil)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("ignores other origins", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/cards", "", http.Header{"Origin": []string{"https://evil.test"}}, nil)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("answers preflight", func(t *testing.T) {
		rec := f.do(t, http.MethodOptions, "/api/decks/1", "", http.Header{
			"Origin":                         []string{"https://app.example.com"},
			"Access-Control-Request-Method":  []string{"PATCH"},
			"Access-Control-Request-Headers": []string{"authorization,content-type"},
		}, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
		assert.Equal(t, "authorization,content-type", rec.Header().Get("Access-Control-Allow-Headers"))
	})
}

func TestCORS_InvalidPattern(t *testing.T) {
	_, err := web.CORS([]string{"[unterminated"})
	assert.Error(t, err)
}

func TestRecover(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	h := web.Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cards", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "HTTP_HANDLER_PANIC")
	assert.Contains(t, logs.String(), "kaboom")
}

func TestLimitBody(t *testing.T) {
	f := newAPIFixture(t)
	big := `{"email":"` + strings.Repeat("a", web.MaxBodyBytes) + `","username":"a","password":"secret1"}`

	var msg messageResponse
	rec := f.do(t, http.MethodPost, "/api/auth/sign-up", big, nil, &msg)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.users.users)
}

func TestRequireAuth_AttachesIdentity(t *testing.T) {
	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	token, err := tokens.Issue(5, "e@x.com")
	require.NoError(t, err)

	var got auth.Identity
	h := web.RequireAuth(auth.NewGate(tokens), slog.Default(), nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = auth.IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, auth.Identity{UserID: 5, Email: "e@x.com"}, got)
}

func TestAccessLog_UsesRouteTemplate(t *testing.T) {
	f := newAPIFixture(t)
	f.decks.getFn = func(int64, int64) (*deck.Deck, error) { return nil, deckNotFound() }

	rec := f.do(t, http.MethodGet, "/api/decks/3", "", f.bearer(t, 7, "a@x.com"), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, f.logs.String(), `"route":"/api/decks/{id}"`)
	assert.Contains(t, f.logs.String(), `"status":404`)
	assert.NotContains(t, f.logs.String(), "Bearer")
}

func TestUnknownAPIPath(t *testing.T) {
	f := newAPIFixture(t)
	var msg messageResponse
	rec := f.do(t, http.MethodGet, "/api/nope", "", nil, &msg)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", msg.Message)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>deckhub</h1>"), 0o600))

	f := newAPIFixture(t)
	h, err := web.NewHandler(web.Options{
		Auth:      f.svc,
		Gate:      auth.NewGate(f.tokens),
		Cards:     f.cards,
		Decks:     f.decks,
		StaticDir: dir,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deckhub")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cards", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "api routes win over static files")
}

func TestNewHandler_RequiresDependencies(t *testing.T) {
	_, err := web.NewHandler(web.Options{})
	assert.Error(t, err)
}

func TestNewHandler_ContinuesIncomingTrace(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Service: "deckhub", Version: "test", Level: "debug", Writer: &logs})
	require.NoError(t, err)

	f := newAPIFixture(t)
	h, err := web.NewHandler(web.Options{
		Auth:   f.svc,
		Gate:   auth.NewGate(f.tokens),
		Cards:  f.cards,
		Decks:  f.decks,
		Logger: logger,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
	assert.Contains(t, logs.String(), `"request_id":"`+rec.Header().Get(web.RequestIDHeader)+`"`)
}
