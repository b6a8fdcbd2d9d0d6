// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web is the HTTP API: routing, handlers and middleware.
package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/samber/oops"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"

	"github.com/holomush/deckhub/internal/observability"
)

// Options configures NewHandler.
type Options struct {
	Auth  AuthService
	Gate  Authenticator
	Cards CardLister
	Decks DeckService

	// StaticDir is served at "/" when non-empty.
	StaticDir string
	// AllowedOrigins are glob patterns matched against the Origin header.
	AllowedOrigins []string

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewHandler builds the API handler.
//
// Canonical routes live under /api/auth, /api/me, /api/cards and /api/decks.
// The /api/cards/cards and /api/decks/decks/... aliases are kept for older
// clients.
func NewHandler(opts Options) (http.Handler, error) {
	if opts.Auth == nil || opts.Gate == nil || opts.Cards == nil || opts.Decks == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("auth, gate, cards and decks are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cors, err := CORS(opts.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	h := &handlers{
		auth:    opts.Auth,
		cards:   opts.Cards,
		decks:   opts.Decks,
		logger:  logger,
		metrics: opts.Metrics,
	}

	r := mux.NewRouter()
	r.Use(AccessLog(logger, opts.Metrics))

	api := r.PathPrefix("/api").Subrouter()

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/sign-up", h.signUp).Methods(http.MethodPost)
	authRoutes.HandleFunc("/sign-in", h.signIn).Methods(http.MethodPost)

	api.HandleFunc("/cards", h.listCards).Methods(http.MethodGet)
	api.HandleFunc("/cards/cards", h.listCards).Methods(http.MethodGet)

	gated := api.NewRoute().Subrouter()
	gated.Use(RequireAuth(opts.Gate, logger, opts.Metrics))
	gated.HandleFunc("/me", h.me).Methods(http.MethodGet)
	for _, prefix := range []string{"/decks", "/decks/decks"} {
		gated.HandleFunc(prefix, h.createDeck).Methods(http.MethodPost)
		gated.HandleFunc(prefix+"/mine", h.listMyDecks).Methods(http.MethodGet)
		gated.HandleFunc(prefix+"/{id}", h.getDeck).Methods(http.MethodGet)
		gated.HandleFunc(prefix+"/{id}", h.updateDeck).Methods(http.MethodPatch)
		gated.HandleFunc(prefix+"/{id}", h.deleteDeck).Methods(http.MethodDelete)
	}

	api.NotFoundHandler = AccessLog(logger, opts.Metrics)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, msgNotFound)
	}))
	api.MethodNotAllowedHandler = AccessLog(logger, opts.Metrics)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	}))

	if opts.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(opts.StaticDir))).Methods(http.MethodGet, http.MethodHead)
	}

	var handler http.Handler = r
	handler = LimitBody(MaxBodyBytes)(handler)
	handler = cors(handler)
	handler = Recover(logger)(handler)
	handler = RequestID(handler)
	// An incoming traceparent header continues the caller's trace, so
	// request logs carry its trace_id.
	handler = otelhttp.NewHandler(handler, "deckhub.api",
		otelhttp.WithPropagators(propagation.TraceContext{}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return handler, nil
}
