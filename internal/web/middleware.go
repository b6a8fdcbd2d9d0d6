// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/deckhub/internal/auth"
	"github.com/holomush/deckhub/internal/logging"
	"github.com/holomush/deckhub/internal/observability"
	"github.com/holomush/deckhub/pkg/errutil"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b) //nolint:wrapcheck // pass-through writer
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestID reuses a well-formed incoming X-Request-ID or assigns a new ULID,
// echoes it on the response and stores it in the request context for logging.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := ulid.ParseStrict(id); err != nil {
			id = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// AccessLog logs each request and records it in metrics under its route
// template.
func AccessLog(logger *slog.Logger, metrics *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			route := routeTemplate(r)
			elapsed := time.Since(start)
			metrics.ObserveHTTP(r.Method, route, status, elapsed)
			logger.InfoContext(r.Context(), "request",
				"method", r.Method,
				"route", route,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
			)
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// Recover turns a handler panic into a 500 response.
func Recover(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(rec)
				}
				err := oops.Code("HTTP_HANDLER_PANIC").
					With("method", r.Method).
					With("path", r.URL.Path).
					Errorf("panic: %v", rec)
				errutil.LogErrorContext(r.Context(), logger, "handler panicked", err, "stack", string(debug.Stack()))
				writeMessage(w, http.StatusInternalServerError, msgInternal)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LimitBody caps the request body at limit bytes.
func LimitBody(limit int64) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS reflects the request Origin when it matches one of the glob
// patterns and allows credentials. Preflight requests are answered with 204.
func CORS(patterns []string) (mux.MiddlewareFunc, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, oops.Code("CORS_PATTERN_INVALID").With("pattern", p).Wrap(err)
		}
		globs = append(globs, g)
	}

	allowed := func(origin string) bool {
		for _, g := range globs {
			if g.Match(origin) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")
			if origin != "" && allowed(origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Expose-Headers", RequestIDHeader)
			}

			if isPreflight(r) {
				if origin != "" && allowed(origin) {
					h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
					reqHeaders := r.Header.Get("Access-Control-Request-Headers")
					if reqHeaders == "" {
						reqHeaders = "Content-Type, Authorization"
					}
					h.Set("Access-Control-Allow-Headers", reqHeaders)
					h.Set("Access-Control-Max-Age", "600")
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// RequireAuth rejects requests without a valid bearer token and attaches the
// caller's identity to the request context.
func RequireAuth(gate Authenticator, logger *slog.Logger, metrics *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := gate.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				kind := auth.KindOf(err)
				metrics.RecordAuth("gate", string(kind))
				if kind == auth.KindInternal {
					errutil.LogErrorContext(r.Context(), logger, "token gate failed", err)
				}
				writeMessage(w, http.StatusUnauthorized, gateMessage(kind))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func gateMessage(kind auth.Kind) string {
	switch kind {
	case auth.KindUnauthenticated:
		return msgNoToken
	case auth.KindTokenInvalid:
		return msgInvalidToken
	case auth.KindTokenExpired:
		return msgTokenExpired
	default:
		return msgGateFailed
	}
}

// isPreflight reports whether r is a CORS preflight request.
func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && strings.TrimSpace(r.Header.Get("Access-Control-Request-Method")) != ""
}
