// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/models"
)

// UserIDHeader carries the caller in AuthModeNone.
const UserIDHeader = "X-User-ID"

// Middleware resolves the caller of each request.
type Middleware struct {
	jwtManager *JWTManager
	authMode   AuthMode
}

// NewMiddleware creates the middleware. jwtManager may be nil in AuthModeNone.
func NewMiddleware(jwtManager *JWTManager, authMode AuthMode) *Middleware {
	return &Middleware{jwtManager: jwtManager, authMode: authMode}
}

// Authenticate attaches the caller to the context when credentials are
// present. Requests without credentials continue anonymously; bad
// credentials are rejected with 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.resolve(r)
		switch {
		case errors.Is(err, ErrNoCredentials):
			next.ServeHTTP(w, r)
		case err != nil:
			logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Authentication failed")
			writeUnauthorized(w, "invalid credentials")
		default:
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
		}
	})
}

// RequireAuth rejects requests that reach it without a caller. It runs
// Authenticate itself unless an outer Authenticate already resolved one,
// so routes can use it alone or nested.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SubjectFromContext(r.Context()); !ok {
			writeUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
	authenticated := m.Authenticate(guarded)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SubjectFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		authenticated.ServeHTTP(w, r)
	})
}

func (m *Middleware) resolve(r *http.Request) (*Subject, error) {
	if m.authMode == AuthModeNone {
		raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if raw == "" {
			return nil, ErrNoCredentials
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			return nil, ErrInvalidCredentials
		}
		return &Subject{ID: id, Role: models.RoleUser}, nil
	}

	token, err := extractJWTToken(r)
	if err != nil {
		return nil, err
	}
	return m.jwtManager.ValidateToken(token)
}

// extractJWTToken extracts JWT token from Authorization header or cookie
func extractJWTToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie("token")
		if err != nil || cookie.Value == "" {
			return "", ErrNoCredentials
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrInvalidCredentials
	}
	return parts[1], nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="vidstream"`)
	w.WriteHeader(http.StatusUnauthorized)
	resp := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode unauthorized response")
	}
}
