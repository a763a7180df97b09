// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func echoSubject() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SubjectFromContext(r.Context())
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(s.ID.String()))
	})
}

func TestMiddleware_JWT(t *testing.T) {
	m := newTestManager(t, "")
	mw := NewMiddleware(m, AuthModeJWT)
	id := uuid.New()
	token, err := m.GenerateToken(Subject{ID: id, Role: "USER"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		handler    http.Handler
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{"bearer header", mw.RequireAuth(echoSubject()), func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		}, http.StatusOK, id.String()},
		{"cookie", mw.RequireAuth(echoSubject()), func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "token", Value: token})
		}, http.StatusOK, id.String()},
		{"missing on protected route", mw.RequireAuth(echoSubject()), func(*http.Request) {}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"missing on optional route", mw.Authenticate(echoSubject()), func(*http.Request) {}, http.StatusOK, "anonymous"},
		{"bad scheme", mw.Authenticate(echoSubject()), func(r *http.Request) {
			r.Header.Set("Authorization", "Basic abc")
		}, http.StatusUnauthorized, "invalid credentials"},
		{"tampered", mw.Authenticate(echoSubject()), func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token+"x")
		}, http.StatusUnauthorized, "invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestMiddleware_NoneMode(t *testing.T) {
	mw := NewMiddleware(nil, AuthModeNone)
	id := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, id.String())
	rec := httptest.NewRecorder()
	mw.RequireAuth(echoSubject()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != id.String() {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, "bob")
	rec = httptest.NewRecorder()
	mw.Authenticate(echoSubject()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("malformed X-User-ID status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	mw.RequireAuth(echoSubject()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing X-User-ID status = %d", rec.Code)
	}
}

func TestMiddleware_NestedAuthenticate(t *testing.T) {
	m := newTestManager(t, "")
	mw := NewMiddleware(m, AuthModeJWT)
	id := uuid.New()
	token, err := m.GenerateToken(Subject{ID: id})
	if err != nil {
		t.Fatal(err)
	}

	validations := 0
	counting := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SubjectFromContext(r.Context()); ok {
				validations++
			}
			next.ServeHTTP(w, r)
		})
	}
	h := mw.Authenticate(counting(mw.RequireAuth(echoSubject())))

	req := httptest.NewRequest(http.MethodDelete, "/videos/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != id.String() {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if validations != 1 {
		t.Errorf("subject seen %d times before the guard, want 1", validations)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/videos/x", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous through nested chain = %d, want 401", rec.Code)
	}
}
