// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// AuthMode represents the authentication strategy.
type AuthMode string

const (
	// AuthModeNone trusts the X-User-ID header
	AuthModeNone AuthMode = "none"

	// AuthModeJWT uses JWT Bearer tokens
	AuthModeJWT AuthMode = "jwt"
)

// ParseAuthMode converts a string to AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch s {
	case "jwt", "":
		return AuthModeJWT, nil
	case "none":
		return AuthModeNone, nil
	default:
		return "", errors.New("invalid auth mode: " + s)
	}
}

// Standard authentication errors
var (
	// ErrNoCredentials indicates no credentials were provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates credentials were invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Subject is the authenticated caller.
type Subject struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  string
}

type contextKey string

const subjectContextKey contextKey = "subject"

// ContextWithSubject attaches s to ctx.
func ContextWithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// SubjectFromContext returns the caller set by the middleware.
func SubjectFromContext(ctx context.Context) (*Subject, bool) {
	s, ok := ctx.Value(subjectContextKey).(*Subject)
	return s, ok && s != nil
}
