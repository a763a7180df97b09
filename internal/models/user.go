// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles copied from the identity provider's token claims.
// They are informational; no endpoint is gated on them.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is a profile synced from the caller's token.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Subscription bool      `json:"subscription"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpsertProfileRequest is the body of PUT /api/v1/users/me.
type UpsertProfileRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
}

// UpdateProfileRequest is the body of PATCH /api/v1/users/me.
// Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

// Empty reports whether the request changes nothing.
func (r *UpdateProfileRequest) Empty() bool {
	return r.Name == nil && r.Email == nil
}

// SubscriptionRequest is the body of PUT /api/v1/users/me/subscription.
type SubscriptionRequest struct {
	Subscription *bool `json:"subscription" validate:"required"`
}

// SubscriptionStatus is returned by GET /api/v1/users/{id}/subscription.
type SubscriptionStatus struct {
	UserID       uuid.UUID `json:"user_id"`
	Subscription bool      `json:"subscription"`
}
