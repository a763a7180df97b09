// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// Package users manages the profiles synced from the identity provider:
// upsert keyed by the token subject, partial edits, the subscription flag
// and deletion with its analytics cascade.
package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/events"
	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/models"
)

// Store is the user half of the relational store.
type Store interface {
	ListUsers(ctx context.Context, page models.Page) ([]models.User, int, error)
	UpsertUser(ctx context.Context, u *models.User) (*models.User, bool, error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error)
	SetSubscription(ctx context.Context, id uuid.UUID, subscribed bool) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (int64, error)
}

// Reader serves single-user lookups, usually through the directory cache.
type Reader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Invalidator drops a cached user after a write.
type Invalidator interface {
	InvalidateUser(id uuid.UUID)
}

// Service implements the profile operations.
type Service struct {
	store  Store
	reader Reader
	inv    Invalidator
	sink   events.Sink
}

// NewService wires the service. inv and sink may be nil.
func NewService(store Store, reader Reader, inv Invalidator, sink events.Sink) *Service {
	if sink == nil {
		sink = events.NoopPublisher{}
	}
	return &Service{store: store, reader: reader, inv: inv, sink: sink}
}

// Get returns one user or an error wrapping models.ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.reader.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// List returns one page of users and the total count.
func (s *Service) List(ctx context.Context, page models.Page) ([]models.User, int, error) {
	users, total, err := s.store.ListUsers(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Sync creates or refreshes the caller's profile. The role is copied from
// the token claim and carries no authority here. created reports whether a
// new row was inserted. An email already held by another user wraps
// models.ErrDuplicateKey.
func (s *Service) Sync(ctx context.Context, id uuid.UUID, role string, req *models.UpsertProfileRequest) (*models.User, bool, error) {
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	u, created, err := s.store.UpsertUser(ctx, &models.User{
		ID:    id,
		Name:  req.Name,
		Email: req.Email,
		Role:  role,
	})
	if err != nil {
		return nil, false, fmt.Errorf("sync user %s: %w", id, err)
	}
	s.invalidate(id)

	if created {
		logging.Ctx(ctx).Info().Str("user_id", id.String()).Msg("User profile created")
	}
	return u, created, nil
}

// Update applies a partial profile edit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	u, err := s.store.UpdateUserProfile(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	s.invalidate(id)
	return u, nil
}

// Subscription reports the user's subscription flag.
func (s *Service) Subscription(ctx context.Context, id uuid.UUID) (*models.SubscriptionStatus, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SubscriptionStatus{UserID: u.ID, Subscription: u.Subscription}, nil
}

// SetSubscription sets the caller's subscription flag.
func (s *Service) SetSubscription(ctx context.Context, id uuid.UUID, subscribed bool) (*models.User, error) {
	u, err := s.store.SetSubscription(ctx, id, subscribed)
	if err != nil {
		return nil, fmt.Errorf("set subscription for %s: %w", id, err)
	}
	s.invalidate(id)

	logging.Ctx(ctx).Info().
		Str("user_id", id.String()).
		Bool("subscription", subscribed).
		Msg("Subscription changed")
	return u, nil
}

// Delete removes the user and their analytics records, then publishes
// user.deleted. Uploaded videos are kept.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	s.invalidate(id)
	s.sink.UserDeleted(ctx, id, removed)

	logging.Ctx(ctx).Info().
		Str("user_id", id.String()).
		Int64("removed_records", removed).
		Msg("User deleted")
	return nil
}

func (s *Service) invalidate(id uuid.UUID) {
	if s.inv != nil {
		s.inv.InvalidateUser(id)
	}
}
