// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package models

import "errors"

var (
	// ErrNotFound is returned when a row addressed by key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")
)

var (
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrSubscriptionRequired is returned when a paid video is requested by
	// a caller without an active subscription.
	ErrSubscriptionRequired = errors.New("subscription required")
)
