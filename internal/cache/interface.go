// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/models"
)

// UserSource loads users from the system of record.
type UserSource interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// VideoSource loads videos from the system of record.
type VideoSource interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
}

// Invalidator drops cached rows after a write.
type Invalidator interface {
	InvalidateUser(id uuid.UUID)
	InvalidateVideo(id uuid.UUID)
}

// Cache type labels for metrics.
const (
	TypeUser  = "user"
	TypeVideo = "video"
)
