// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package analytics

import (
	"context"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/models"
)

// RecordStore persists analytics records. Implementations must enforce
// uniqueness of (video, user) in the store itself and increment atomically.
//
// Errors: models.ErrNotFound from FindRecord and IncrementViews when the pair
// has no record; models.ErrDuplicateKey from CreateRecord when it already does.
type RecordStore interface {
	FindRecord(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error)
	CreateRecord(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error)
	IncrementViews(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error)
	ListByVideo(ctx context.Context, videoID uuid.UUID) ([]models.VideoViewer, error)
}

// UserDirectory resolves users; a missing user is models.ErrNotFound.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// VideoDirectory checks video existence; a missing video is models.ErrNotFound.
type VideoDirectory interface {
	VideoExists(ctx context.Context, id uuid.UUID) error
}

// ViewNotifier is told about every committed view. It must not block and
// cannot fail the call.
type ViewNotifier interface {
	ViewRecorded(ctx context.Context, rec models.AnalyticsRecord)
}
