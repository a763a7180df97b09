// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/models"
)

// SchemaVersion is the current payload schema version.
// Increment this when making breaking changes to any event payload.
const SchemaVersion = 1

// Topic suffixes. The full subject is "<prefix>.<suffix>".
const (
	TopicViewRecorded = "view.recorded"
	TopicVideoDeleted = "video.deleted"
	TopicUserDeleted  = "user.deleted"
)

// DefaultPrefix is used when the configured subject prefix is empty.
const DefaultPrefix = "vidstream"

// Envelope fields shared by every payload.
type Envelope struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ViewRecorded is emitted after a view has been committed.
type ViewRecorded struct {
	Envelope
	RecordID uuid.UUID `json:"record_id"`
	VideoID  uuid.UUID `json:"video_id"`
	UserID   uuid.UUID `json:"user_id"`
	Views    int64     `json:"views"`
}

// VideoDeleted is emitted after a video row and its analytics are gone.
type VideoDeleted struct {
	Envelope
	VideoID        uuid.UUID `json:"video_id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	StorageKey     string    `json:"storage_key"`
	RemovedRecords int64     `json:"removed_records"`
}

// UserDeleted is emitted after a user row and its analytics are gone.
type UserDeleted struct {
	Envelope
	UserID         uuid.UUID `json:"user_id"`
	RemovedRecords int64     `json:"removed_records"`
}

// Sink receives domain events. Implementations never block the caller for
// long and never report failure; delivery is best-effort.
type Sink interface {
	ViewRecorded(ctx context.Context, rec models.AnalyticsRecord)
	VideoDeleted(ctx context.Context, video models.Video, removedRecords int64)
	UserDeleted(ctx context.Context, userID uuid.UUID, removedRecords int64)
	// Status is "ok", "degraded" or "disabled", for health reporting.
	Status() string
}
