// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsKey addresses exactly one analytics record.
type AnalyticsKey struct {
	VideoID uuid.UUID
	UserID  uuid.UUID
}

// String renders the key as "video:user", used for lock striping and logs.
func (k AnalyticsKey) String() string {
	return k.VideoID.String() + ":" + k.UserID.String()
}

// AnalyticsRecord counts how many times one user viewed one video.
// Only Views changes after creation.
type AnalyticsRecord struct {
	ID        uuid.UUID `json:"id"`
	VideoID   uuid.UUID `json:"video_id"`
	UserID    uuid.UUID `json:"user_id"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the record's identity key.
func (r *AnalyticsRecord) Key() AnalyticsKey {
	return AnalyticsKey{VideoID: r.VideoID, UserID: r.UserID}
}

// VideoViewer is one row of a video's analytics listing.
type VideoViewer struct {
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	Views     int64     `json:"views"`
}
