// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package models

import (
	"time"

	"github.com/google/uuid"
)

// Video access levels.
const (
	AccessFree = "free"
	AccessPaid = "paid"
)

// ValidAccess reports whether s is a known access level.
func ValidAccess(s string) bool {
	return s == AccessFree || s == AccessPaid
}

// Video is an uploaded asset and its catalog metadata.
type Video struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	HLSURL      string    `json:"hls_url"`
	StorageKey  string    `json:"storage_key"`
	Duration    int       `json:"duration"`
	Access      string    `json:"access"`
	ViewCount   int64     `json:"view_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateVideoRequest holds the metadata fields of a multipart upload.
type CreateVideoRequest struct {
	Title       string `form:"title" validate:"required,min=1,max=200"`
	Description string `form:"description" validate:"max=5000"`
	Duration    int    `form:"duration" validate:"gte=0,lte=86400"`
	Access      string `form:"access" validate:"required,video_access"`
}

// UpdateVideoRequest is the body of PUT /api/v1/videos/{id}.
// Nil fields are left unchanged.
type UpdateVideoRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Duration    *int    `json:"duration,omitempty" validate:"omitempty,gte=0,lte=86400"`
	Access      *string `json:"access,omitempty" validate:"omitempty,video_access"`
}

// Empty reports whether the request changes nothing.
func (r *UpdateVideoRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Duration == nil && r.Access == nil
}

// Playback is what a client needs to start streaming a video.
type Playback struct {
	VideoID uuid.UUID `json:"video_id"`
	URL     string    `json:"url"`
	HLSURL  string    `json:"hls_url"`
}

// ViewCount is returned by POST /api/v1/videos/{id}/view.
type ViewCount struct {
	VideoID   uuid.UUID `json:"video_id"`
	ViewCount int64     `json:"view_count"`
}
