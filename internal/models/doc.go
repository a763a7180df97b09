// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

/*
Package models defines the data structures shared by the store, the services
and the HTTP layer.

Model categories:

 1. Domain records: AnalyticsRecord, User, Video
 2. Projections: VideoViewer (analytics joined with user identity), Playback
 3. Request bodies: UpsertProfileRequest, UpdateProfileRequest,
    SubscriptionRequest, UpdateVideoRequest (validated with validator/v10 tags)
 4. API envelope: APIResponse, Metadata, APIError, PaginationInfo

Sentinel errors (ErrNotFound, ErrDuplicateKey) are returned by the store
adapters and matched with errors.Is by the services above them.
*/
package models
