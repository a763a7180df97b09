// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/models"
)

// NoopPublisher drops every event. It is used when NATS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) ViewRecorded(context.Context, models.AnalyticsRecord) {}
func (NoopPublisher) VideoDeleted(context.Context, models.Video, int64) {}
func (NoopPublisher) UserDeleted(context.Context, uuid.UUID, int64) {}
func (NoopPublisher) Status() string { return "disabled" }
