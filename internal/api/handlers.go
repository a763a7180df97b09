// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/config"
	"github.com/tomtom215/vidstream/internal/media"
	"github.com/tomtom215/vidstream/internal/models"
)

// AnalyticsService records and lists per-user views.
type AnalyticsService interface {
	RecordView(ctx context.Context, videoID, userID string) (*models.AnalyticsRecord, error)
	GetVideoAnalytics(ctx context.Context, videoID string) ([]models.VideoViewer, error)
}

// UserService manages profiles.
type UserService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, page models.Page) ([]models.User, int, error)
	Sync(ctx context.Context, id uuid.UUID, role string, req *models.UpsertProfileRequest) (*models.User, bool, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error)
	Subscription(ctx context.Context, id uuid.UUID) (*models.SubscriptionStatus, error)
	SetSubscription(ctx context.Context, id uuid.UUID, subscribed bool) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// VideoService manages the catalog.
type VideoService interface {
	Upload(ctx context.Context, owner uuid.UUID, req *models.CreateVideoRequest, file media.UploadInput) (*models.Video, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Video, error)
	List(ctx context.Context, page models.Page) ([]models.Video, int, error)
	Update(ctx context.Context, caller, id uuid.UUID, req *models.UpdateVideoRequest) (*models.Video, error)
	Delete(ctx context.Context, caller, id uuid.UUID) error
	CountView(ctx context.Context, id uuid.UUID) (*models.ViewCount, error)
	Playback(ctx context.Context, caller, id uuid.UUID) (*models.Playback, error)
}

// Database is what the health endpoints need from the store.
type Database interface {
	Ping(ctx context.Context) error
	Driver() string
}

// StatusReporter reports "ok", "degraded" or "disabled".
type StatusReporter interface {
	Status() string
}

// MediaStatus exposes the media host's breaker.
type MediaStatus interface {
	Backend() string
	State() string
}

// Dependencies groups everything NewHandler needs. Events, Media and
// CacheEnabled only feed the health report.
type Dependencies struct {
	Config       *config.Config
	Version      string
	Analytics    AnalyticsService
	Users        UserService
	Videos       VideoService
	DB           Database
	Events       StatusReporter
	Media        MediaStatus
	CacheEnabled bool
}

// Handler contains dependencies for API handlers.
type Handler struct {
	cfg          *config.Config
	version      string
	analytics    AnalyticsService
	users        UserService
	videos       VideoService
	db           Database
	events       StatusReporter
	media        MediaStatus
	cacheEnabled bool
	startTime    time.Time
}

// NewHandler builds the handler set.
func NewHandler(d Dependencies) *Handler {
	version := d.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		cfg:          d.Config,
		version:      version,
		analytics:    d.Analytics,
		users:        d.Users,
		videos:       d.Videos,
		db:           d.DB,
		events:       d.Events,
		media:        d.Media,
		cacheEnabled: d.CacheEnabled,
		startTime:    time.Now(),
	}
}
