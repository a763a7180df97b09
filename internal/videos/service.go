// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package videos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/events"
	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/media"
	"github.com/tomtom215/vidstream/internal/metrics"
	"github.com/tomtom215/vidstream/internal/models"
)

// compensateTimeout bounds the media cleanup after a failed insert. The
// cleanup outlives the request context.
const compensateTimeout = 30 * time.Second

// Store is the video half of the relational store.
type Store interface {
	CreateVideo(ctx context.Context, v *models.Video) (*models.Video, error)
	ListVideos(ctx context.Context, page models.Page) ([]models.Video, int, error)
	UpdateVideo(ctx context.Context, id uuid.UUID, req *models.UpdateVideoRequest) (*models.Video, error)
	IncrementVideoViewCount(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteVideo(ctx context.Context, id uuid.UUID) (int64, error)
}

// Directory serves cached single-row lookups and drops stale copies.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	InvalidateVideo(id uuid.UUID)
}

// Service implements the video catalog on top of a media host.
type Service struct {
	store Store
	dir   Directory
	host  media.Host
	sink  events.Sink
}

// NewService wires the catalog. sink may be nil.
func NewService(store Store, dir Directory, host media.Host, sink events.Sink) *Service {
	if sink == nil {
		sink = events.NoopPublisher{}
	}
	return &Service{store: store, dir: dir, host: host, sink: sink}
}

// Upload streams the file to the media host and then inserts the metadata
// row. When the insert fails the stored object is removed again.
func (s *Service) Upload(ctx context.Context, owner uuid.UUID, req *models.CreateVideoRequest, file media.UploadInput) (*models.Video, error) {
	asset, err := s.host.Upload(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}

	v, err := s.store.CreateVideo(ctx, &models.Video{
		OwnerID:     owner,
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Access:      req.Access,
		URL:         asset.URL,
		HLSURL:      asset.HLSURL,
		StorageKey:  asset.Key,
	})
	if err != nil {
		s.compensate(ctx, asset.Key)
		return nil, fmt.Errorf("create video: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("video_id", v.ID.String()).
		Str("owner_id", owner.String()).
		Str("storage_key", v.StorageKey).
		Msg("Video uploaded")
	return v, nil
}

func (s *Service) compensate(ctx context.Context, key string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	if err := s.host.Delete(cctx, key); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("storage_key", key).Msg("Orphaned media object after failed insert")
	}
}

// Get returns one video or an error wrapping models.ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, err := s.dir.GetVideo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	return v, nil
}

// List returns one page of videos, newest first.
func (s *Service) List(ctx context.Context, page models.Page) ([]models.Video, int, error) {
	videos, total, err := s.store.ListVideos(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}
	return videos, total, nil
}

// Update edits metadata. Only the owner may update.
func (s *Service) Update(ctx context.Context, caller, id uuid.UUID, req *models.UpdateVideoRequest) (*models.Video, error) {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return nil, err
	}
	v, err := s.store.UpdateVideo(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update video %s: %w", id, err)
	}
	s.dir.InvalidateVideo(id)
	return v, nil
}

// Delete removes the media object, then the row and its analytics records,
// then publishes video.deleted. Only the owner may delete. A failed media
// delete leaves the row in place so the caller can retry.
func (s *Service) Delete(ctx context.Context, caller, id uuid.UUID) error {
	v, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.host.Delete(ctx, v.StorageKey); err != nil {
		return fmt.Errorf("delete media for video %s: %w", id, err)
	}

	removed, err := s.store.DeleteVideo(ctx, id)
	if err != nil {
		return fmt.Errorf("delete video %s: %w", id, err)
	}
	s.dir.InvalidateVideo(id)
	s.sink.VideoDeleted(ctx, *v, removed)

	logging.Ctx(ctx).Info().
		Str("video_id", id.String()).
		Int64("removed_records", removed).
		Msg("Video deleted")
	return nil
}

// CountView adds one to the video's aggregate view counter.
func (s *Service) CountView(ctx context.Context, id uuid.UUID) (*models.ViewCount, error) {
	n, err := s.store.IncrementVideoViewCount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count view for video %s: %w", id, err)
	}
	s.dir.InvalidateVideo(id)
	return &models.ViewCount{VideoID: id, ViewCount: n}, nil
}

// Playback returns the stream URLs. A paid video needs a subscribed caller;
// caller is uuid.Nil for anonymous requests.
func (s *Service) Playback(ctx context.Context, caller, id uuid.UUID) (*models.Playback, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if v.Access == models.AccessPaid && !s.subscribed(ctx, caller) {
		metrics.PlaybackDenied.Inc()
		return nil, fmt.Errorf("play video %s: %w", id, models.ErrSubscriptionRequired)
	}
	return &models.Playback{VideoID: v.ID, URL: v.URL, HLSURL: v.HLSURL}, nil
}

func (s *Service) subscribed(ctx context.Context, caller uuid.UUID) bool {
	if caller == uuid.Nil {
		return false
	}
	u, err := s.dir.GetUser(ctx, caller)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", caller.String()).Msg("Subscription lookup failed")
		}
		return false
	}
	return u.Subscription
}

func (s *Service) owned(ctx context.Context, caller, id uuid.UUID) (*models.Video, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.OwnerID != caller {
		return nil, fmt.Errorf("video %s: %w", id, models.ErrForbidden)
	}
	return v, nil
}
