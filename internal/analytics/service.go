// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/metrics"
	"github.com/tomtom215/vidstream/internal/models"
)

// DefaultStoreTimeout bounds a single store call when no option overrides it.
const DefaultStoreTimeout = 5 * time.Second

// Paths a successful RecordView can take, used as metric labels.
const (
	pathIncrement       = "increment"
	pathCreate          = "create"
	pathCreateRaceRetry = "create_race_retry"
)

// Service records views and reads per-video analytics.
//
// Uniqueness of a (video, user) record is the store's job. The service only
// sequences increment, create and the single retry that collapses a
// concurrent first-view race into one create plus one increment.
type Service struct {
	store    RecordStore
	users    UserDirectory
	videos   VideoDirectory
	notifier ViewNotifier
	timeout  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier registers a notifier that is told about every committed view.
func WithNotifier(n ViewNotifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithStoreTimeout sets the per-call store timeout. Non-positive values keep
// the default.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a Service.
func NewService(store RecordStore, users UserDirectory, videos VideoDirectory, opts ...Option) *Service {
	s := &Service{
		store:   store,
		users:   users,
		videos:  videos,
		timeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordView counts one view of videoID by userID and returns the record
// after the increment.
func (s *Service) RecordView(ctx context.Context, videoID, userID string) (*models.AnalyticsRecord, error) {
	const op = "record_view"

	vid, err := parseID("video", videoID)
	if err != nil {
		return nil, s.fail(ctx, &Error{Kind: KindValidation, Op: op, VideoID: videoID, UserID: userID, Err: err})
	}
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, s.fail(ctx, &Error{Kind: KindValidation, Op: op, VideoID: videoID, UserID: userID, Err: err})
	}
	key := models.AnalyticsKey{VideoID: vid, UserID: uid}

	if err := s.call(ctx, "video_exists", func(ctx context.Context) error {
		return s.videos.VideoExists(ctx, vid)
	}); err != nil {
		return nil, s.fail(ctx, s.wrap(op, key, ErrUnknownVideo, err))
	}
	if err := s.call(ctx, "get_user", func(ctx context.Context) error {
		_, err := s.users.GetUser(ctx, uid)
		return err
	}); err != nil {
		return nil, s.fail(ctx, s.wrap(op, key, ErrUnknownUser, err))
	}

	rec, err := s.increment(ctx, key)
	path := pathIncrement
	if errors.Is(err, models.ErrNotFound) {
		rec, err = s.create(ctx, key)
		path = pathCreate
		if errors.Is(err, models.ErrDuplicateKey) {
			// Another caller created the pair between our increment and create.
			rec, err = s.increment(ctx, key)
			path = pathCreateRaceRetry
		}
	}
	if errors.Is(err, models.ErrNotFound) {
		// Only reachable after create: the video or user was deleted once
		// the existence checks had passed.
		return nil, s.fail(ctx, s.wrap(op, key, s.missingParent(ctx, key), err))
	}
	if err != nil {
		return nil, s.fail(ctx, s.storageError(op, key, err))
	}

	metrics.RecordViewRecorded(path)
	logging.Ctx(ctx).Debug().
		Str("video_id", videoID).
		Str("user_id", userID).
		Int64("views", rec.Views).
		Str("path", path).
		Msg("View recorded")

	if s.notifier != nil {
		s.notifier.ViewRecorded(ctx, *rec)
	}
	return rec, nil
}

// GetVideoAnalytics returns one entry per viewer of videoID. A video nobody
// has watched yields an empty, non-nil slice.
func (s *Service) GetVideoAnalytics(ctx context.Context, videoID string) ([]models.VideoViewer, error) {
	const op = "get_video_analytics"

	vid, err := parseID("video", videoID)
	if err != nil {
		return nil, s.fail(ctx, &Error{Kind: KindValidation, Op: op, VideoID: videoID, Err: err})
	}

	var viewers []models.VideoViewer
	err = s.call(ctx, "list_by_video", func(ctx context.Context) error {
		var err error
		viewers, err = s.store.ListByVideo(ctx, vid)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, s.storageError(op, models.AnalyticsKey{VideoID: vid}, err))
	}
	if viewers == nil {
		viewers = []models.VideoViewer{}
	}
	return viewers, nil
}

func (s *Service) increment(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error) {
	var rec *models.AnalyticsRecord
	err := s.call(ctx, "increment_views", func(ctx context.Context) error {
		var err error
		rec, err = s.store.IncrementViews(ctx, key)
		return err
	})
	return rec, err
}

func (s *Service) create(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error) {
	var rec *models.AnalyticsRecord
	err := s.call(ctx, "create_record", func(ctx context.Context) error {
		var err error
		rec, err = s.store.CreateRecord(ctx, key)
		return err
	})
	return rec, err
}

// missingParent names the reference that vanished under a create. The
// video is blamed unless it still exists.
func (s *Service) missingParent(ctx context.Context, key models.AnalyticsKey) error {
	err := s.call(ctx, "video_exists", func(ctx context.Context) error {
		return s.videos.VideoExists(ctx, key.VideoID)
	})
	if err == nil {
		return ErrUnknownUser
	}
	return ErrUnknownVideo
}

// call runs fn under the per-call timeout and records its duration. When the
// deadline fired, the returned error always matches context.DeadlineExceeded
// even if the driver reported something else.
func (s *Service) call(ctx context.Context, name string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	if err != nil {
		if ctxErr := callCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = errors.Join(err, ctxErr)
		}
	}
	metrics.RecordDBQuery(name, outcome(err), time.Since(start))
	return err
}

// wrap classifies a directory error: NotFound becomes KindNotFound carrying
// missing, everything else is a storage failure.
func (s *Service) wrap(op string, key models.AnalyticsKey, missing, err error) *Error {
	if errors.Is(err, models.ErrNotFound) {
		return &Error{Kind: KindNotFound, Op: op, VideoID: key.VideoID.String(), UserID: key.UserID.String(), Err: fmt.Errorf("%w: %w", missing, err)}
	}
	return s.storageError(op, key, err)
}

func (s *Service) storageError(op string, key models.AnalyticsKey, err error) *Error {
	e := &Error{Kind: KindStorage, Op: op, VideoID: key.VideoID.String(), Err: err}
	if key.UserID != uuid.Nil {
		e.UserID = key.UserID.String()
	}
	return e
}

func (s *Service) fail(ctx context.Context, e *Error) error {
	kind := e.Kind.String()
	if e.Timeout() {
		kind = metrics.OutcomeTimeout
	}
	metrics.RecordViewError(kind)

	ev := logging.Ctx(ctx).Debug()
	if e.Kind == KindStorage {
		ev = logging.Ctx(ctx).Error()
	}
	ev.Err(e.Err).
		Str("op", e.Op).
		Str("kind", e.Kind.String()).
		Str("video_id", e.VideoID).
		Str("user_id", e.UserID).
		Msg("Analytics call failed")
	return e
}

func parseID(what, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s id is required", what)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s id %q is not a valid UUID", what, raw)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s id must not be the nil UUID", what)
	}
	return id, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, models.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, models.ErrDuplicateKey):
		return metrics.OutcomeDuplicate
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}
