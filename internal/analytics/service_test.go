// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/vidstream/internal/models"
)

// memStore is an in-memory RecordStore. The hook fields let a test replace
// one operation; nil hooks use the map.
type memStore struct {
	mu      sync.Mutex
	records map[models.AnalyticsKey]*models.AnalyticsRecord
	calls   []string

	onIncrement func(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error)
	onCreate    func(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error)
	onList      func(ctx context.Context, videoID uuid.UUID) ([]models.VideoViewer, error)
}

func newMemStore() *memStore {
	return &memStore{records: make(map[models.AnalyticsKey]*models.AnalyticsRecord)}
}

func (m *memStore) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *memStore) FindRecord(_ context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error) {
	m.record("find")
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore) CreateRecord(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error) {
	m.record("create")
	if m.onCreate != nil {
		return m.onCreate(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key]; ok {
		return nil, models.ErrDuplicateKey
	}
	now := time.Now().UTC()
	rec := &models.AnalyticsRecord{
		ID: uuid.New(), VideoID: key.VideoID, UserID: key.UserID,
		Views: 1, CreatedAt: now, UpdatedAt: now,
	}
	m.records[key] = rec
	cp := *rec
	return &cp, nil
}

func (m *memStore) IncrementViews(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error) {
	m.record("increment")
	if m.onIncrement != nil {
		return m.onIncrement(ctx, key)
	}
	return m.incrementLocked(key)
}

func (m *memStore) incrementLocked(key models.AnalyticsKey) (*models.AnalyticsRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	rec.Views++
	rec.UpdatedAt = time.Now().UTC()
	cp := *rec
	return &cp, nil
}

func (m *memStore) ListByVideo(ctx context.Context, videoID uuid.UUID) ([]models.VideoViewer, error) {
	m.record("list")
	if m.onList != nil {
		return m.onList(ctx, videoID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.VideoViewer
	for k, rec := range m.records {
		if k.VideoID == videoID {
			out = append(out, models.VideoViewer{UserID: k.UserID, Views: rec.Views})
		}
	}
	return out, nil
}

func (m *memStore) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type fakeUsers map[uuid.UUID]bool

func (f fakeUsers) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if !f[id] {
		return nil, models.ErrNotFound
	}
	return &models.User{ID: id}, nil
}

type fakeVideos struct {
	known map[uuid.UUID]bool
	err   error
}

func (f fakeVideos) VideoExists(_ context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	if !f.known[id] {
		return models.ErrNotFound
	}
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []models.AnalyticsRecord
}

func (n *recordingNotifier) ViewRecorded(_ context.Context, rec models.AnalyticsRecord) {
	n.mu.Lock()
	n.seen = append(n.seen, rec)
	n.mu.Unlock()
}

type fixture struct {
	svc    *Service
	store  *memStore
	video  uuid.UUID
	user   uuid.UUID
	notify *recordingNotifier
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		store:  newMemStore(),
		video:  uuid.New(),
		user:   uuid.New(),
		notify: &recordingNotifier{},
	}
	opts = append([]Option{WithNotifier(f.notify)}, opts...)
	f.svc = NewService(
		f.store,
		fakeUsers{f.user: true},
		fakeVideos{known: map[uuid.UUID]bool{f.video: true}},
		opts...,
	)
	return f
}

func TestRecordView_FirstViewCreatesAtOne(t *testing.T) {
	f := newFixture()

	rec, err := f.svc.RecordView(context.Background(), f.video.String(), f.user.String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, rec.Views)
	assert.Equal(t, f.video, rec.VideoID)
	assert.Equal(t, f.user, rec.UserID)
	assert.Equal(t, []string{"increment", "create"}, f.store.callLog())
}

func TestRecordView_SubsequentViewsIncrement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.RecordView(ctx, f.video.String(), f.user.String())
	require.NoError(t, err)

	for want := int64(2); want <= 5; want++ {
		rec, err := f.svc.RecordView(ctx, f.video.String(), f.user.String())
		require.NoError(t, err)
		assert.Equal(t, want, rec.Views)
		assert.Equal(t, first.ID, rec.ID, "record identity must not change")
	}
	assert.Len(t, f.notify.seen, 5)
}

func TestRecordView_CreateRaceRetriesIncrementOnce(t *testing.T) {
	f := newFixture()
	key := models.AnalyticsKey{VideoID: f.video, UserID: f.user}

	var increments int
	f.store.onIncrement = func(_ context.Context, k models.AnalyticsKey) (*models.AnalyticsRecord, error) {
		increments++
		return f.store.incrementLocked(k)
	}
	// A concurrent caller wins the create between our increment and create.
	f.store.onCreate = func(_ context.Context, k models.AnalyticsKey) (*models.AnalyticsRecord, error) {
		f.store.mu.Lock()
		f.store.records[k] = &models.AnalyticsRecord{ID: uuid.New(), VideoID: k.VideoID, UserID: k.UserID, Views: 1}
		f.store.mu.Unlock()
		return nil, models.ErrDuplicateKey
	}

	rec, err := f.svc.RecordView(context.Background(), key.VideoID.String(), key.UserID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 2, rec.Views)
	assert.Equal(t, 2, increments)
	assert.Equal(t, []string{"increment", "create", "increment"}, f.store.callLog())
}

func TestRecordView_RetryFailureIsStorageError(t *testing.T) {
	f := newFixture()
	f.store.onCreate = func(context.Context, models.AnalyticsKey) (*models.AnalyticsRecord, error) {
		return nil, models.ErrDuplicateKey
	}
	var increments int
	f.store.onIncrement = func(context.Context, models.AnalyticsKey) (*models.AnalyticsRecord, error) {
		increments++
		if increments == 1 {
			return nil, models.ErrNotFound
		}
		return nil, errors.New("disk I/O error")
	}

	_, err := f.svc.RecordView(context.Background(), f.video.String(), f.user.String())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStorage), "got %v", err)
	assert.Equal(t, []string{"increment", "create", "increment"}, f.store.callLog(), "retry happens exactly once")
}

func TestRecordView_ParentDeletedDuringCall(t *testing.T) {
	video, user := uuid.New(), uuid.New()
	key := models.AnalyticsKey{VideoID: video, UserID: user}

	tests := []struct {
		name    string
		setup   func(store *memStore, videos map[uuid.UUID]bool)
		missing error
		wantLog []string
	}{
		{
			name: "video deleted before create",
			setup: func(store *memStore, videos map[uuid.UUID]bool) {
				store.onCreate = func(context.Context, models.AnalyticsKey) (*models.AnalyticsRecord, error) {
					delete(videos, video)
					return nil, models.ErrNotFound
				}
			},
			missing: ErrUnknownVideo,
			wantLog: []string{"increment", "create"},
		},
		{
			name: "user deleted before create",
			setup: func(store *memStore, _ map[uuid.UUID]bool) {
				store.onCreate = func(context.Context, models.AnalyticsKey) (*models.AnalyticsRecord, error) {
					return nil, models.ErrNotFound
				}
			},
			missing: ErrUnknownUser,
			wantLog: []string{"increment", "create"},
		},
		{
			name: "record cascaded away before the retry",
			setup: func(store *memStore, videos map[uuid.UUID]bool) {
				store.onCreate = func(context.Context, models.AnalyticsKey) (*models.AnalyticsRecord, error) {
					delete(videos, video)
					return nil, models.ErrDuplicateKey
				}
			},
			missing: ErrUnknownVideo,
			wantLog: []string{"increment", "create", "increment"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			videos := map[uuid.UUID]bool{video: true}
			tt.setup(store, videos)
			notify := &recordingNotifier{}
			svc := NewService(store, fakeUsers{user: true}, fakeVideos{known: videos}, WithNotifier(notify))

			rec, err := svc.RecordView(context.Background(), key.VideoID.String(), key.UserID.String())
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.True(t, IsKind(err, KindNotFound), "got %v", err)
			assert.ErrorIs(t, err, tt.missing)
			assert.Equal(t, tt.wantLog, store.callLog())
			assert.Empty(t, notify.seen)
			assert.Empty(t, store.records)
		})
	}
}

func TestRecordView_Validation(t *testing.T) {
	valid := uuid.NewString()
	tests := []struct {
		name    string
		videoID string
		userID  string
	}{
		{"empty video", "", valid},
		{"empty user", valid, ""},
		{"blank video", "   ", valid},
		{"malformed video", "not-a-uuid", valid},
		{"malformed user", valid, "12345"},
		{"nil uuid", uuid.Nil.String(), valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.RecordView(context.Background(), tt.videoID, tt.userID)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindValidation), "got %v", err)
			assert.Empty(t, f.store.callLog(), "no store call before validation passes")
		})
	}
}

func TestRecordView_MissingReferences(t *testing.T) {
	t.Run("video", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.RecordView(context.Background(), uuid.NewString(), f.user.String())
		require.Error(t, err)
		assert.True(t, IsKind(err, KindNotFound))
		assert.True(t, errors.Is(err, models.ErrNotFound))
		assert.True(t, errors.Is(err, ErrUnknownVideo))
		assert.Empty(t, f.store.callLog())
	})

	t.Run("user", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.RecordView(context.Background(), f.video.String(), uuid.NewString())
		require.Error(t, err)
		assert.True(t, IsKind(err, KindNotFound))
		assert.True(t, errors.Is(err, ErrUnknownUser))
		assert.False(t, errors.Is(err, ErrUnknownVideo))
		assert.Empty(t, f.store.callLog())
	})

	t.Run("directory failure", func(t *testing.T) {
		store := newMemStore()
		user := uuid.New()
		svc := NewService(store, fakeUsers{user: true}, fakeVideos{err: errors.New("connection reset")})
		_, err := svc.RecordView(context.Background(), uuid.NewString(), user.String())
		require.Error(t, err)
		assert.True(t, IsKind(err, KindStorage))
	})
}

func TestRecordView_StoreTimeout(t *testing.T) {
	tests := []struct {
		name  string
		block func(ctx context.Context) error
	}{
		{"driver returns ctx error", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
		{"driver returns its own error", func(ctx context.Context) error {
			<-ctx.Done()
			return errors.New("driver: statement interrupted")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(WithStoreTimeout(20 * time.Millisecond))
			f.store.onIncrement = func(ctx context.Context, _ models.AnalyticsKey) (*models.AnalyticsRecord, error) {
				return nil, tt.block(ctx)
			}

			start := time.Now()
			_, err := f.svc.RecordView(context.Background(), f.video.String(), f.user.String())
			require.Error(t, err)
			assert.Less(t, time.Since(start), 2*time.Second)

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, KindStorage, e.Kind)
			assert.True(t, e.Timeout())
			assert.Equal(t, "record_view", e.Op)
			assert.Equal(t, f.video.String(), e.VideoID)
			assert.Equal(t, f.user.String(), e.UserID)
			assert.Empty(t, f.notify.seen)
		})
	}
}

func TestRecordView_ConcurrentSamePair(t *testing.T) {
	f := newFixture()
	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordView(context.Background(), f.video.String(), f.user.String())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := f.store.FindRecord(context.Background(), models.AnalyticsKey{VideoID: f.video, UserID: f.user})
	require.NoError(t, err)
	assert.EqualValues(t, workers, rec.Views)
	assert.Len(t, f.store.records, 1)
}

func TestGetVideoAnalytics(t *testing.T) {
	t.Run("empty is non-nil", func(t *testing.T) {
		f := newFixture()
		viewers, err := f.svc.GetVideoAnalytics(context.Background(), f.video.String())
		require.NoError(t, err)
		assert.NotNil(t, viewers)
		assert.Empty(t, viewers)
	})

	t.Run("one entry per viewer", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			_, err := f.svc.RecordView(ctx, f.video.String(), f.user.String())
			require.NoError(t, err)
		}
		viewers, err := f.svc.GetVideoAnalytics(ctx, f.video.String())
		require.NoError(t, err)
		require.Len(t, viewers, 1)
		assert.EqualValues(t, 3, viewers[0].Views)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.GetVideoAnalytics(context.Background(), "nope")
		assert.True(t, IsKind(err, KindValidation))
		assert.Empty(t, f.store.callLog())
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture()
		f.store.onList = func(context.Context, uuid.UUID) ([]models.VideoViewer, error) {
			return nil, errors.New("io error")
		}
		_, err := f.svc.GetVideoAnalytics(context.Background(), f.video.String())
		var e *Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, KindStorage, e.Kind)
		assert.False(t, e.Timeout())
		assert.Equal(t, "get_video_analytics", e.Op)
	})
}

func TestErrorFormatting(t *testing.T) {
	e := &Error{Kind: KindNotFound, Op: "record_view", VideoID: "v", UserID: "u", Err: models.ErrNotFound}
	assert.Equal(t, "analytics: record_view video=v user=u: not_found: not found", e.Error())
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, "unknown", Kind(42).String())
}
