// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/auth"
	"github.com/tomtom215/vidstream/internal/config"
	"github.com/tomtom215/vidstream/internal/media"
	"github.com/tomtom215/vidstream/internal/models"
)

type fakeAnalytics struct {
	mu        sync.Mutex
	err       error
	viewers   []models.VideoViewer
	gotVideo  string
	gotUser   string
	callCount int
}

func (f *fakeAnalytics) RecordView(_ context.Context, videoID, userID string) (*models.AnalyticsRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount++
	f.gotVideo, f.gotUser = videoID, userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.AnalyticsRecord{
		ID:      uuid.New(),
		VideoID: uuid.MustParse(videoID),
		UserID:  uuid.MustParse(userID),
		Views:   int64(f.callCount),
	}, nil
}

func (f *fakeAnalytics) GetVideoAnalytics(_ context.Context, videoID string) ([]models.VideoViewer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotVideo = videoID
	if f.err != nil {
		return nil, f.err
	}
	return f.viewers, nil
}

type fakeUsers struct {
	mu      sync.Mutex
	err     error
	users   map[uuid.UUID]*models.User
	gotRole string
	deleted []uuid.UUID
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) List(_ context.Context, page models.Page) ([]models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	total := len(out)
	if page.Offset >= total {
		return []models.User{}, total, nil
	}
	out = out[page.Offset:]
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, total, nil
}

func (f *fakeUsers) Sync(_ context.Context, id uuid.UUID, role string, req *models.UpsertProfileRequest) (*models.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotRole = role
	if f.err != nil {
		return nil, false, f.err
	}
	u, existed := f.users[id]
	if !existed {
		u = &models.User{ID: id, Role: role, Active: true}
		f.users[id] = u
	}
	u.Name, u.Email = req.Name, req.Email
	return u, !existed, nil
}

func (f *fakeUsers) Update(_ context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	return u, nil
}

func (f *fakeUsers) Subscription(_ context.Context, id uuid.UUID) (*models.SubscriptionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.SubscriptionStatus{UserID: id, Subscription: u.Subscription}, nil
}

func (f *fakeUsers) SetSubscription(_ context.Context, id uuid.UUID, subscribed bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u.Subscription = subscribed
	return u, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type uploadCall struct {
	owner uuid.UUID
	req   models.CreateVideoRequest
	name  string
	body  string
}

type fakeVideos struct {
	mu        sync.Mutex
	err       error
	videos    map[uuid.UUID]*models.Video
	uploads   []uploadCall
	playedBy  uuid.UUID
	lastPage  models.Page
	deletedBy uuid.UUID
}

func newFakeVideos() *fakeVideos {
	return &fakeVideos{videos: make(map[uuid.UUID]*models.Video)}
}

func (f *fakeVideos) Upload(_ context.Context, owner uuid.UUID, req *models.CreateVideoRequest, file media.UploadInput) (*models.Video, error) {
	body, err := io.ReadAll(file.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.uploads = append(f.uploads, uploadCall{owner: owner, req: *req, name: file.Filename, body: string(body)})
	v := &models.Video{ID: uuid.New(), OwnerID: owner, Title: req.Title, Access: req.Access, Duration: req.Duration}
	f.videos[v.ID] = v
	return v, nil
}

func (f *fakeVideos) Get(_ context.Context, id uuid.UUID) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.videos[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return v, nil
}

func (f *fakeVideos) List(_ context.Context, page models.Page) ([]models.Video, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPage = page
	if f.err != nil {
		return nil, 0, f.err
	}
	out := make([]models.Video, 0, len(f.videos))
	for _, v := range f.videos {
		out = append(out, *v)
	}
	return out, len(out), nil
}

func (f *fakeVideos) Update(_ context.Context, caller, id uuid.UUID, req *models.UpdateVideoRequest) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.videos[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if v.OwnerID != caller {
		return nil, models.ErrForbidden
	}
	if req.Title != nil {
		v.Title = *req.Title
	}
	return v, nil
}

func (f *fakeVideos) Delete(_ context.Context, caller, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	v, ok := f.videos[id]
	if !ok {
		return models.ErrNotFound
	}
	if v.OwnerID != caller {
		return models.ErrForbidden
	}
	delete(f.videos, id)
	f.deletedBy = caller
	return nil
}

func (f *fakeVideos) CountView(_ context.Context, id uuid.UUID) (*models.ViewCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	v.ViewCount++
	return &models.ViewCount{VideoID: id, ViewCount: v.ViewCount}, nil
}

func (f *fakeVideos) Playback(_ context.Context, caller, id uuid.UUID) (*models.Playback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playedBy = caller
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.videos[id]; !ok {
		return nil, models.ErrNotFound
	}
	return &models.Playback{VideoID: id, URL: "http://cdn.test/" + id.String()}, nil
}

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(context.Context) error { return f.err }
func (f fakeDB) Driver() string             { return "duckdb" }

type fixedStatus string

func (s fixedStatus) Status() string { return string(s) }

type fakeMedia struct {
	state string
}

func (f fakeMedia) Backend() string { return "local" }
func (f fakeMedia) State() string   { return f.state }

// testEnv is a router over fake services in AuthModeNone.
type testEnv struct {
	analytics *fakeAnalytics
	users     *fakeUsers
	videos    *fakeVideos
	deps      Dependencies
	server    http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		API:   config.APIConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Media: config.MediaConfig{MaxUploadBytes: 1 << 20},
	}
}

func newTestEnv(t *testing.T, opts ...func(*testEnv)) *testEnv {
	t.Helper()
	env := &testEnv{
		analytics: &fakeAnalytics{},
		users:     newFakeUsers(),
		videos:    newFakeVideos(),
	}
	env.deps = Dependencies{
		Config:       testConfig(),
		Version:      "test",
		Analytics:    env.analytics,
		Users:        env.users,
		Videos:       env.videos,
		DB:           fakeDB{},
		Events:       fixedStatus("ok"),
		Media:        fakeMedia{state: "closed"},
		CacheEnabled: true,
	}
	for _, opt := range opts {
		opt(env)
	}
	router := NewRouter(NewHandler(env.deps), auth.NewMiddleware(nil, auth.AuthModeNone), nil)
	env.server = router.SetupChi()
	return env
}

// do sends a request, acting as user when it is not uuid.Nil.
func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, user uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != uuid.Nil {
		req.Header.Set(auth.UserIDHeader, user.String())
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}
