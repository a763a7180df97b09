// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/config"
	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/metrics"
	"github.com/tomtom215/vidstream/internal/models"
)

// DefaultTTL applies when the configuration leaves the TTL unset.
const DefaultTTL = 30 * time.Second

// Store is a TTL key-value cache backed by BadgerDB.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens the badger store described by cfg. It returns (nil, nil) when
// the cache is disabled; a nil *Store is a valid pass-through.
func Open(cfg config.CacheConfig) (*Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	logging.Info().
		Bool("in_memory", cfg.InMemory).
		Str("dir", cfg.Dir).
		Dur("ttl", ttl).
		Msg("Directory cache opened")
	return &Store{db: db, ttl: ttl}, nil
}

// Close releases the badger handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// RunGC rewrites one value log file if at least half of it is stale. It
// reports whether a file was rewritten. In-memory stores have nothing to
// collect.
func (s *Store) RunGC() (bool, error) {
	err := s.db.RunValueLogGC(0.5)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
		return false, nil
	default:
		return false, fmt.Errorf("badger value log gc: %w", err)
	}
}

// get decodes the value under key into dst. It reports false on a miss.
func (s *Store) get(key string, dst interface{}) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dst)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(s.ttl))
	})
}

func (s *Store) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func userKey(id uuid.UUID) string  { return "user:" + id.String() }
func videoKey(id uuid.UUID) string { return "video:" + id.String() }

// Directory answers user and video lookups from the Store and reads through
// to the sources on a miss. Only successful lookups are cached.
type Directory struct {
	store  *Store
	users  UserSource
	videos VideoSource
}

// NewDirectory wraps the sources. store may be nil, in which case every
// lookup goes to the sources.
func NewDirectory(store *Store, users UserSource, videos VideoSource) *Directory {
	return &Directory{store: store, users: users, videos: videos}
}

// GetUser returns the user, or models.ErrNotFound.
func (d *Directory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if d.store == nil {
		return d.users.GetUser(ctx, id)
	}

	var u models.User
	if d.lookup(TypeUser, userKey(id), &u) {
		return &u, nil
	}
	user, err := d.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	d.fill(TypeUser, userKey(id), user)
	return user, nil
}

// GetVideo returns the video, or models.ErrNotFound.
func (d *Directory) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	if d.store == nil {
		return d.videos.GetVideo(ctx, id)
	}

	var v models.Video
	if d.lookup(TypeVideo, videoKey(id), &v) {
		return &v, nil
	}
	video, err := d.videos.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	d.fill(TypeVideo, videoKey(id), video)
	return video, nil
}

// VideoExists returns nil when the video exists and models.ErrNotFound when
// it does not.
func (d *Directory) VideoExists(ctx context.Context, id uuid.UUID) error {
	_, err := d.GetVideo(ctx, id)
	return err
}

// InvalidateUser drops the cached copy of a user.
func (d *Directory) InvalidateUser(id uuid.UUID) {
	d.invalidate(TypeUser, userKey(id))
}

// InvalidateVideo drops the cached copy of a video.
func (d *Directory) InvalidateVideo(id uuid.UUID) {
	d.invalidate(TypeVideo, videoKey(id))
}

func (d *Directory) lookup(cacheType, key string, dst interface{}) bool {
	hit, err := d.store.get(key, dst)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to database")
		hit = false
	}
	metrics.RecordCacheLookup(cacheType, hit)
	return hit
}

func (d *Directory) fill(cacheType, key string, v interface{}) {
	if err := d.store.set(key, v); err != nil {
		logging.Warn().Err(err).Str("cache_type", cacheType).Str("key", key).Msg("Cache fill failed")
	}
}

func (d *Directory) invalidate(cacheType, key string) {
	if d.store == nil {
		return
	}
	if err := d.store.delete(key); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache invalidation failed")
		return
	}
	metrics.RecordCacheInvalidation(cacheType)
}
