// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package services

import (
	"context"
	"time"

	"github.com/tomtom215/vidstream/internal/logging"
)

// GarbageCollector is satisfied by *cache.Store.
type GarbageCollector interface {
	RunGC() (bool, error)
}

// CacheGCService reclaims space in the on-disk directory cache. Cached
// entries expire constantly, so the value log grows without it.
type CacheGCService struct {
	gc       GarbageCollector
	interval time.Duration
	name     string
}

// NewCacheGCService runs gc every interval (5m when non-positive).
func NewCacheGCService(gc GarbageCollector, interval time.Duration) *CacheGCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheGCService{gc: gc, interval: interval, name: "cache-gc"}
}

// Serve implements suture.Service. GC errors are logged and retried on the
// next tick.
func (s *CacheGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect()
		}
	}
}

// collect keeps rewriting while badger reports progress.
func (s *CacheGCService) collect() {
	for rounds := 0; rounds < 10; rounds++ {
		rewrote, err := s.gc.RunGC()
		if err != nil {
			logging.Warn().Err(err).Msg("Cache value log GC failed")
			return
		}
		if !rewrote {
			return
		}
	}
}

// String names the service in supervisor logs.
func (s *CacheGCService) String() string {
	return s.name
}
