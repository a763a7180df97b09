// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package media

import (
	"context"
	"time"

	"github.com/tomtom215/vidstream/internal/breaker"
	"github.com/tomtom215/vidstream/internal/metrics"
)

// BreakerHost guards a Host with a circuit breaker and records per-call
// metrics. When the circuit is open calls fail fast with an error matching
// breaker.IsOpen.
type BreakerHost struct {
	host    Host
	backend string
	cb      *breaker.Breaker
}

// NewBreakerHost wraps host. backend labels the metrics.
func NewBreakerHost(host Host, backend string, cb *breaker.Breaker) *BreakerHost {
	return &BreakerHost{host: host, backend: backend, cb: cb}
}

// Upload implements Host.
func (b *BreakerHost) Upload(ctx context.Context, in UploadInput) (Asset, error) {
	var asset Asset
	start := time.Now()
	err := b.cb.Do(func() error {
		var err error
		asset, err = b.host.Upload(ctx, in)
		return err
	})
	metrics.RecordMediaOperation(b.backend, "upload", time.Since(start), err)
	if err != nil {
		return Asset{}, err
	}
	if in.Size > 0 {
		metrics.MediaUploadBytes.WithLabelValues(b.backend).Add(float64(in.Size))
	}
	return asset, nil
}

// Delete implements Host.
func (b *BreakerHost) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := b.cb.Do(func() error {
		return b.host.Delete(ctx, key)
	})
	metrics.RecordMediaOperation(b.backend, "delete", time.Since(start), err)
	return err
}

// Backend returns "local" or "s3".
func (b *BreakerHost) Backend() string {
	return b.backend
}

// State returns the breaker state for health reporting.
func (b *BreakerHost) State() string {
	return b.cb.State()
}

// Unwrap returns the wrapped host.
func (b *BreakerHost) Unwrap() Host {
	return b.host
}
