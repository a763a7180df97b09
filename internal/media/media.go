// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// Package media stores uploaded video files on a media host and derives the
// public URLs clients play them from.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/breaker"
	"github.com/tomtom215/vidstream/internal/config"
)

// ErrEmptyUpload is returned when the upload body has no bytes.
var ErrEmptyUpload = errors.New("media: empty upload")

// UploadInput is one file to store.
type UploadInput struct {
	Filename    string
	ContentType string
	// Size is the declared length, or -1 when unknown.
	Size int64
	Body io.Reader
}

// Asset is a stored file. Key is what Delete takes; the URLs are public.
type Asset struct {
	Key    string
	URL    string
	HLSURL string
}

// Host stores and removes video files.
type Host interface {
	Upload(ctx context.Context, in UploadInput) (Asset, error)
	Delete(ctx context.Context, key string) error
}

// New builds the configured backend wrapped in a circuit breaker.
func New(ctx context.Context, cfg config.MediaConfig) (*BreakerHost, error) {
	var (
		host    Host
		backend string
		err     error
	)
	switch cfg.Backend {
	case config.MediaBackendS3:
		host, err = NewS3Host(ctx, cfg.S3, cfg.PublicBaseURL)
		backend = config.MediaBackendS3
	case config.MediaBackendLocal, "":
		host, err = NewLocalHost(cfg.LocalDir, cfg.PublicBaseURL)
		backend = config.MediaBackendLocal
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return NewBreakerHost(host, backend, breaker.New(breaker.Settings{
		Name:                "media-" + backend,
		Timeout:             cfg.BreakerTimeout,
		ConsecutiveFailures: cfg.BreakerFailures,
	})), nil
}

// newKey returns prefix + a fresh UUID + the original extension, lower-cased.
func newKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return prefix + uuid.NewString() + ext
}

// hlsKey names the HLS playlist derived from key: the extension is replaced
// by .m3u8.
func hlsKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + ".m3u8"
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
