// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const localKeyPrefix = "videos/"

// LocalHost writes files under a directory. The API serves that directory
// at baseURL.
type LocalHost struct {
	dir     string
	baseURL string
}

// NewLocalHost creates dir if needed.
func NewLocalHost(dir, baseURL string) (*LocalHost, error) {
	if dir == "" {
		return nil, fmt.Errorf("local media dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, localKeyPrefix), 0o750); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalHost{dir: dir, baseURL: baseURL}, nil
}

// Dir returns the root directory.
func (h *LocalHost) Dir() string {
	return h.dir
}

// Upload streams the body to a temp file and renames it into place.
func (h *LocalHost) Upload(ctx context.Context, in UploadInput) (Asset, error) {
	key := newKey(localKeyPrefix, in.Filename)
	dst, err := h.path(key)
	if err != nil {
		return Asset{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Asset{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	n, err := io.Copy(tmp, readerWithContext(ctx, in.Body))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Asset{}, fmt.Errorf("write %s: %w", key, err)
	}
	if n == 0 {
		return Asset{}, ErrEmptyUpload
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return Asset{}, fmt.Errorf("commit %s: %w", key, err)
	}

	return Asset{
		Key:    key,
		URL:    joinURL(h.baseURL, key),
		HLSURL: joinURL(h.baseURL, hlsKey(key)),
	}, nil
}

// Delete removes the file. A missing file is not an error.
func (h *LocalHost) Delete(_ context.Context, key string) error {
	p, err := h.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// path resolves key inside dir and rejects anything that escapes it.
func (h *LocalHost) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || filepath.IsAbs(key) {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(h.dir, filepath.FromSlash(key)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
