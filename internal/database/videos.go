// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/database/query"
	"github.com/tomtom215/vidstream/internal/models"
)

const videoColumns = `id, owner_id, title, description, url, hls_url, storage_key, duration, access, view_count, created_at, updated_at`

func scanVideo(row rowScanner) (*models.Video, error) {
	var v models.Video
	if err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.URL, &v.HLSURL,
		&v.StorageKey, &v.Duration, &v.Access, &v.ViewCount, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func videoLockKey(id uuid.UUID) string {
	return "video:" + id.String()
}

// CreateVideo inserts v. ID is generated when nil; view_count starts at 0.
func (db *DB) CreateVideo(ctx context.Context, v *models.Video) (*models.Video, error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	access := v.Access
	if access == "" {
		access = models.AccessFree
	}
	now := nowUTC()

	out, err := scanVideo(db.conn.QueryRowContext(ctx,
		`INSERT INTO videos (`+videoColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $10)
		 RETURNING `+videoColumns,
		v.ID, v.OwnerID, v.Title, v.Description, v.URL, v.HLSURL, v.StorageKey, v.Duration, access, now))
	if err != nil {
		return nil, classify(err, "create video")
	}
	return out, nil
}

// GetVideo returns the video or models.ErrNotFound.
func (db *DB) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, err := scanVideo(db.conn.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		return nil, classify(err, "get video")
	}
	return v, nil
}

// VideoExists returns nil if the video exists and models.ErrNotFound otherwise.
func (db *DB) VideoExists(ctx context.Context, id uuid.UUID) error {
	var one int
	if err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM videos WHERE id = $1`, id).Scan(&one); err != nil {
		return classify(err, "check video")
	}
	return nil
}

// ListVideos returns one page of videos, newest first, and the total count.
func (db *DB) ListVideos(ctx context.Context, page models.Page) ([]models.Video, int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&total); err != nil {
		return nil, 0, classify(err, "count videos")
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos ORDER BY created_at DESC, id ASC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, 0, classify(err, "list videos")
	}
	defer closeWithLog(rows, "rows")

	videos := make([]models.Video, 0, page.Limit)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, classify(err, "scan video")
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify(err, "iterate videos")
	}
	return videos, total, nil
}

// UpdateVideo applies a partial metadata edit. An empty request returns the
// current row unchanged.
func (db *DB) UpdateVideo(ctx context.Context, id uuid.UUID, req *models.UpdateVideoRequest) (*models.Video, error) {
	if req.Empty() {
		return db.GetVideo(ctx, id)
	}

	unlock, err := db.lockKey(ctx, videoLockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	sb := query.NewSetBuilder().
		SetIf(req.Title != nil, "title", req.Title).
		SetIf(req.Description != nil, "description", req.Description).
		SetIf(req.Duration != nil, "duration", req.Duration).
		SetIf(req.Access != nil, "access", req.Access).
		Set("updated_at", nowUTC())
	set, args := sb.Build()
	args = append(args, id)

	var v *models.Video
	err = db.withConflictRetry(ctx, "update_video", func() error {
		var err error
		v, err = scanVideo(db.conn.QueryRowContext(ctx,
			fmt.Sprintf(`UPDATE videos SET %s WHERE id = $%d RETURNING %s`, set, sb.Next(), videoColumns),
			args...))
		return err
	})
	if err != nil {
		return nil, classify(err, "update video")
	}
	return v, nil
}

// IncrementVideoViewCount adds one to view_count in a single UPDATE and
// returns the new value.
func (db *DB) IncrementVideoViewCount(ctx context.Context, id uuid.UUID) (int64, error) {
	unlock, err := db.lockKey(ctx, videoLockKey(id))
	if err != nil {
		return 0, err
	}
	defer unlock()

	var count int64
	err = db.withConflictRetry(ctx, "increment_video_views", func() error {
		return db.conn.QueryRowContext(ctx,
			`UPDATE videos SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`,
			id).Scan(&count)
	})
	if err != nil {
		return 0, classify(err, "increment video view count")
	}
	return count, nil
}

// DeleteVideo removes the video and, in the same transaction, every
// analytics record that references it. It returns the number of analytics
// records removed.
func (db *DB) DeleteVideo(ctx context.Context, id uuid.UUID) (removedRecords int64, err error) {
	unlock, err := db.lockKey(ctx, videoLockKey(id))
	if err != nil {
		return 0, err
	}
	defer unlock()

	err = db.withConflictRetry(ctx, "delete_video", func() error {
		var txErr error
		removedRecords, txErr = db.deleteWithChildren(ctx,
			`DELETE FROM analytics WHERE video_id = $1`,
			`DELETE FROM videos WHERE id = $1`,
			id)
		return txErr
	})
	if err != nil {
		return 0, classify(err, "delete video")
	}
	return removedRecords, nil
}
