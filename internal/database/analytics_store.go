// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/models"
)

const analyticsColumns = `id, video_id, user_id, views, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.AnalyticsRecord, error) {
	var r models.AnalyticsRecord
	if err := row.Scan(&r.ID, &r.VideoID, &r.UserID, &r.Views, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// nowUTC truncates to microseconds, the resolution both drivers store.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// FindRecord returns the record for key or models.ErrNotFound.
func (db *DB) FindRecord(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+analyticsColumns+` FROM analytics WHERE video_id = $1 AND user_id = $2`,
		key.VideoID, key.UserID)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, classify(err, "find analytics record")
	}
	return rec, nil
}

// CreateRecord inserts the record for key with views = 1. If another writer
// created the pair first, it fails with models.ErrDuplicateKey. If the video
// or user no longer exists, it fails with models.ErrNotFound and nothing is
// written.
func (db *DB) CreateRecord(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error) {
	unlock, err := db.lockKey(ctx, key.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Postgres rejects a dangling reference through the foreign keys. DuckDB
	// has none, so the insert only happens while both parents exist.
	insert := `INSERT INTO analytics (` + analyticsColumns + `)
		 VALUES ($1, $2, $3, 1, $4, $4)
		 RETURNING ` + analyticsColumns
	if db.isDuckDB() {
		insert = `INSERT INTO analytics (` + analyticsColumns + `)
		 SELECT $1::UUID, $2::UUID, $3::UUID, 1, $4::TIMESTAMP, $4::TIMESTAMP
		 WHERE EXISTS (SELECT 1 FROM videos WHERE id = $2::UUID)
		   AND EXISTS (SELECT 1 FROM users WHERE id = $3::UUID)
		 RETURNING ` + analyticsColumns
	}

	now := nowUTC()
	var rec *models.AnalyticsRecord
	err = db.withConflictRetry(ctx, "create_record", func() error {
		var err error
		rec, err = scanRecord(db.conn.QueryRowContext(ctx, insert, uuid.New(), key.VideoID, key.UserID, now))
		return err
	})
	if err != nil {
		return nil, classify(err, "create analytics record")
	}
	return rec, nil
}

// IncrementViews adds one to views in a single UPDATE and returns the
// post-increment row, or models.ErrNotFound if the pair has no record.
func (db *DB) IncrementViews(ctx context.Context, key models.AnalyticsKey) (*models.AnalyticsRecord, error) {
	unlock, err := db.lockKey(ctx, key.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	var rec *models.AnalyticsRecord
	err = db.withConflictRetry(ctx, "increment_views", func() error {
		row := db.conn.QueryRowContext(ctx,
			`UPDATE analytics SET views = views + 1, updated_at = $3
			 WHERE video_id = $1 AND user_id = $2
			 RETURNING `+analyticsColumns,
			key.VideoID, key.UserID, nowUTC())
		var err error
		rec, err = scanRecord(row)
		return err
	})
	if err != nil {
		return nil, classify(err, "increment views")
	}
	return rec, nil
}

// ListByVideo returns one row per viewer of videoID joined with the viewer's
// name and email, most views first. The slice is never nil.
func (db *DB) ListByVideo(ctx context.Context, videoID uuid.UUID) ([]models.VideoViewer, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.user_id, u.name, u.email, a.views
		 FROM analytics a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.video_id = $1
		 ORDER BY a.views DESC, u.name ASC, a.user_id ASC`,
		videoID)
	if err != nil {
		return nil, classify(err, "list analytics by video")
	}
	defer closeWithLog(rows, "rows")

	viewers := make([]models.VideoViewer, 0)
	for rows.Next() {
		var v models.VideoViewer
		if err := rows.Scan(&v.UserID, &v.UserName, &v.UserEmail, &v.Views); err != nil {
			return nil, classify(err, "scan video viewer")
		}
		viewers = append(viewers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate video viewers")
	}
	return viewers, nil
}

// CountRecords returns the number of analytics rows for videoID.
func (db *DB) CountRecords(ctx context.Context, videoID uuid.UUID) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM analytics WHERE video_id = $1`, videoID).Scan(&n)
	if err != nil {
		return 0, classify(err, "count analytics records")
	}
	return n, nil
}
