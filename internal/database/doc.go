// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

/*
Package database is the relational store behind Vidstream.

A single DB type runs on either driver through database/sql:

  - duckdb (github.com/duckdb/duckdb-go/v2): embedded, single process, the default
  - postgres (github.com/jackc/pgx/v5/stdlib): shared by several replicas

Both drivers accept the same SQL with numbered ($n) placeholders and
RETURNING clauses, so the stores below have no per-driver branches except in
the schema (see migrations.go).

Stores:

  - analytics: FindRecord, CreateRecord, IncrementViews, ListByVideo
  - users: GetUser, ListUsers, UpsertUser, UpdateUserProfile, SetSubscription, DeleteUser
  - videos: CreateVideo, GetVideo, VideoExists, ListVideos, UpdateVideo,
    IncrementVideoViewCount, DeleteVideo

Uniqueness of (video_id, user_id) is enforced by a UNIQUE constraint. View
counters are incremented with "SET views = views + 1 ... RETURNING" so no
increment can be lost to a read-modify-write race.

Errors are classified onto models.ErrNotFound and models.ErrDuplicateKey;
everything else is returned wrapped with the operation name.

Usage:

	db, err := database.New(&cfg.Database, cfg.Analytics.ConflictRetries)
	if err != nil {
	    return err
	}
	defer db.Close()

	rec, err := db.IncrementViews(ctx, models.AnalyticsKey{VideoID: v, UserID: u})
*/
package database
