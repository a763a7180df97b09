// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/vidstream/internal/logging"
)

// Migration represents a versioned database migration.
//
// Each migration carries one statement list per driver. DuckDB has no
// ON DELETE CASCADE and its foreign keys block updates of referenced rows,
// so the DuckDB schema omits foreign keys and the stores delete children
// explicitly inside the parent's transaction. Postgres gets real foreign
// keys with ON DELETE CASCADE.
type Migration struct {
	Version     int
	Name        string
	Description string
	DuckDB      []string
	Postgres    []string
	AppliedAt   time.Time
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL
);
`

// getMigrations returns all migrations in order. Append only.
func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "initial_schema",
			Description: "users, videos and per-viewer analytics",
			DuckDB: []string{
				`CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY,
					name TEXT NOT NULL,
					email TEXT NOT NULL UNIQUE,
					role TEXT NOT NULL DEFAULT 'USER',
					subscription BOOLEAN NOT NULL DEFAULT FALSE,
					active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS videos (
					id UUID PRIMARY KEY,
					owner_id UUID NOT NULL,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					url TEXT NOT NULL,
					hls_url TEXT NOT NULL DEFAULT '',
					storage_key TEXT NOT NULL,
					duration INTEGER NOT NULL DEFAULT 0,
					access TEXT NOT NULL DEFAULT 'free',
					view_count BIGINT NOT NULL DEFAULT 0,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS analytics (
					id UUID PRIMARY KEY,
					video_id UUID NOT NULL,
					user_id UUID NOT NULL,
					views BIGINT NOT NULL DEFAULT 0 CHECK (views >= 0),
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					UNIQUE (video_id, user_id)
				)`,
			},
			Postgres: []string{
				`CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY,
					name TEXT NOT NULL,
					email TEXT NOT NULL UNIQUE,
					role TEXT NOT NULL DEFAULT 'USER',
					subscription BOOLEAN NOT NULL DEFAULT FALSE,
					active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS videos (
					id UUID PRIMARY KEY,
					owner_id UUID NOT NULL,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					url TEXT NOT NULL,
					hls_url TEXT NOT NULL DEFAULT '',
					storage_key TEXT NOT NULL,
					duration INTEGER NOT NULL DEFAULT 0,
					access TEXT NOT NULL DEFAULT 'free',
					view_count BIGINT NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS analytics (
					id UUID PRIMARY KEY,
					video_id UUID NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					views BIGINT NOT NULL DEFAULT 0 CHECK (views >= 0),
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL,
					CONSTRAINT analytics_video_user_key UNIQUE (video_id, user_id)
				)`,
			},
		},
		{
			Version:     2,
			Name:        "listing_indexes",
			Description: "indexes for per-user cascades and video listing order",
			DuckDB: []string{
				`CREATE INDEX IF NOT EXISTS idx_analytics_user ON analytics(user_id)`,
				`CREATE INDEX IF NOT EXISTS idx_videos_created ON videos(created_at)`,
			},
			Postgres: []string{
				`CREATE INDEX IF NOT EXISTS idx_analytics_user ON analytics(user_id)`,
				`CREATE INDEX IF NOT EXISTS idx_videos_created ON videos(created_at DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_videos_owner ON videos(owner_id)`,
			},
		},
	}
}

func (m Migration) statements(duck bool) []string {
	if duck {
		return m.DuckDB
	}
	return m.Postgres
}

func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations applies, in order, every migration not yet
// recorded in schema_migrations. Each migration runs in its own transaction.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range getMigrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Str("driver", db.Driver()).Msg("Applied database migrations")
	}
	return nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration v%d: %w", m.Version, err)
	}
	defer rollbackQuietly(tx)

	for _, stmt := range m.statements(db.isDuckDB()) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES ($1, $2, $3, $4)`,
		m.Version, m.Name, m.Description, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version.
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
