// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/vidstream/internal/config"
	"github.com/tomtom215/vidstream/internal/logging"
)

// DB wraps a database/sql pool opened on DuckDB or Postgres and provides
// the analytics, user and video stores.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// Striped per-key write locks, DuckDB only.
	locks *stripedLock

	// conflictRetries bounds retries of DuckDB transaction conflicts.
	conflictRetries int
}

// New opens the configured database, applies pending migrations and returns
// a ready DB. conflictRetries is used only by the DuckDB driver.
func New(cfg *config.DatabaseConfig, conflictRetries int) (*DB, error) {
	if conflictRetries < 1 {
		conflictRetries = 1
	}

	var (
		conn *sql.DB
		err  error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		conn, err = openPostgres(cfg)
	case config.DriverDuckDB, "":
		conn, err = openDuckDB(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	db := &DB{
		conn:            conn,
		cfg:             cfg,
		conflictRetries: conflictRetries,
	}
	if db.isDuckDB() {
		db.locks = newStripedLock(lockStripes)
	}

	if err := db.configureConnectionPool(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("driver", db.Driver()).
		Msg("Database ready")
	return db, nil
}

func openDuckDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	// Extensions are not needed; disabling autoload avoids network hangs
	// in restricted environments.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return conn, nil
}

func openPostgres(cfg *config.DatabaseConfig) (*sql.DB, error) {
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return conn, nil
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	if db.cfg.Driver == "" {
		return config.DriverDuckDB
	}
	return db.cfg.Driver
}

func (db *DB) isDuckDB() bool {
	return db.Driver() == config.DriverDuckDB
}

// Conn returns the underlying pool for tests and health checks.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes the pool. On DuckDB a CHECKPOINT flushes the WAL first so the
// next start does not need to replay it.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.isDuckDB() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// initialize applies versioned migrations.
func (db *DB) initialize() error {
	if err := db.runVersionedMigrations(); err != nil {
		return err
	}
	if db.isDuckDB() {
		ctx, cancel := schemaContext()
		defer cancel()
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
		}
	}
	return nil
}

// schemaContext bounds DDL during startup.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
