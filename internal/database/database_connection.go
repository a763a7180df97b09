// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

/*
database_connection.go - Pool configuration and write coordination

DuckDB uses optimistic concurrency control: two transactions that touch the
same row fail the second one with a "Conflict on update" error instead of
blocking. Inside one process that is avoidable, so writes to the same key
are serialized by a striped lock and any residual conflict is retried with
exponential backoff. Neither is relied on for correctness; the UNIQUE
constraint on (video_id, user_id) is.

Postgres blocks on row locks, so none of this applies there.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/metrics"
)

// configureConnectionPool sets connection pool parameters.
func (db *DB) configureConnectionPool() error {
	if db.isDuckDB() {
		db.conn.SetMaxOpenConns(runtime.NumCPU())
		db.conn.SetMaxIdleConns(2)
		db.conn.SetConnMaxLifetime(time.Hour)
		db.conn.SetConnMaxIdleTime(5 * time.Minute)
		return nil
	}

	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(db.cfg.MaxIdleConns)
	if db.cfg.ConnMaxLifetime > 0 {
		db.conn.SetConnMaxLifetime(db.cfg.ConnMaxLifetime)
	}
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
	return nil
}

const lockStripes = 256

// stripedLock maps keys onto a fixed set of one-slot semaphores so that
// memory stays bounded no matter how many distinct keys are written.
type stripedLock struct {
	stripes []chan struct{}
}

func newStripedLock(n int) *stripedLock {
	l := &stripedLock{stripes: make([]chan struct{}, n)}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *stripedLock) get(key string) chan struct{} {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.stripes[h.Sum32()%uint32(len(l.stripes))]
}

// lockKey acquires the write lock for key and returns its release func.
// Waiting gives up when ctx is done. It is a no-op on Postgres.
func (db *DB) lockKey(ctx context.Context, key string) (func(), error) {
	if db.locks == nil {
		return func() {}, nil
	}
	sem := db.locks.get(key)
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for write lock: %w", ctx.Err())
	}
}

// withConflictRetry runs fn, retrying DuckDB transaction conflicts with
// exponential backoff (1ms, 2ms, 4ms, ...). Other errors return immediately.
func (db *DB) withConflictRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < db.conflictRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("operation timed out or canceled: %w", ctx.Err())
		}
		if !isTransactionConflict(err) {
			return err
		}

		metrics.DBConflictRetries.WithLabelValues(op).Inc()
		if attempt < db.conflictRetries-1 {
			backoff := time.Millisecond * time.Duration(1<<uint(attempt))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	logging.Warn().Str("op", op).Int("attempts", db.conflictRetries).Err(lastErr).Msg("Transaction conflict retries exhausted")
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update") ||
		strings.Contains(errStr, "write-write conflict")
}

// SQLSTATE codes for constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// isDuplicateKey reports a unique or primary key violation on either driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Duplicate key") ||
		strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "violates unique constraint") ||
		strings.Contains(errStr, "violates primary key constraint")
}

// isMissingReference reports a foreign key violation: the referenced video
// or user row is gone. Only Postgres declares foreign keys.
func isMissingReference(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// isConnectionError checks if an error indicates database connection loss.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "bad connection") ||
		strings.Contains(errMsg, "database is closed")
}
