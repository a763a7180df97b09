// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// Package testinfra provides container helpers for integration tests.
//
// Everything here is behind the "integration" build tag and uses
// testcontainers-go. Tests call SkipIfNoDocker first so they degrade to a
// skip on machines without Docker:
//
//	go test -tags integration ./internal/database/...
//
// # Postgres
//
// NewPostgresContainer starts postgres:16-alpine and returns a DSN for the
// pgx driver. The DuckDB unit tests cover the same store contract in memory;
// the container run checks the Postgres schema, foreign-key cascades and
// SQLSTATE classification against a real server.
package testinfra
