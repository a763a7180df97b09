// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

/*
Command server runs the vidstream HTTP API.

Components start in this order:

 1. Configuration (koanf: defaults, config.yaml, .env, environment)
 2. Database (DuckDB by default, Postgres for multi-replica deployments)
 3. Directory cache (badger, in-memory by default)
 4. Media host (local directory or S3-compatible bucket)
 5. Events (embedded or external NATS JetStream; off by default)
 6. Authentication (JWT verification, or X-User-ID in development)
 7. Supervisor tree with the HTTP server

# Configuration

Every setting can be given as an environment variable:

	DATABASE_DRIVER=postgres DATABASE_DSN=postgres://... ./server
	MEDIA_BACKEND=s3 MEDIA_S3_BUCKET=videos MEDIA_S3_ENDPOINT=http://minio:9000 ./server
	NATS_ENABLED=true NATS_EMBEDDED_SERVER=true ./server

For local development without an identity provider:

	AUTH_MODE=none DATABASE_PATH=:memory: MEDIA_LOCAL_DIR=/tmp/media ./server
	curl -H 'X-User-ID: 6f1c...' -F title=Intro -F file=@intro.mp4 localhost:8080/api/v1/videos

# Signals

SIGINT and SIGTERM stop the tree. The HTTP server drains in-flight
requests for up to SERVER_SHUTDOWN_TIMEOUT before the publisher, NATS,
cache and database are closed.
*/
package main
