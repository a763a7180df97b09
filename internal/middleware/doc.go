// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// Package middleware holds the chi middleware shared by every route.
//
//   - RequestID: accepts or generates X-Request-ID and X-Correlation-ID and
//     stores them for logging.Ctx, event metadata and chi's GetReqID.
//   - PrometheusMetrics: vidstream_api_requests_total,
//     vidstream_api_request_duration_seconds and
//     vidstream_api_active_requests, labelled by route pattern.
//
// Authentication lives in internal/auth; CORS, panic recovery and response
// compression come from go-chi and are installed by internal/api.
package middleware
