// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Status is "success" or "error". Exactly one of Data and Error is
// meaningful for a given status.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"id": "...", "views": 3},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 2}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "NOT_FOUND", "message": "video not found"},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries timing and pagination details for a response.
type Metadata struct {
	Timestamp   time.Time       `json:"timestamp"`
	QueryTimeMS int64           `json:"query_time_ms,omitempty"`
	Cached      bool            `json:"cached,omitempty"`
	Pagination  *PaginationInfo `json:"pagination,omitempty"`
}

// APIError is the structured error body.
//
// Codes used by the API:
//   - VALIDATION_ERROR: malformed identifiers or request body
//   - UNAUTHORIZED: missing or invalid credentials
//   - FORBIDDEN: caller does not own the resource
//   - SUBSCRIPTION_REQUIRED: paid video requested without a subscription
//   - NOT_FOUND: referenced video, user or record is missing
//   - CONFLICT: unique field already taken (e.g. email)
//   - PAYLOAD_TOO_LARGE: upload exceeds the configured limit
//   - DATABASE_ERROR: storage failure
//   - SERVICE_UNAVAILABLE: storage timeout or open circuit
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PaginationInfo describes an offset page.
type PaginationInfo struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// NewPaginationInfo computes HasMore from the page window and total.
func NewPaginationInfo(limit, offset, total int) *PaginationInfo {
	return &PaginationInfo{
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		HasMore: offset+limit < total,
	}
}

// Page is an offset/limit window for list queries.
type Page struct {
	Limit  int
	Offset int
}

// HealthStatus is returned by GET /api/v1/health.
type HealthStatus struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Database      string            `json:"database"`
	DatabaseType  string            `json:"database_type"`
	Components    map[string]string `json:"components"`
	UptimeSeconds float64           `json:"uptime_seconds"`
}
