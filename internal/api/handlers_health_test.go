// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/vidstream/internal/models"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		configure  func(*testEnv)
		status     string
		database   string
		components map[string]string
	}{
		{
			name:     "all healthy",
			status:   "healthy",
			database: "connected",
			components: map[string]string{
				"events": "ok", "cache": "ok", "media": "closed", "media_backend": "local",
			},
		},
		{
			name:      "database down",
			configure: func(e *testEnv) { e.deps.DB = fakeDB{err: errors.New("refused")} },
			status:    "degraded",
			database:  "unreachable",
		},
		{
			name:      "events degraded",
			configure: func(e *testEnv) { e.deps.Events = fixedStatus("degraded") },
			status:    "degraded",
			database:  "connected",
		},
		{
			name:      "media breaker open",
			configure: func(e *testEnv) { e.deps.Media = fakeMedia{state: "open"} },
			status:    "degraded",
			database:  "connected",
		},
		{
			name: "optional components off",
			configure: func(e *testEnv) {
				e.deps.Events = nil
				e.deps.CacheEnabled = false
			},
			status:     "healthy",
			database:   "connected",
			components: map[string]string{"events": "disabled", "cache": "disabled", "media": "closed", "media_backend": "local"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []func(*testEnv)
			if tt.configure != nil {
				opts = append(opts, tt.configure)
			}
			env := newTestEnv(t, opts...)

			rec := env.do(t, http.MethodGet, "/api/v1/health", nil, uuid.Nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var h models.HealthStatus
			decodeData(t, rec, &h)
			assert.Equal(t, tt.status, h.Status)
			assert.Equal(t, tt.database, h.Database)
			assert.Equal(t, "duckdb", h.DatabaseType)
			assert.Equal(t, "test", h.Version)
			if tt.components != nil {
				assert.Equal(t, tt.components, h.Components)
			}
		})
	}
}

func TestHealthReady(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/health/ready", nil, uuid.Nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeEnvelope(t, rec).Status)

	down := newTestEnv(t, func(e *testEnv) { e.deps.DB = fakeDB{err: errors.New("refused")} })
	rec = down.do(t, http.MethodGet, "/api/v1/health/ready", nil, uuid.Nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", decodeEnvelope(t, rec).Status)

	rec = down.do(t, http.MethodGet, "/api/v1/health/live", nil, uuid.Nil)
	assert.Equal(t, http.StatusOK, rec.Code, "liveness ignores the database")
}

func TestNewHandler_DefaultVersion(t *testing.T) {
	h := NewHandler(Dependencies{Config: testConfig()})
	assert.Equal(t, "dev", h.version)
	assert.False(t, h.dbConnected(t.Context()), "no database means not connected")
}
