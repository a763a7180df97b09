// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/vidstream/internal/models"
)

const pingTimeout = 2 * time.Second

func (h *Handler) dbConnected(ctx context.Context) bool {
	if h.db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.db.Ping(ctx) == nil
}

// Health reports the database, event bus, media host and cache.
//
// @Summary Get system health status
// @Description Database connectivity, component status and uptime. Status is "degraded" when the database is unreachable or a component breaker is open.
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbOK := h.dbConnected(r.Context())

	components := map[string]string{
		"events": "disabled",
		"cache":  "disabled",
	}
	if h.events != nil {
		components["events"] = h.events.Status()
	}
	if h.media != nil {
		components["media"] = h.media.State()
		components["media_backend"] = h.media.Backend()
	}
	if h.cacheEnabled {
		components["cache"] = "ok"
	}

	status := "healthy"
	if !dbOK || components["events"] == "degraded" || components["media"] == "open" {
		status = "degraded"
	}

	database := "connected"
	if !dbOK {
		database = "unreachable"
	}
	driver := ""
	if h.db != nil {
		driver = h.db.Driver()
	}

	respondData(w, http.StatusOK, models.HealthStatus{
		Status:        status,
		Version:       h.version,
		Database:      database,
		DatabaseType:  driver,
		Components:    components,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// HealthLive returns 200 while the process is running.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 once the database answers a ping, 503 otherwise.
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.dbConnected(r.Context())

	code, status := http.StatusOK, "ready"
	if !ready {
		code, status = http.StatusServiceUnavailable, "not_ready"
	}
	respondJSON(w, code, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": ready,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
