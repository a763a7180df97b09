// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RecordView counts one view of the video by the caller.
//
// @Summary Record a view
// @Description Creates the caller's analytics record for the video at 1 view, or adds one to it. Exactly one record exists per (video, user) pair regardless of concurrency.
// @Tags Analytics
// @Produce json
// @Param videoId path string true "Video UUID"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.AnalyticsRecord}
// @Failure 400 {object} models.APIResponse "Malformed video id"
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "Unknown video or user"
// @Failure 500 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse "Store timeout"
// @Router /analytics/{videoId} [post]
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	s, ok := subject(w, r)
	if !ok {
		return
	}
	rec, err := h.analytics.RecordView(r.Context(), chi.URLParam(r, "videoId"), s.ID.String())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, rec)
}

// VideoAnalytics lists every viewer of a video with their view count.
//
// @Summary List viewers of a video
// @Tags Analytics
// @Produce json
// @Param videoId path string true "Video UUID"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=[]models.VideoViewer}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /analytics/{videoId} [get]
func (h *Handler) VideoAnalytics(w http.ResponseWriter, r *http.Request) {
	viewers, err := h.analytics.GetVideoAnalytics(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, viewers)
}
