// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/media"
	"github.com/tomtom215/vidstream/internal/models"
	"github.com/tomtom215/vidstream/internal/validation"
)

// multipartMemory is how much of an upload is held in memory before
// the rest spills to a temp file.
const multipartMemory = 32 << 20

// UploadVideo accepts a multipart upload, stores the file on the media host
// and records its metadata.
//
// @Summary Upload a video
// @Tags Videos
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Video file"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param duration formData int false "Duration in seconds"
// @Param access formData string false "free or paid (default free)"
// @Security BearerAuth
// @Success 201 {object} models.APIResponse{data=models.Video}
// @Failure 400 {object} models.APIResponse
// @Failure 413 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse "Media host unavailable"
// @Router /videos [post]
func (h *Handler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	s, ok := subject(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Media.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Upload exceeds the size limit", nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Request must be multipart/form-data", nil)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to remove multipart temp files")
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation, "file is required",
			map[string]interface{}{"field": "file"}, nil)
		return
	}
	defer file.Close()

	req := models.CreateVideoRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		Access:      r.FormValue("access"),
	}
	if req.Access == "" {
		req.Access = models.AccessFree
	}
	if d := r.FormValue("duration"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation, "duration must be an integer",
				map[string]interface{}{"field": "duration"}, nil)
			return
		}
		req.Duration = n
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	v, err := h.videos.Upload(r.Context(), s.ID, &req, media.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, v)
}

// ListVideos returns one page of the catalog, newest first.
//
// @Summary List videos
// @Tags Videos
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.APIResponse{data=[]models.Video}
// @Router /videos [get]
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageParams(w, r)
	if !ok {
		return
	}
	videos, total, err := h.videos.List(r.Context(), page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondPage(w, videos, page, total)
}

// GetVideo returns one video's metadata.
//
// @Summary Get a video
// @Tags Videos
// @Produce json
// @Param id path string true "Video UUID"
// @Success 200 {object} models.APIResponse{data=models.Video}
// @Failure 404 {object} models.APIResponse
// @Router /videos/{id} [get]
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	v, err := h.videos.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, v)
}

// UpdateVideo edits metadata. Only the owner may call it.
//
// @Summary Edit a video
// @Tags Videos
// @Accept json
// @Produce json
// @Param id path string true "Video UUID"
// @Param body body models.UpdateVideoRequest true "Fields to change"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.Video}
// @Failure 403 {object} models.APIResponse "Not the owner"
// @Failure 404 {object} models.APIResponse
// @Router /videos/{id} [put]
func (h *Handler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	s, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.videos.Update(r.Context(), s.ID, id, &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, v)
}

// DeleteVideo removes the file, the row and the video's analytics records.
//
// @Summary Delete a video
// @Tags Videos
// @Param id path string true "Video UUID"
// @Security BearerAuth
// @Success 204
// @Failure 403 {object} models.APIResponse "Not the owner"
// @Failure 404 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse "Media host unavailable"
// @Router /videos/{id} [delete]
func (h *Handler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	s, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.videos.Delete(r.Context(), s.ID, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CountView adds one to the video's aggregate view counter.
//
// @Summary Count a play
// @Tags Videos
// @Produce json
// @Param id path string true "Video UUID"
// @Success 200 {object} models.APIResponse{data=models.ViewCount}
// @Failure 404 {object} models.APIResponse
// @Router /videos/{id}/view [post]
func (h *Handler) CountView(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	vc, err := h.videos.CountView(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, vc)
}

// Playback returns stream URLs. Paid videos need a subscribed caller.
//
// @Summary Get playback URLs
// @Tags Videos
// @Produce json
// @Param id path string true "Video UUID"
// @Success 200 {object} models.APIResponse{data=models.Playback}
// @Failure 403 {object} models.APIResponse "SUBSCRIPTION_REQUIRED"
// @Failure 404 {object} models.APIResponse
// @Router /videos/{id}/playback [get]
func (h *Handler) Playback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.videos.Playback(r.Context(), caller(r), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, p)
}
