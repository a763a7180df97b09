// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/analytics"
	"github.com/tomtom215/vidstream/internal/auth"
	"github.com/tomtom215/vidstream/internal/breaker"
	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/media"
	"github.com/tomtom215/vidstream/internal/models"
	"github.com/tomtom215/vidstream/internal/validation"
)

// Error codes carried in APIResponse.Error.Code.
const (
	ErrCodeValidation           = validation.ErrorCode
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeConflict             = "CONFLICT"
	ErrCodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	ErrCodeDatabase             = "DATABASE_ERROR"
	ErrCodeInternal             = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
)

// maxJSONBody caps JSON request bodies; uploads have their own limit.
const maxJSONBody = 1 << 20

// sanitizeLogValue escapes control characters so request-derived strings
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// respondJSON writes the envelope with the given status.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

func respondPage(w http.ResponseWriter, data interface{}, page models.Page, total int) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:  time.Now(),
			Pagination: models.NewPaginationInfo(page.Limit, page.Offset, total),
		},
	})
}

// respondError writes an error envelope. err is logged, never sent.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondErrorDetails(w, r, status, code, message, nil, err)
}

func respondErrorDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}, err error) {
	if err != nil {
		ev := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(r.Context()).Error()
		}
		ev.Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondServiceError maps a service error onto status and code. Driver
// and host messages stay in the log.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var aerr *analytics.Error
	if errors.As(err, &aerr) {
		switch aerr.Kind {
		case analytics.KindValidation:
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, aerr.Err.Error(), nil)
		case analytics.KindNotFound:
			msg := "Video not found"
			if errors.Is(aerr, analytics.ErrUnknownUser) {
				msg = "User not found"
			}
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, msg, nil)
		default:
			if aerr.Timeout() {
				respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Storage timed out", err)
				return
			}
			respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "Storage error", err)
		}
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Resource not found", nil)
	case errors.Is(err, models.ErrDuplicateKey):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "Email is already in use", nil)
	case errors.Is(err, models.ErrForbidden):
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "Only the owner may modify this video", nil)
	case errors.Is(err, models.ErrSubscriptionRequired):
		respondError(w, r, http.StatusForbidden, ErrCodeSubscriptionRequired, "A subscription is required to play this video", nil)
	case errors.Is(err, media.ErrEmptyUpload):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "file is empty", nil)
	case breaker.IsOpen(err):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Media host unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Request timed out", err)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads this response.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Request canceled")
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", err)
	}
}

func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation, verr.Error(), verr.Details(), nil)
}

// decodeJSON reads a bounded JSON body into dst and validates it. It
// writes the error response itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Request body too large", nil)
			return false
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Request body could not be read", err)
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Request body is empty", nil)
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Request body is not valid JSON", nil)
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		respondValidation(w, r, verr)
		return false
	}
	return true
}

// pathUUID parses a chi URL parameter as a UUID, writing a 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation,
			name+" must be a UUID", map[string]interface{}{"field": name}, nil)
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads limit and offset. Missing values use the configured
// default; a limit above the maximum is clamped.
func (h *Handler) pageParams(w http.ResponseWriter, r *http.Request) (models.Page, bool) {
	page := models.Page{Limit: h.cfg.API.DefaultPageSize}
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer", nil)
			return page, false
		}
		page.Limit = n
	}
	if page.Limit > h.cfg.API.MaxPageSize {
		page.Limit = h.cfg.API.MaxPageSize
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "offset must be a non-negative integer", nil)
			return page, false
		}
		page.Offset = n
	}
	return page, true
}

// caller returns the authenticated subject id, or uuid.Nil.
func caller(r *http.Request) uuid.UUID {
	if s, ok := auth.SubjectFromContext(r.Context()); ok {
		return s.ID
	}
	return uuid.Nil
}

// subject returns the authenticated subject. Routes that call it sit behind
// RequireAuth; the 401 here covers wiring mistakes.
func subject(w http.ResponseWriter, r *http.Request) (*auth.Subject, bool) {
	s, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required", nil)
		return nil, false
	}
	return s, true
}
