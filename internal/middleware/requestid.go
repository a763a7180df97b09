// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package middleware

import (
	"context"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/vidstream/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// CorrelationIDHeader lets a caller tie several requests together.
const CorrelationIDHeader = "X-Correlation-ID"

// maxIDLength caps inbound ids before they reach logs and event metadata.
const maxIDLength = 128

// RequestID accepts or generates a request id and a correlation id, echoes
// both in the response, and stores them in the context for logging.Ctx and
// for chi's middleware.GetReqID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := cleanID(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		correlationID := cleanID(r.Header.Get(CorrelationIDHeader))
		if correlationID == "" {
			correlationID = logging.GenerateCorrelationID()
		}

		w.Header().Set(RequestIDHeader, requestID)
		w.Header().Set(CorrelationIDHeader, correlationID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
		ctx = context.WithValue(ctx, chimiddleware.RequestIDKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the id stored by RequestID.
func GetRequestID(r *http.Request) string {
	return logging.RequestIDFromContext(r.Context())
}

// cleanID drops ids that are too long or carry control characters.
func cleanID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxIDLength {
		return ""
	}
	for _, c := range id {
		if c < 0x20 || c == 0x7f {
			return ""
		}
	}
	return id
}
