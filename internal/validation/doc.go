// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// Package validation checks request DTOs with go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata after the first use. Error field names follow the json tag (or
// the form tag for multipart fields), so a failure on
// UpsertProfileRequest.Email reports "email".
//
// Custom rules:
//
//	video_access   the value is a known models access level (free, paid)
//
// Usage:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondError(w, http.StatusBadRequest, validation.ErrorCode, verr.Error(), nil)
//	    return
//	}
package validation
