// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package analytics

import (
	"context"
	"errors"
)

// Reasons for a KindNotFound error. Match with errors.Is.
var (
	ErrUnknownVideo = errors.New("unknown video")
	ErrUnknownUser  = errors.New("unknown user")
)

// Kind classifies a service failure.
type Kind int

const (
	// KindValidation means an identifier was malformed. No store call was made.
	KindValidation Kind = iota + 1
	// KindNotFound means the referenced video, user or record is missing.
	KindNotFound
	// KindStorage means the store failed, timed out or was unreachable.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error carries the operation and pair identifiers of a failed call.
type Error struct {
	Kind    Kind
	Op      string
	VideoID string
	UserID  string
	Err     error
}

func (e *Error) Error() string {
	msg := "analytics: " + e.Op
	if e.VideoID != "" {
		msg += " video=" + e.VideoID
	}
	if e.UserID != "" {
		msg += " user=" + e.UserID
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether a storage failure was the per-call deadline.
func (e *Error) Timeout() bool {
	return e.Kind == KindStorage && errors.Is(e.Err, context.DeadlineExceeded)
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
