// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package services

import (
	"context"
	"fmt"
)

// Closer is satisfied by *events.Publisher.
type Closer interface {
	Close() error
}

// PublisherService closes the event publisher when the tree stops, after
// the API layer has drained so no handler publishes into a closed
// connection.
type PublisherService struct {
	publisher Closer
	name      string
}

// NewPublisherService wraps publisher.
func NewPublisherService(publisher Closer) *PublisherService {
	return &PublisherService{publisher: publisher, name: "event-publisher"}
}

// Serve implements suture.Service.
func (s *PublisherService) Serve(ctx context.Context) error {
	<-ctx.Done()
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close event publisher: %w", err)
	}
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *PublisherService) String() string {
	return s.name
}
