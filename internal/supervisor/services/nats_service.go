// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/vidstream/internal/logging"
)

// EmbeddedNATS is satisfied by *events.EmbeddedServer.
type EmbeddedNATS interface {
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// ErrNATSStopped is returned when the embedded server exits on its own.
var ErrNATSStopped = errors.New("embedded NATS server stopped unexpectedly")

// EmbeddedNATSService owns the lifetime of an already started embedded NATS
// server. The server is started before the tree because the publisher needs
// its URL; this service watches it and shuts it down when the tree stops.
type EmbeddedNATSService struct {
	server          EmbeddedNATS
	pollInterval    time.Duration
	shutdownTimeout time.Duration
	name            string
}

// NewEmbeddedNATSService wraps server with a 5s health poll.
func NewEmbeddedNATSService(server EmbeddedNATS, shutdownTimeout time.Duration) *EmbeddedNATSService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedNATSService{
		server:          server,
		pollInterval:    5 * time.Second,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-server",
	}
}

// Serve implements suture.Service. A server that dies underneath cannot be
// revived in place, so that case ends supervision of this service.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.shutdown(); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.server.IsRunning() {
				logging.Error().Err(ErrNATSStopped).Msg("Event publishing is degraded until restart")
				return suture.ErrDoNotRestart
			}
		}
	}
}

func (s *EmbeddedNATSService) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("NATS server shutdown failed: %w", err)
	}
	return nil
}

// String names the service in supervisor logs.
func (s *EmbeddedNATSService) String() string {
	return s.name
}
