// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/vidstream/internal/breaker"
	"github.com/tomtom215/vidstream/internal/config"
	"github.com/tomtom215/vidstream/internal/logging"
)

// StreamConfig describes the JetStream stream that stores domain events.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	DuplicateWindow time.Duration
}

// DefaultStreamConfig covers every subject under prefix.
func DefaultStreamConfig(prefix string) StreamConfig {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return StreamConfig{
		Name:            strings.ToUpper(strings.ReplaceAll(prefix, ".", "_")) + "_EVENTS",
		Subjects:        []string{prefix + ".>"},
		MaxAge:          7 * 24 * time.Hour,
		DuplicateWindow: 2 * time.Minute,
	}
}

// EnsureStream creates the stream or updates it in place. It is idempotent.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg StreamConfig) error {
	streamCfg := jetstream.StreamConfig{
		Name:       cfg.Name,
		Subjects:   cfg.Subjects,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     cfg.MaxAge,
		Duplicates: cfg.DuplicateWindow,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	_, err := js.Stream(ctx, cfg.Name)
	switch {
	case err == nil:
		if _, err := js.UpdateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", cfg.Name, err)
		}
	case errors.Is(err, jetstream.ErrStreamNotFound):
		if _, err := js.CreateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
	default:
		return fmt.Errorf("check stream %s: %w", cfg.Name, err)
	}
	return nil
}

// NewNATSPublisher provisions the event stream at url and returns a Publisher
// backed by watermill-nats in JetStream mode.
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, url string) (*Publisher, error) {
	logger := logging.NewWatermillLogger()
	streamCfg := DefaultStreamConfig(cfg.SubjectPrefix)

	nc, err := natsgo.Connect(url, natsgo.Name("vidstream-provisioner"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	err = EnsureStream(ctx, js, streamCfg)
	nc.Close()
	if err != nil {
		return nil, err
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("vidstream-publisher"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	logging.Info().
		Str("url", url).
		Str("stream", streamCfg.Name).
		Strs("subjects", streamCfg.Subjects).
		Msg("Event publisher connected")

	return NewPublisher(pub, cfg.SubjectPrefix, breaker.New(breaker.Settings{
		Name:                "events-publisher",
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	})), nil
}
