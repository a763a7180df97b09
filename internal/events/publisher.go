// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/vidstream/internal/breaker"
	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/metrics"
	"github.com/tomtom215/vidstream/internal/models"
)

// Publisher sends domain events through any watermill publisher, guarded by
// a circuit breaker. Failures are logged and counted, never returned.
type Publisher struct {
	pub    message.Publisher
	cb     *breaker.Breaker
	prefix string

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub. A nil breaker gets a default one named
// "events-publisher".
func NewPublisher(pub message.Publisher, prefix string, cb *breaker.Breaker) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if cb == nil {
		cb = breaker.New(breaker.Settings{Name: "events-publisher"})
	}
	return &Publisher{pub: pub, cb: cb, prefix: strings.TrimSuffix(prefix, ".")}
}

// Topic returns the full subject for a suffix such as TopicViewRecorded.
func (p *Publisher) Topic(suffix string) string {
	return p.prefix + "." + suffix
}

// ViewRecorded publishes <prefix>.view.recorded.
func (p *Publisher) ViewRecorded(ctx context.Context, rec models.AnalyticsRecord) {
	p.publish(ctx, TopicViewRecorded, &ViewRecorded{
		Envelope: newEnvelope(ctx),
		RecordID: rec.ID,
		VideoID:  rec.VideoID,
		UserID:   rec.UserID,
		Views:    rec.Views,
	})
}

// VideoDeleted publishes <prefix>.video.deleted.
func (p *Publisher) VideoDeleted(ctx context.Context, video models.Video, removedRecords int64) {
	p.publish(ctx, TopicVideoDeleted, &VideoDeleted{
		Envelope:       newEnvelope(ctx),
		VideoID:        video.ID,
		OwnerID:        video.OwnerID,
		StorageKey:     video.StorageKey,
		RemovedRecords: removedRecords,
	})
}

// UserDeleted publishes <prefix>.user.deleted.
func (p *Publisher) UserDeleted(ctx context.Context, userID uuid.UUID, removedRecords int64) {
	p.publish(ctx, TopicUserDeleted, &UserDeleted{
		Envelope:       newEnvelope(ctx),
		UserID:         userID,
		RemovedRecords: removedRecords,
	})
}

// Status reports "degraded" while the breaker is not closed.
func (p *Publisher) Status() string {
	if p.cb.State() != "closed" {
		return "degraded"
	}
	return "ok"
}

// Close shuts down the underlying publisher. It is safe to call twice.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.pub.Close()
}

func (p *Publisher) publish(ctx context.Context, suffix string, payload interface{}) {
	topic := p.Topic(suffix)
	err := p.send(ctx, topic, payload)
	metrics.RecordEventPublish(topic, err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("Event publish failed")
	}
}

func (p *Publisher) send(ctx context.Context, topic string, payload interface{}) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	// JetStream deduplicates on Nats-Msg-Id within the stream's window.
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}

	return p.cb.Do(func() error {
		return p.pub.Publish(topic, msg)
	})
}

func newEnvelope(ctx context.Context) Envelope {
	return Envelope{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		OccurredAt:    time.Now().UTC(),
	}
}
