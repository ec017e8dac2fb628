// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/inkpost/internal/config"
	"github.com/tomtom215/inkpost/internal/logging"
	"github.com/tomtom215/inkpost/internal/metrics"
	"github.com/tomtom215/inkpost/internal/recommend"
)

// ErrBusClosed is returned by Publish and Subscribe after Close.
var ErrBusClosed = errors.New("event bus is closed")

// Metadata keys set on every message.
const (
	MetadataInstance  = "instance_id"
	MetadataEventType = "event_type"
)

// EventTypeModelRebuilt tags model rebuilt messages.
const EventTypeModelRebuilt = "model.rebuilt"

// ModelRebuilt announces that a new model bundle was saved.
type ModelRebuilt struct {
	EventID        string    `json:"event_id"`
	Instance       string    `json:"instance_id"`
	Version        int       `json:"version"`
	BuiltAt        time.Time `json:"built_at"`
	Documents      int       `json:"documents"`
	VocabularySize int       `json:"vocabulary_size"`
	DurationMs     int64     `json:"duration_ms"`
}

// Handler processes one received event. A returned error nacks the message.
type Handler func(ctx context.Context, event ModelRebuilt) error

// Bus publishes and receives model lifecycle events over a watermill pub/sub.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	instance   string
	backend    string
	logger     zerolog.Logger

	// closers run after the pub/sub is closed, e.g. an embedded server.
	closers []func() error

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Bus notifies the recommendation engine's listeners.
var _ recommend.Notifier = (*Bus)(nil)

// New creates a bus for the configured backend.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg config.EventsConfig, logger zerolog.Logger) (*Bus, error) {
	switch cfg.Backend {
	case "", config.EventsBackendMemory:
		return NewMemoryBus(cfg.Topic, logger), nil
	case config.EventsBackendNATS:
		return newNATSBus(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NewMemoryBus creates an in-process bus backed by a watermill GoChannel.
// Events reach subscribers of this process only.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMemoryBus(topic string, logger zerolog.Logger) *Bus {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, logging.NewWatermillLoggerWithLogger(logger))
	return newBus(pubSub, pubSub, topic, config.EventsBackendMemory, logger)
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newBus(pub message.Publisher, sub message.Subscriber, topic, backend string, logger zerolog.Logger) *Bus {
	if topic == "" {
		topic = config.DefaultTopic
	}
	instance := uuid.NewString()
	return &Bus{
		publisher:  pub,
		subscriber: sub,
		topic:      topic,
		instance:   instance,
		backend:    backend,
		logger: logger.With().
			Str("component", "events").
			Str("backend", backend).
			Str("instance_id", instance).
			Logger(),
	}
}

// Topic returns the topic events are published on.
func (b *Bus) Topic() string { return b.topic }

// Instance returns the id stamped on events published by this bus.
func (b *Bus) Instance() string { return b.instance }

// Backend returns the backend name, memory or nats.
func (b *Bus) Backend() string { return b.backend }

// ModelRebuilt publishes a ModelRebuilt event for result.
func (b *Bus) ModelRebuilt(ctx context.Context, result recommend.RebuildResult) error {
	return b.Publish(ctx, ModelRebuilt{
		Version:        result.Version,
		BuiltAt:        result.BuiltAt,
		Documents:      result.Documents,
		VocabularySize: result.VocabularySize,
		DurationMs:     result.Duration.Milliseconds(),
	})
}

// Publish sends event on the bus topic. EventID and Instance are filled in when empty.
func (b *Bus) Publish(ctx context.Context, event ModelRebuilt) (err error) {
	defer func() { metrics.RecordModelEvent("published", err) }()

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	if event.EventID == "" {
		event.EventID = watermill.NewUUID()
	}
	if event.Instance == "" {
		event.Instance = b.instance
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal model event: %w", err)
	}

	msg := message.NewMessage(event.EventID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataInstance, event.Instance)
	msg.Metadata.Set(MetadataEventType, EventTypeModelRebuilt)
	if rid := logging.RequestIDFromContext(ctx); rid != "" {
		msg.Metadata.Set("request_id", rid)
	}

	if err := b.publisher.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("publish model event: %w", err)
	}

	b.logger.Debug().Str("event_id", event.EventID).Int("version", event.Version).Msg("Published model rebuilt event")
	return nil
}

// Subscribe starts delivering events to h until ctx is canceled or the bus
// is closed. The subscription is registered before Subscribe returns, so
// events published afterwards are not missed. The returned channel is closed
// once delivery has stopped.
func (b *Bus) Subscribe(ctx context.Context, h Handler) (<-chan struct{}, error) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, ErrBusClosed
	}
	messages, err := b.subscriber.Subscribe(ctx, b.topic)
	if err != nil {
		b.mu.RUnlock()
		return nil, fmt.Errorf("subscribe to %s: %w", b.topic, err)
	}
	b.wg.Add(1)
	b.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		defer b.wg.Done()
		defer close(done)
		b.consume(ctx, messages, h)
	}()
	return done, nil
}

func (b *Bus) consume(ctx context.Context, messages <-chan *message.Message, h Handler) {
	b.logger.Info().Str("topic", b.topic).Msg("Model event subscription started")
	defer b.logger.Info().Str("topic", b.topic).Msg("Model event subscription stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.handle(ctx, msg, h)
		}
	}
}

func (b *Bus) handle(ctx context.Context, msg *message.Message, h Handler) {
	var event ModelRebuilt
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// A malformed payload will never decode; ack so it is not redelivered.
		metrics.RecordModelEvent("received", err)
		b.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed model event")
		msg.Ack()
		return
	}

	err := h(ctx, event)
	metrics.RecordModelEvent("received", err)
	if err != nil {
		b.logger.Warn().Err(err).Str("event_id", event.EventID).Msg("Model event handler failed")
		msg.Nack()
		return
	}
	msg.Ack()
}

// Close stops the publisher and subscriber and waits for active subscriptions to drain.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	b.wg.Wait()

	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Invalidator is the part of the engine a cache invalidation handler needs.
type Invalidator interface {
	InvalidateCache() int
}

// CacheInvalidationHandler clears the engine's result cache for every rebuilt model.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func CacheInvalidationHandler(target Invalidator, logger zerolog.Logger) Handler {
	return func(_ context.Context, event ModelRebuilt) error {
		dropped := target.InvalidateCache()
		logger.Debug().
			Str("event_id", event.EventID).
			Str("origin", event.Instance).
			Int("version", event.Version).
			Int("dropped", dropped).
			Msg("Cleared similarity cache after model rebuild")
		return nil
	}
}
