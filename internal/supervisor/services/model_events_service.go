// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/inkpost/internal/events"
)

// EventSubscriber matches (*events.Bus).Subscribe.
type EventSubscriber interface {
	Subscribe(ctx context.Context, h events.Handler) (<-chan struct{}, error)
}

// errSubscriptionEnded is returned when delivery stops while the service is
// still wanted, so suture restarts it.
var errSubscriptionEnded = errors.New("model event subscription ended unexpectedly")

// ModelEventsService keeps a model event subscription open under suture
// supervision. A subscription that ends before the context is canceled is
// reported as a failure and resubscribed by the supervisor.
type ModelEventsService struct {
	bus     EventSubscriber
	handler events.Handler
	name    string
}

// NewModelEventsService creates a subscription service delivering to handler.
func NewModelEventsService(bus EventSubscriber, handler events.Handler) *ModelEventsService {
	return &ModelEventsService{
		bus:     bus,
		handler: handler,
		name:    "model-events",
	}
}

// Serve implements suture.Service.
func (s *ModelEventsService) Serve(ctx context.Context) error {
	done, err := s.bus.Subscribe(ctx, s.handler)
	if errors.Is(err, events.ErrBusClosed) {
		return suture.ErrDoNotRestart
	}
	if err != nil {
		return fmt.Errorf("subscribe to model events: %w", err)
	}

	select {
	case <-ctx.Done():
		<-done
		return ctx.Err()
	case <-done:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errSubscriptionEnded
	}
}

// String implements fmt.Stringer for logging.
func (s *ModelEventsService) String() string {
	return s.name
}
