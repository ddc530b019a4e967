// Package handler implements the HTTP endpoints the draft widget calls.
package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/baaakgun4543/unlurk/internal/events"
	"github.com/baaakgun4543/unlurk/internal/provider"
)

// Generator is the part of the dispatcher the handlers depend on.
type Generator interface {
	Draft(ctx context.Context, req provider.Request) (provider.Draft, error)
	Backend() provider.Backend
	Model() string
	Available(ctx context.Context) bool
}

const publishTimeout = 5 * time.Second

// Emitter publishes draft lifecycle events. Failures are logged and never
// reach the HTTP caller.
type Emitter struct {
	Publisher events.Publisher
	Logger    zerolog.Logger
}

func (e Emitter) emit(ctx context.Context, routingKey string, payload any) {
	if e.Publisher == nil {
		return
	}
	body, err := events.Wrap(routingKey, payload)
	if err != nil {
		e.Logger.Error().Err(err).Str("routing_key", routingKey).Msg("encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := e.Publisher.Publish(ctx, routingKey, body); err != nil {
		e.Logger.Warn().Err(err).Str("routing_key", routingKey).Msg("publish event")
	}
}
