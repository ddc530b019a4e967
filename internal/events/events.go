// Package events defines the draft lifecycle messages the service emits and
// the publishers that deliver them.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Routing keys.
const (
	DraftGenerated = "draft.generated"
	DraftFailed    = "draft.failed"
	DraftPosted    = "draft.posted"
)

// Envelope wraps every message.
type Envelope struct {
	ID         string          `json:"id"`
	RoutingKey string          `json:"routing_key"`
	Timestamp  time.Time       `json:"ts"`
	Payload    json.RawMessage `json:"payload"`
}

func Wrap(routingKey string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		ID:         uuid.New().String(),
		RoutingKey: routingKey,
		Timestamp:  time.Now().UTC(),
		Payload:    p,
	})
}

func Unwrap[T any](raw []byte) (*Envelope, *T, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, err
	}
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return nil, nil, err
	}
	return &env, &t, nil
}

type DraftGeneratedPayload struct {
	RequestID string         `json:"request_id,omitempty"`
	Backend   string         `json:"backend"`
	Model     string         `json:"model"`
	Draft     string         `json:"draft"`
	ElapsedMs int64          `json:"elapsed_ms"`
	Context   map[string]any `json:"context,omitempty"`
}

type DraftFailedPayload struct {
	RequestID string `json:"request_id,omitempty"`
	Backend   string `json:"backend,omitempty"`
	Kind      string `json:"kind"`
	Error     string `json:"error"`
}

type DraftPostedPayload struct {
	RequestID string         `json:"request_id,omitempty"`
	Text      string         `json:"text"`
	Edited    bool           `json:"edited"`
	Context   map[string]any `json:"context,omitempty"`
}

// Publisher delivers a wrapped message under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// NopPublisher drops every message. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NopPublisher) Close() error                                  { return nil }
