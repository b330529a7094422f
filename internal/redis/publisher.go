package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/operating-room-scheduling/internal/surgery"
)

// Publisher is the part of *redis.Client used to fan out events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// EventPublisher publishes scheduling events to a pub/sub channel so other
// services can react to requests being scheduled or queued.
type EventPublisher struct {
	client  Publisher
	channel string
}

func NewEventPublisher(client Publisher, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

func (p *EventPublisher) Record(ctx context.Context, ev surgery.Event) error {
	body, err := ev.MarshalPayload()
	if err != nil {
		return fmt.Errorf("marshal event payload for %s: %w", ev.Type, err)
	}

	msg, err := json.Marshal(envelope{
		ID:         uuid.NewString(),
		Type:       ev.Type,
		OccurredAt: ev.OccurredAt,
		Payload:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", ev.Type, p.channel, err)
	}
	return nil
}
