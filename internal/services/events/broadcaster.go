package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeGateUnlocked EventType = "gate.unlocked"
	EventTypeGateWrong    EventType = "gate.wrong"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	VisitorID string         `json:"visitor_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Publisher announces gate activity for a visitor.
type Publisher interface {
	PublishGateUnlocked(ctx context.Context, visitorID uuid.UUID, scope string, unlocked []string) error
	PublishGateWrong(ctx context.Context, visitorID uuid.UUID, scope string, clearAfterMS int64) error
}

// Channel is the pub/sub channel for one visitor's events.
func Channel(visitorID uuid.UUID) string {
	return fmt.Sprintf("gallery-events:%s", visitorID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishGateUnlocked publishes a gate.unlocked event
func (b *Broadcaster) PublishGateUnlocked(ctx context.Context, visitorID uuid.UUID, scope string, unlocked []string) error {
	event := Event{
		Type:      EventTypeGateUnlocked,
		VisitorID: visitorID.String(),
		Data: map[string]any{
			"scope":    scope,
			"sections": unlocked,
		},
	}
	return b.publish(ctx, visitorID, event)
}

// PublishGateWrong publishes a gate.wrong event
func (b *Broadcaster) PublishGateWrong(ctx context.Context, visitorID uuid.UUID, scope string, clearAfterMS int64) error {
	event := Event{
		Type:      EventTypeGateWrong,
		VisitorID: visitorID.String(),
		Data: map[string]any{
			"scope":          scope,
			"clear_after_ms": clearAfterMS,
		},
	}
	return b.publish(ctx, visitorID, event)
}

func (b *Broadcaster) publish(ctx context.Context, visitorID uuid.UUID, event Event) error {
	channel := Channel(visitorID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}

// Nop discards events. Used with the memory store, which has no pub/sub.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) PublishGateUnlocked(ctx context.Context, visitorID uuid.UUID, scope string, unlocked []string) error {
	return nil
}

func (Nop) PublishGateWrong(ctx context.Context, visitorID uuid.UUID, scope string, clearAfterMS int64) error {
	return nil
}
