package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
)

// LogNotifier writes pass outcomes to the structured log. Rendering
// and delivery live outside this service, so the log line is the
// integration point for local and test deployments.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(ctx context.Context, event domain.Event) error {
	n.logger.Info().
		Str("event_type", string(event.Type)).
		Str("user_id", event.UserID).
		Time("occurred_at", event.OccurredAt).
		Interface("payload", event.Payload).
		Msg("sync event")

	return nil
}

// RedisNotifier publishes pass outcomes to a Redis channel for the
// downstream notification worker.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisNotifier creates a new RedisNotifier. channel defaults to
// "sync.events" when empty.
func NewRedisNotifier(client *redis.Client, channel string, logger zerolog.Logger) *RedisNotifier {
	if channel == "" {
		channel = "sync.events"
	}
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

type wireEvent struct {
	Type       string         `json:"type"`
	UserID     string         `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Notify publishes the event as JSON. A publish failure is returned to
// the caller, which treats delivery as best effort.
func (n *RedisNotifier) Notify(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(wireEvent{
		Type:       string(event.Type),
		UserID:     event.UserID,
		OccurredAt: event.OccurredAt,
		Payload:    event.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	n.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("user_id", event.UserID).
		Msg("event published")

	return nil
}
