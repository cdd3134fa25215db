package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis publishes events over Redis pub/sub
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed notifier sharing the given client
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Publish(ctx context.Context, topic, eventName string, payload interface{}) error {
	message, err := json.Marshal(Event{Name: eventName, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := r.client.Publish(ctx, topic, message).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	return nil
}
