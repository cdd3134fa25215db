// Package notify defines the fire-and-forget event publisher. Publish
// failures are logged by the caller and never block the primary operation.
package notify

import "context"

// Event is one published notification
type Event struct {
	Name    string      `json:"name"`
	Payload interface{} `json:"payload,omitempty"`
}

// Notifier publishes events to interested subscribers
type Notifier interface {
	Publish(ctx context.Context, topic, eventName string, payload interface{}) error
}

// Noop discards every event, used when no broker is configured
type Noop struct{}

func (Noop) Publish(context.Context, string, string, interface{}) error {
	return nil
}
