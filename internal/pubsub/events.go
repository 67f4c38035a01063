// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// EventType names the kind of event being published. Concrete values are
// defined by the publishing packages (see registry/application).
type EventType string

// Event represents a published event with a typed payload.
// ID is a uuid assigned at publish time so durable consumers can
// de-duplicate across restarts.
type Event[T any] struct {
	ID        string
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload. The stamped
// event is returned so callers can hand it to durable sinks.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) Event[T]
}
