package application

import (
	"context"

	"github.com/driftware/vaultindex/internal/pubsub"
	"github.com/driftware/vaultindex/internal/registry/domain"
)

// Event types published by the registry service.
const (
	// EventVaultCreated is published once per successful NewVault call.
	// RegisterVault publishes nothing; only factory deployments notify.
	EventVaultCreated pubsub.EventType = "vault.created"

	// EventStrategyAdded is published once per successful NewStrategy call.
	EventStrategyAdded pubsub.EventType = "strategy.added"
)

// EventPayload is the notification payload for registry events, carrying
// the registered address, its asset, and the API version string the
// collaborator reported.
type EventPayload struct {
	Address    domain.Address
	Asset      domain.Address
	APIVersion string
}

// Event is a registry notification event.
type Event = pubsub.Event[EventPayload]

// EventLog is the durable sink for registry events, so off-process
// consumers can tail notifications across restarts.
type EventLog interface {
	// Append persists an event. The service calls Append after the
	// registration has committed; a failed append is logged but does not
	// fail the registration.
	Append(ctx context.Context, event Event) error

	// List returns the most recent events, oldest first, up to limit.
	// limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]Event, error)

	// ListSince returns the events appended after the event with the
	// given id, oldest first. An empty or unknown id returns the whole
	// log. Followers poll this to tail appends from other processes.
	ListSince(ctx context.Context, sinceID string) ([]Event, error)
}
