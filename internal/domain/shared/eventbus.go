package shared

import "context"

// EventHandler consumes domain events delivered by an EventBus.
type EventHandler interface {
	// Handle processes a single domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types this handler subscribes to.
	// An empty slice subscribes the handler to every event.
	EventTypes() []string
}

// EventPublisher is the write side of the event bus, used by application
// services to emit events without knowing who listens.
type EventPublisher interface {
	// Publish delivers one or more domain events
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus combines publishing with subscription management and lifecycle.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler, optionally overriding its event types
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes a handler from all event types
	Unsubscribe(handler EventHandler)
	// Start begins delivering events
	Start(ctx context.Context) error
	// Stop halts delivery and drains in-flight handlers
	Stop(ctx context.Context) error
}
