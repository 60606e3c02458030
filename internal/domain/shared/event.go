package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate, attributed to the user
// whose account produced it.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	UserID() uuid.UUID
}

// BaseDomainEvent carries the fields every concrete event shares. Embed it
// and set Type to the concrete event name.
type BaseDomainEvent struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggID       uuid.UUID `json:"aggregate_id"`
	AggType     string    `json:"aggregate_type"`
	UserIDValue uuid.UUID `json:"user_id"`
}

// EventID returns the identifier assigned at creation.
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType names the concrete event.
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt reports when the event was recorded.
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID identifies the aggregate that emitted the event.
func (e *BaseDomainEvent) AggregateID() uuid.UUID {
	return e.AggID
}

// AggregateType names the emitting aggregate kind.
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// UserID attributes the event to an account.
func (e *BaseDomainEvent) UserID() uuid.UUID {
	return e.UserIDValue
}

// NewBaseDomainEvent stamps a fresh event with a random ID and the current
// time.
func NewBaseDomainEvent(eventType string, aggID uuid.UUID, aggType string, userID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:          uuid.New(),
		Type:        eventType,
		Timestamp:   time.Now(),
		AggID:       aggID,
		AggType:     aggType,
		UserIDValue: userID,
	}
}
