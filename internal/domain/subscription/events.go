package subscription

import (
	"time"

	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeSubscription = "Subscription"

// Event type constants
const (
	EventTypeSubscriptionStarted      = "SubscriptionStarted"
	EventTypeSubscriptionTransitioned = "SubscriptionTransitioned"
)

// SubscriptionStartedEvent is published when a subscription is created
type SubscriptionStartedEvent struct {
	shared.BaseDomainEvent
	Plan   catalog.PlanID `json:"plan"`
	Status Status         `json:"status"`
}

// NewSubscriptionStartedEvent creates a new SubscriptionStartedEvent
func NewSubscriptionStartedEvent(sub *Subscription) *SubscriptionStartedEvent {
	return &SubscriptionStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionStarted, sub.ID, AggregateTypeSubscription, sub.UserID),
		Plan:            sub.Plan,
		Status:          sub.Status,
	}
}

// SubscriptionTransitionedEvent is published when an external plan-change
// event is applied
type SubscriptionTransitionedEvent struct {
	shared.BaseDomainEvent
	Event      EventType      `json:"event"`
	OldStatus  Status         `json:"old_status"`
	NewStatus  Status         `json:"new_status"`
	OldPlan    catalog.PlanID `json:"old_plan"`
	NewPlan    catalog.PlanID `json:"new_plan"`
	AppliedFor time.Time      `json:"applied_for"`
}

// NewSubscriptionTransitionedEvent creates a new SubscriptionTransitionedEvent
func NewSubscriptionTransitionedEvent(sub *Subscription, event EventType, oldStatus Status, oldPlan catalog.PlanID, at time.Time) *SubscriptionTransitionedEvent {
	return &SubscriptionTransitionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionTransitioned, sub.ID, AggregateTypeSubscription, sub.UserID),
		Event:           event,
		OldStatus:       oldStatus,
		NewStatus:       sub.Status,
		OldPlan:         oldPlan,
		NewPlan:         sub.Plan,
		AppliedFor:      at,
	}
}
