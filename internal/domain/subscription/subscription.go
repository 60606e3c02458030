package subscription

import (
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/domain/shared"
)

// Status represents the lifecycle state of a subscription
type Status string

const (
	// StatusTrialing is the initial evaluation state
	StatusTrialing Status = "trialing"

	// StatusActive is a paid-up subscription
	StatusActive Status = "active"

	// StatusPastDue is an active subscription whose last payment failed.
	// It retains the prior plan's limits for a bounded grace window.
	StatusPastDue Status = "past_due"

	// StatusCanceled is a terminal state
	StatusCanceled Status = "canceled"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue, StatusCanceled:
		return true
	}
	return false
}

// EventType identifies an external plan-change event. Events originate from
// the payment-webhook collaborator, which verifies authenticity before this
// core ever sees them.
type EventType string

const (
	// EventPaymentSucceeded confirms payment: trial conversion, renewal, or
	// past-due recovery.
	EventPaymentSucceeded EventType = "payment_succeeded"

	// EventPaymentFailed marks the subscription past due.
	EventPaymentFailed EventType = "payment_failed"

	// EventCancellationRequested cancels the subscription.
	EventCancellationRequested EventType = "cancellation_requested"

	// EventPlanChanged switches the subscription to a different tier.
	EventPlanChanged EventType = "plan_changed"
)

// String returns the string representation of EventType
func (e EventType) String() string {
	return string(e)
}

// IsValid returns true if the event type is known
func (e EventType) IsValid() bool {
	switch e {
	case EventPaymentSucceeded, EventPaymentFailed, EventCancellationRequested, EventPlanChanged:
		return true
	}
	return false
}

// Subscription ties one user to one plan tier. It is mutated only through
// transition application, which the tracker service serializes per user.
type Subscription struct {
	shared.UserAggregateRoot
	Plan         catalog.PlanID
	Status       Status
	EffectiveAt  time.Time
	ExpiresAt    *time.Time
	PastDueSince *time.Time
}

// NewSubscription creates a trialing subscription on the given plan
func NewSubscription(userID uuid.UUID, plan catalog.PlanID, effectiveAt time.Time) (*Subscription, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !plan.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLAN", "Unknown plan: "+plan.String())
	}
	sub := &Subscription{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		Plan:              plan,
		Status:            StatusTrialing,
		EffectiveAt:       effectiveAt,
	}
	sub.AddDomainEvent(NewSubscriptionStartedEvent(sub))
	return sub, nil
}

// Apply applies one external transition event to the subscription.
// Unknown event types are rejected with UNRECOGNIZED_TRANSITION; known events
// that are not legal in the current state return shared.ErrInvalidState.
func (s *Subscription) Apply(event EventType, newPlan catalog.PlanID, at time.Time) error {
	if !event.IsValid() {
		return shared.ErrUnrecognizedTransition
	}

	prevStatus := s.Status
	prevPlan := s.Plan

	switch event {
	case EventPaymentSucceeded:
		switch s.Status {
		case StatusTrialing, StatusActive, StatusPastDue:
			s.Status = StatusActive
			s.PastDueSince = nil
		default:
			return shared.ErrInvalidState
		}

	case EventPaymentFailed:
		switch s.Status {
		case StatusActive:
			since := at
			s.Status = StatusPastDue
			s.PastDueSince = &since
		case StatusPastDue:
			// Repeated failures keep the original grace anchor.
		default:
			return shared.ErrInvalidState
		}

	case EventCancellationRequested:
		switch s.Status {
		case StatusTrialing, StatusActive, StatusPastDue:
			expires := at
			s.Status = StatusCanceled
			s.ExpiresAt = &expires
			s.PastDueSince = nil
		default:
			return shared.ErrInvalidState
		}

	case EventPlanChanged:
		if !newPlan.IsValid() {
			return shared.NewDomainError("INVALID_PLAN", "Unknown plan: "+newPlan.String())
		}
		if s.Status == StatusCanceled {
			return shared.ErrInvalidState
		}
		s.Plan = newPlan
	}

	s.Touch()
	s.IncrementVersion()
	s.AddDomainEvent(NewSubscriptionTransitionedEvent(s, event, prevStatus, prevPlan, at))
	return nil
}

// GracePeriodLapsed reports whether a past-due subscription has exhausted the
// grace window as of now. Always false for other statuses.
func (s *Subscription) GracePeriodLapsed(now time.Time, grace time.Duration) bool {
	if s.Status != StatusPastDue || s.PastDueSince == nil {
		return false
	}
	return !now.Before(s.PastDueSince.Add(grace))
}

// IsActive reports whether the subscription grants any access as of now
func (s *Subscription) IsActive(now time.Time) bool {
	switch s.Status {
	case StatusTrialing, StatusActive, StatusPastDue:
		return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
	}
	return false
}
