package admission

import (
	"time"

	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/domain/jobs"
)

// DenialReason enumerates why an admission request was denied. Denials are
// ordinary outcomes the caller branches on, not faults.
type DenialReason string

const (
	// ReasonSubscriptionInactive covers canceled subscriptions and past-due
	// subscriptions whose grace window has lapsed
	ReasonSubscriptionInactive DenialReason = "SUBSCRIPTION_INACTIVE"

	// ReasonQuotaExceeded means the period quota is exhausted
	ReasonQuotaExceeded DenialReason = "QUOTA_EXCEEDED"

	// ReasonConcurrencyLimitExceeded means all concurrency slots are in use
	ReasonConcurrencyLimitExceeded DenialReason = "CONCURRENCY_LIMIT_EXCEEDED"
)

// String returns the string representation of DenialReason
func (r DenialReason) String() string {
	return string(r)
}

// Decision is the outcome of one admission request. It is a value object,
// never persisted. When Granted is true for a job-class operation, the caller
// holds Reservation and must release it exactly once on completion or
// cancellation.
type Decision struct {
	Granted     bool
	Reason      DenialReason
	Reservation *jobs.Reservation
	Plan        catalog.PlanID
	Remaining   int64
	PeriodEnd   time.Time
}

// granted builds a successful decision
func granted(plan catalog.PlanID, reservation *jobs.Reservation, remaining int64, periodEnd time.Time) *Decision {
	return &Decision{
		Granted:     true,
		Reservation: reservation,
		Plan:        plan,
		Remaining:   remaining,
		PeriodEnd:   periodEnd,
	}
}

// denied builds a denial decision
func denied(reason DenialReason, plan catalog.PlanID) *Decision {
	return &Decision{
		Granted: false,
		Reason:  reason,
		Plan:    plan,
	}
}
