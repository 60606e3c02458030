package catalog

import (
	"time"

	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PlanID identifies a subscription plan tier. The set of tiers is closed;
// unknown values are rejected at the boundary rather than coerced.
type PlanID string

const (
	// PlanFree is the time-limited evaluation tier
	PlanFree PlanID = "free"

	// PlanStarter is the entry paid tier
	PlanStarter PlanID = "starter"

	// PlanProfessional is the mid paid tier
	PlanProfessional PlanID = "professional"

	// PlanPower is the top paid tier
	PlanPower PlanID = "power"

	// PlanNone is the zero-capability plan a past-due subscription degrades to
	// once its grace window lapses. It admits nothing.
	PlanNone PlanID = "none"
)

// String returns the string representation of PlanID
func (p PlanID) String() string {
	return string(p)
}

// IsValid returns true if the plan ID names a subscribable tier
func (p PlanID) IsValid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanProfessional, PlanPower:
		return true
	}
	return false
}

// ParsePlanID validates an external plan identifier
func ParsePlanID(s string) (PlanID, error) {
	p := PlanID(s)
	if !p.IsValid() {
		return "", shared.NewDomainError("INVALID_PLAN", "Unknown plan: "+s)
	}
	return p, nil
}

// Plan defines the limits of one subscription tier. Plans are immutable once
// loaded; the Catalog owns all Plan instances for the process lifetime.
type Plan struct {
	ID                PlanID
	MaxConcurrentJobs int             // Hard cap on concurrently running keyword searches
	PeriodQuota       int64           // Billable operations per billing period
	PeriodLength      time.Duration   // Rolling billing window, typically 30 days
	MonthlyPrice      decimal.Decimal // Display price, surfaced on the usage endpoint
}

// DefaultPeriodLength is the rolling billing window used when a plan does not
// override it.
const DefaultPeriodLength = 30 * 24 * time.Hour

// NewPlan creates a validated plan definition
func NewPlan(id PlanID, maxConcurrentJobs int, periodQuota int64, periodLength time.Duration) (*Plan, error) {
	if !id.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLAN", "Unknown plan: "+id.String())
	}
	if maxConcurrentJobs <= 0 {
		return nil, shared.NewDomainError("INVALID_LIMIT", "Max concurrent jobs must be positive")
	}
	if periodQuota <= 0 {
		return nil, shared.NewDomainError("INVALID_LIMIT", "Period quota must be positive")
	}
	if periodLength <= 0 {
		periodLength = DefaultPeriodLength
	}
	return &Plan{
		ID:                id,
		MaxConcurrentJobs: maxConcurrentJobs,
		PeriodQuota:       periodQuota,
		PeriodLength:      periodLength,
	}, nil
}

// WithMonthlyPrice sets the display price
func (p *Plan) WithMonthlyPrice(price decimal.Decimal) *Plan {
	p.MonthlyPrice = price
	return p
}

// IsZeroCapability reports whether the plan admits no operations at all
func (p *Plan) IsZeroCapability() bool {
	return p.MaxConcurrentJobs == 0 && p.PeriodQuota == 0
}

// ZeroCapabilityPlan returns the plan a lapsed past-due subscription is
// evaluated against until the subscription is resolved.
func ZeroCapabilityPlan() *Plan {
	return &Plan{
		ID:                PlanNone,
		MaxConcurrentJobs: 0,
		PeriodQuota:       0,
		PeriodLength:      DefaultPeriodLength,
	}
}
