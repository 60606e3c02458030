package catalog

import (
	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Catalog holds the full set of plan tiers. It is read-only after
// construction and safe for concurrent reads.
type Catalog struct {
	plans map[PlanID]*Plan
}

// NewCatalog builds a catalog from plan definitions. Construction fails fast
// on an empty set, duplicate tiers, or a plan with non-positive limits.
func NewCatalog(plans ...*Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, shared.NewDomainError("EMPTY_CATALOG", "Plan catalog cannot be empty")
	}
	byID := make(map[PlanID]*Plan, len(plans))
	for _, p := range plans {
		if p == nil {
			return nil, shared.NewDomainError("INVALID_PLAN", "Plan cannot be nil")
		}
		if !p.ID.IsValid() {
			return nil, shared.NewDomainError("INVALID_PLAN", "Unknown plan: "+p.ID.String())
		}
		if p.MaxConcurrentJobs <= 0 || p.PeriodQuota <= 0 {
			return nil, shared.NewDomainError("INVALID_LIMIT", "Plan "+p.ID.String()+" has non-positive limits")
		}
		if _, exists := byID[p.ID]; exists {
			return nil, shared.NewDomainError("DUPLICATE_PLAN", "Plan "+p.ID.String()+" is defined twice")
		}
		byID[p.ID] = p
	}
	return &Catalog{plans: byID}, nil
}

// GetPlan resolves a plan tier, returning shared.ErrNotFound for unknown IDs
func (c *Catalog) GetPlan(id PlanID) (*Plan, error) {
	plan, ok := c.plans[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return plan, nil
}

// PlanIDs returns the tiers the catalog was built with
func (c *Catalog) PlanIDs() []PlanID {
	ids := make([]PlanID, 0, len(c.plans))
	for id := range c.plans {
		ids = append(ids, id)
	}
	return ids
}

// DefaultPlans returns the standard tier definitions. The free tier carries
// power-tier limits during the evaluation window; starter and professional
// scale down from there.
func DefaultPlans() []*Plan {
	free, _ := NewPlan(PlanFree, 10, 500, DefaultPeriodLength)
	starter, _ := NewPlan(PlanStarter, 2, 50, DefaultPeriodLength)
	professional, _ := NewPlan(PlanProfessional, 5, 200, DefaultPeriodLength)
	power, _ := NewPlan(PlanPower, 10, 500, DefaultPeriodLength)

	starter.WithMonthlyPrice(decimal.NewFromInt(19))
	professional.WithMonthlyPrice(decimal.NewFromInt(49))
	power.WithMonthlyPrice(decimal.NewFromInt(99))

	return []*Plan{free, starter, professional, power}
}
