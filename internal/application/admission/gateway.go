package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
	appbilling "github.com/leadscout/backend/internal/application/billing"
	appjobs "github.com/leadscout/backend/internal/application/jobs"
	appsubscription "github.com/leadscout/backend/internal/application/subscription"
	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UsageStatus is the read-only view served to status surfaces: what the user
// has consumed, the plan limits in force, and live job occupancy.
type UsageStatus struct {
	Plan              catalog.PlanID
	Status            string
	Consumed          int64
	Limit             int64
	PeriodEnd         time.Time
	LiveJobs          int64
	MaxConcurrentJobs int
}

// Gateway is the single entry point for admission decisions. It composes the
// usage ledger and the slot manager into one all-or-nothing decision: a job
// denied for concurrency must not consume quota, so the metered debit is
// compensated when slot acquisition fails.
type Gateway struct {
	tracker *appsubscription.TrackerService
	ledger  *appbilling.LedgerService
	slots   *appjobs.SlotService
	logger  *zap.Logger
}

// NewGateway creates a new admission Gateway
func NewGateway(
	tracker *appsubscription.TrackerService,
	ledger *appbilling.LedgerService,
	slots *appjobs.SlotService,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		tracker: tracker,
		ledger:  ledger,
		slots:   slots,
		logger:  logger,
	}
}

// Admit decides whether the user may start the given operation now.
// Job-class operations require a jobID; on grant the caller must release the
// returned reservation exactly once. Denials (inactive subscription,
// exhausted quota, full slot pool) are ordinary decisions; errors cover
// contract violations, busy critical sections, and storage failures.
func (g *Gateway) Admit(ctx context.Context, userID uuid.UUID, kind catalog.OperationKind, jobID uuid.UUID) (*Decision, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_OPERATION", "Unknown operation kind: "+kind.String())
	}
	if kind.IsJobClass() && jobID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_JOB", "Job-class operations require a job ID")
	}

	// Plan resolution happens at decision time. A downgrade observed here
	// affects this and later decisions only; live reservations stay valid.
	resolution, err := g.tracker.EffectivePlan(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}
	if !resolution.Active || resolution.Plan == nil || resolution.Plan.IsZeroCapability() {
		g.logger.Debug("Admission denied, subscription inactive",
			zap.String("user_id", userID.String()),
			zap.String("status", resolution.Status.String()))
		return denied(ReasonSubscriptionInactive, planIDOf(resolution)), nil
	}
	plan := resolution.Plan

	const amount = 1
	debit, err := g.ledger.TryDebit(ctx, userID, plan, amount)
	if err != nil {
		return nil, err
	}
	if !debit.Allowed {
		return denied(ReasonQuotaExceeded, plan.ID), nil
	}

	if !kind.IsJobClass() {
		return granted(plan.ID, nil, debit.Remaining, debit.PeriodEnd), nil
	}

	acquire, err := g.slots.TryAcquire(ctx, userID, plan, jobID)
	if err != nil {
		// Failed acquisitions of any shape must not consume quota.
		g.compensate(ctx, userID, plan, amount)
		return nil, err
	}
	if !acquire.Granted {
		g.compensate(ctx, userID, plan, amount)
		return denied(ReasonConcurrencyLimitExceeded, plan.ID), nil
	}

	return granted(plan.ID, acquire.Reservation, debit.Remaining, debit.PeriodEnd), nil
}

// Release returns a previously granted concurrency slot and records the
// consumed unit as final. The first release succeeds; later releases return
// shared.ErrNotFound so double-release bugs surface.
func (g *Gateway) Release(ctx context.Context, userID, jobID uuid.UUID) error {
	if userID == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if jobID == uuid.Nil {
		return shared.NewDomainError("INVALID_JOB", "Job ID cannot be empty")
	}
	return g.slots.Release(ctx, userID, jobID)
}

// CurrentUsage assembles the status view for one user
func (g *Gateway) CurrentUsage(ctx context.Context, userID uuid.UUID) (*UsageStatus, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}

	resolution, err := g.tracker.EffectivePlan(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}

	status := &UsageStatus{
		Plan:   planIDOf(resolution),
		Status: resolution.Status.String(),
	}
	if resolution.Plan == nil {
		return status, nil
	}

	snapshot, err := g.ledger.CurrentUsage(ctx, userID, resolution.Plan)
	if err != nil {
		return nil, err
	}
	live, err := g.slots.LiveCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	status.Consumed = snapshot.Consumed
	status.Limit = snapshot.Limit
	status.PeriodEnd = snapshot.PeriodEnd
	status.LiveJobs = live
	status.MaxConcurrentJobs = resolution.Plan.MaxConcurrentJobs
	return status, nil
}

// LiveCount returns the user's in-flight job count
func (g *Gateway) LiveCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return g.slots.LiveCount(ctx, userID)
}

// compensate credits back a debit whose admission sequence did not complete.
// A failed compensation is loud: it means a unit of quota was burned without
// a running job, which operators need to see.
func (g *Gateway) compensate(ctx context.Context, userID uuid.UUID, plan *catalog.Plan, amount int64) {
	if err := g.ledger.Credit(ctx, userID, plan, amount); err != nil {
		g.logger.Error("Compensating credit failed, quota unit lost",
			zap.String("user_id", userID.String()),
			zap.Int64("amount", amount),
			zap.Error(err))
	}
}

func planIDOf(r *appsubscription.PlanResolution) catalog.PlanID {
	if r.Plan == nil {
		return ""
	}
	return r.Plan.ID
}
