package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/billing"
	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/leadscout/backend/internal/infrastructure/lock"
	"go.uber.org/zap"
)

// DebitResult is the outcome of a conditional debit. Quota exhaustion is a
// normal outcome, not an error: callers branch on Allowed.
type DebitResult struct {
	Allowed   bool
	Consumed  int64
	Remaining int64
	PeriodEnd time.Time
}

// UsageSnapshot is a read-only view of the current period's consumption
type UsageSnapshot struct {
	Consumed  int64
	Limit     int64
	PeriodEnd time.Time
}

// LedgerService is the usage ledger: durable per-user, per-period counters
// for metered operations. Every mutation for a user runs inside that user's
// critical section, so concurrent debits cannot race past the plan quota.
type LedgerService struct {
	counterRepo billing.UsageCounterRepository
	locks       *lock.KeyedMutex
	logger      *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(counterRepo billing.UsageCounterRepository, locks *lock.KeyedMutex, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		counterRepo: counterRepo,
		locks:       locks,
		logger:      logger,
	}
}

// TryDebit atomically consumes amount from the user's current-period counter,
// creating or rolling the counter first when needed. The check and the
// increment are one critical section per user; a failed debit mutates nothing.
func (s *LedgerService) TryDebit(ctx context.Context, userID uuid.UUID, plan *catalog.Plan, amount int64) (*DebitResult, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if plan == nil {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan cannot be nil")
	}
	if amount <= 0 {
		amount = 1
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	counter, err := s.currentCounter(ctx, userID, plan, time.Now())
	if err != nil {
		return nil, err
	}

	allowed := counter.TryDebit(amount, plan.PeriodQuota)
	if allowed {
		if err := s.counterRepo.Save(ctx, counter); err != nil {
			s.logger.Error("Failed to persist usage debit",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			return nil, err
		}
	} else {
		s.logger.Debug("Debit denied, quota exhausted",
			zap.String("user_id", userID.String()),
			zap.Int64("consumed", counter.Consumed),
			zap.Int64("quota", plan.PeriodQuota))
	}

	return &DebitResult{
		Allowed:   allowed,
		Consumed:  counter.Consumed,
		Remaining: counter.Remaining(plan.PeriodQuota),
		PeriodEnd: counter.PeriodEnd,
	}, nil
}

// Credit reverses a prior debit of amount in the same period's counter. It is
// the compensating half of the admission saga and runs under the same
// per-user critical section as TryDebit, so interleaved debits cannot be
// under- or over-credited.
func (s *LedgerService) Credit(ctx context.Context, userID uuid.UUID, plan *catalog.Plan, amount int64) error {
	if userID == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if amount <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	counter, err := s.counterRepo.FindCurrent(ctx, userID)
	if err != nil {
		return err
	}
	if counter.Expired(time.Now()) {
		// The debited period already ended; the retained counter is
		// immutable history and must not be corrected after the fact.
		return shared.NewDomainError("PERIOD_ENDED", "Cannot credit a closed billing period")
	}

	if err := counter.Credit(amount); err != nil {
		return err
	}
	if err := s.counterRepo.Save(ctx, counter); err != nil {
		s.logger.Error("Failed to persist usage credit",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return err
	}
	return nil
}

// CurrentUsage returns a snapshot of the user's current-period consumption.
// A rolled-over or missing counter reads as zero; nothing is persisted until
// the first debit of the new period.
func (s *LedgerService) CurrentUsage(ctx context.Context, userID uuid.UUID, plan *catalog.Plan) (*UsageSnapshot, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if plan == nil {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan cannot be nil")
	}

	now := time.Now()
	counter, err := s.counterRepo.FindCurrent(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &UsageSnapshot{
				Consumed:  0,
				Limit:     plan.PeriodQuota,
				PeriodEnd: now.Add(plan.PeriodLength),
			}, nil
		}
		return nil, err
	}

	if counter.Expired(now) {
		start := counter.NextPeriodStart(now, plan.PeriodLength)
		return &UsageSnapshot{
			Consumed:  0,
			Limit:     plan.PeriodQuota,
			PeriodEnd: start.Add(plan.PeriodLength),
		}, nil
	}

	return &UsageSnapshot{
		Consumed:  counter.Consumed,
		Limit:     plan.PeriodQuota,
		PeriodEnd: counter.PeriodEnd,
	}, nil
}

// History returns past period counters, newest first, for audit surfaces
func (s *LedgerService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*billing.UsageCounter, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if limit <= 0 {
		limit = 12
	}
	return s.counterRepo.FindHistory(ctx, userID, limit)
}

// currentCounter loads the user's counter for the period containing now,
// rolling over to a fresh counter when the stored one has expired. The old
// counter is retained untouched.
func (s *LedgerService) currentCounter(ctx context.Context, userID uuid.UUID, plan *catalog.Plan, now time.Time) (*billing.UsageCounter, error) {
	counter, err := s.counterRepo.FindCurrent(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return billing.NewUsageCounter(userID, now, plan.PeriodLength)
		}
		return nil, err
	}

	if counter.Expired(now) {
		start := counter.NextPeriodStart(now, plan.PeriodLength)
		s.logger.Debug("Usage period rolled over",
			zap.String("user_id", userID.String()),
			zap.Time("old_period_start", counter.PeriodStart),
			zap.Time("new_period_start", start))
		return billing.NewUsageCounter(userID, start, plan.PeriodLength)
	}

	return counter, nil
}
