package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/shared"
)

// UsageCounter tracks billable operations consumed by one user in one billing
// period. A counter is created lazily on first use in a period and superseded,
// never mutated, once its period has ended; the prior period's counter is
// retained for audit history.
type UsageCounter struct {
	shared.UserAggregateRoot
	PeriodStart time.Time
	PeriodEnd   time.Time
	Consumed    int64
}

// NewUsageCounter creates a fresh counter for the period starting at periodStart
func NewUsageCounter(userID uuid.UUID, periodStart time.Time, periodLength time.Duration) (*UsageCounter, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if periodLength <= 0 {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period length must be positive")
	}
	return &UsageCounter{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		PeriodStart:       periodStart,
		PeriodEnd:         periodStart.Add(periodLength),
		Consumed:          0,
	}, nil
}

// Expired reports whether the counter's period has ended as of now
func (c *UsageCounter) Expired(now time.Time) bool {
	return !now.Before(c.PeriodEnd)
}

// Remaining returns the quota left under the given limit, never negative
func (c *UsageCounter) Remaining(quota int64) int64 {
	if remaining := quota - c.Consumed; remaining > 0 {
		return remaining
	}
	return 0
}

// TryDebit conditionally consumes amount against quota. The check and the
// increment are one step; a counter never records more than the quota.
// Returns false, leaving state unchanged, when the debit would exceed it.
func (c *UsageCounter) TryDebit(amount, quota int64) bool {
	if amount <= 0 {
		return false
	}
	if c.Consumed+amount > quota {
		return false
	}
	c.Consumed += amount
	c.Touch()
	return true
}

// Credit reverses a prior debit of amount, used by the admission saga when a
// metered debit must be compensated after a concurrency denial.
func (c *UsageCounter) Credit(amount int64) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	if amount > c.Consumed {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit exceeds consumed usage")
	}
	c.Consumed -= amount
	c.Touch()
	return nil
}

// NextPeriodStart returns the start of the period containing now, advanced
// from this counter's anchor by whole period lengths.
func (c *UsageCounter) NextPeriodStart(now time.Time, periodLength time.Duration) time.Time {
	start := c.PeriodStart
	for !now.Before(start.Add(periodLength)) {
		start = start.Add(periodLength)
	}
	return start
}
