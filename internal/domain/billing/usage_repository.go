package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UsageCounterRepository persists per-user, per-period usage counters.
// Implementations must make Save durable before an admission decision that
// depends on it is returned as granted.
type UsageCounterRepository interface {
	// FindCurrent returns the most recent counter for the user, which may
	// belong to an already-ended period. Returns shared.ErrNotFound when the
	// user has no counter yet.
	FindCurrent(ctx context.Context, userID uuid.UUID) (*UsageCounter, error)

	// FindByPeriod returns the counter anchored at periodStart.
	FindByPeriod(ctx context.Context, userID uuid.UUID, periodStart time.Time) (*UsageCounter, error)

	// FindHistory returns past counters, newest first.
	FindHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*UsageCounter, error)

	// Save creates or updates a counter.
	Save(ctx context.Context, counter *UsageCounter) error
}
