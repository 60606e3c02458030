package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists subscriptions. Each user has at most one subscription
// record; transition application serializes writes per user above this layer.
type Repository interface {
	// FindByUser returns the user's subscription.
	// Returns shared.ErrNotFound when the user has none.
	FindByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// Save creates or updates a subscription.
	Save(ctx context.Context, sub *Subscription) error

	// SaveWithLock persists an updated subscription only when the stored
	// row still carries the version the caller loaded. A concurrent writer
	// having bumped it surfaces as shared.ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, sub *Subscription) error
}
