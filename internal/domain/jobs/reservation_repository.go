package jobs

import (
	"context"

	"github.com/google/uuid"
)

// ReservationRepository persists live concurrency reservations. The admission
// path reads and mutates reservations only inside the owning user's critical
// section, so CountByUser followed by Save cannot race past the cap.
type ReservationRepository interface {
	// FindByUserAndJob returns the live reservation for (userID, jobID).
	// Returns shared.ErrNotFound when none is live.
	FindByUserAndJob(ctx context.Context, userID, jobID uuid.UUID) (*Reservation, error)

	// FindByUser returns all live reservations for a user, oldest first.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Reservation, error)

	// CountByUser returns the number of live reservations for a user.
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Save stores a newly granted reservation.
	Save(ctx context.Context, reservation *Reservation) error

	// Delete destroys a reservation on release. Returns shared.ErrNotFound
	// when no live reservation exists, so double-release is detectable.
	Delete(ctx context.Context, userID, jobID uuid.UUID) error
}
