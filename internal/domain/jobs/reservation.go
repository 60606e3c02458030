package jobs

import (
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/shared"
)

// Reservation is one live claim on a user's concurrency slots, held from job
// start until the job completes or is cancelled. Its lifecycle is strictly
// grant then exactly one release; the slot service enforces that.
type Reservation struct {
	shared.UserAggregateRoot
	JobID      uuid.UUID
	AcquiredAt time.Time
}

// NewReservation creates a reservation for the given job
func NewReservation(userID, jobID uuid.UUID) (*Reservation, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if jobID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_JOB", "Job ID cannot be empty")
	}
	return &Reservation{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		JobID:             jobID,
		AcquiredAt:        time.Now(),
	}, nil
}

// Age returns how long the reservation has been held
func (r *Reservation) Age(now time.Time) time.Duration {
	return now.Sub(r.AcquiredAt)
}
