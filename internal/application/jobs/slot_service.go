package jobs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/domain/jobs"
	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/leadscout/backend/internal/infrastructure/lock"
	"go.uber.org/zap"
)

// AcquireResult is the outcome of a slot acquisition attempt. A full pool is
// a normal outcome, not an error: callers branch on Granted.
type AcquireResult struct {
	Granted     bool
	Reservation *jobs.Reservation
	Live        int64
}

// SlotService tracks in-flight background jobs per user and admits new job
// starts against the plan's concurrency cap. Admission is a strict capacity
// check, first come first served at the critical section; denial is
// immediate, never queued.
type SlotService struct {
	reservationRepo jobs.ReservationRepository
	locks           *lock.KeyedMutex
	logger          *zap.Logger
}

// NewSlotService creates a new SlotService
func NewSlotService(reservationRepo jobs.ReservationRepository, locks *lock.KeyedMutex, logger *zap.Logger) *SlotService {
	return &SlotService{
		reservationRepo: reservationRepo,
		locks:           locks,
		logger:          logger,
	}
}

// TryAcquire reserves one concurrency slot for (userID, jobID). The live
// count and the insert happen inside the user's critical section, so the
// live reservation count can never exceed the plan cap. Re-acquiring a live
// jobID is a caller contract violation, not a silent no-op.
func (s *SlotService) TryAcquire(ctx context.Context, userID uuid.UUID, plan *catalog.Plan, jobID uuid.UUID) (*AcquireResult, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if plan == nil {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan cannot be nil")
	}
	if jobID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_JOB", "Job ID cannot be empty")
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.reservationRepo.FindByUserAndJob(ctx, userID, jobID); err == nil {
		s.logger.Warn("Duplicate reservation attempt",
			zap.String("user_id", userID.String()),
			zap.String("job_id", jobID.String()))
		return nil, shared.ErrDuplicateReservation
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	live, err := s.reservationRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if live >= int64(plan.MaxConcurrentJobs) {
		s.logger.Debug("Slot denied, concurrency cap reached",
			zap.String("user_id", userID.String()),
			zap.Int64("live", live),
			zap.Int("cap", plan.MaxConcurrentJobs))
		return &AcquireResult{Granted: false, Live: live}, nil
	}

	reservation, err := jobs.NewReservation(userID, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.reservationRepo.Save(ctx, reservation); err != nil {
		s.logger.Error("Failed to persist reservation",
			zap.String("user_id", userID.String()),
			zap.String("job_id", jobID.String()),
			zap.Error(err))
		return nil, err
	}

	return &AcquireResult{
		Granted:     true,
		Reservation: reservation,
		Live:        live + 1,
	}, nil
}

// Release destroys the reservation for (userID, jobID). The first release
// succeeds; any further release returns shared.ErrNotFound so callers can
// detect double-release bugs rather than have them swallowed.
func (s *SlotService) Release(ctx context.Context, userID, jobID uuid.UUID) error {
	if userID == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if jobID == uuid.Nil {
		return shared.NewDomainError("INVALID_JOB", "Job ID cannot be empty")
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.reservationRepo.Delete(ctx, userID, jobID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Release without live reservation",
				zap.String("user_id", userID.String()),
				zap.String("job_id", jobID.String()))
		}
		return err
	}
	return nil
}

// LiveCount returns the number of in-flight jobs for a user. This diagnostic
// read does not take the critical section; the admission path counts under
// the lock in TryAcquire.
func (s *SlotService) LiveCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	return s.reservationRepo.CountByUser(ctx, userID)
}

// LiveReservations returns the user's in-flight reservations, oldest first
func (s *SlotService) LiveReservations(ctx context.Context, userID uuid.UUID) ([]*jobs.Reservation, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	return s.reservationRepo.FindByUser(ctx, userID)
}
