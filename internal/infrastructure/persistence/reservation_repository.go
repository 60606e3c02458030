package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/jobs"
	"github.com/leadscout/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ReservationModel is the GORM model for live concurrency reservations
type ReservationModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_reservations_user_job,priority:1"`
	JobID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reservations_user_job,priority:2"`
	AcquiredAt time.Time `gorm:"not null"`
	Version    int       `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (ReservationModel) TableName() string {
	return "concurrency_reservations"
}

// ToEntity converts the model to a domain entity
func (m *ReservationModel) ToEntity() *jobs.Reservation {
	return &jobs.Reservation{
		UserAggregateRoot: shared.UserAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			UserID: m.UserID,
		},
		JobID:      m.JobID,
		AcquiredAt: m.AcquiredAt,
	}
}

// ReservationModelFromEntity creates a model from a domain entity
func ReservationModelFromEntity(e *jobs.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:         e.ID,
		UserID:     e.UserID,
		JobID:      e.JobID,
		AcquiredAt: e.AcquiredAt,
		Version:    e.Version,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// ReservationRepository implements the jobs.ReservationRepository interface
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// FindByUserAndJob retrieves the live reservation for (userID, jobID)
func (r *ReservationRepository) FindByUserAndJob(ctx context.Context, userID, jobID uuid.UUID) (*jobs.Reservation, error) {
	var model ReservationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByUser retrieves all live reservations for a user, oldest first
func (r *ReservationRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*jobs.Reservation, error) {
	var models []ReservationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("acquired_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	reservations := make([]*jobs.Reservation, len(models))
	for i := range models {
		reservations[i] = models[i].ToEntity()
	}
	return reservations, nil
}

// CountByUser returns the number of live reservations for a user
func (r *ReservationRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// Save stores a newly granted reservation
func (r *ReservationRepository) Save(ctx context.Context, reservation *jobs.Reservation) error {
	model := ReservationModelFromEntity(reservation)
	return r.db.WithContext(ctx).Create(model).Error
}

// Delete destroys a reservation on release. Reports shared.ErrNotFound when
// no live reservation matched, so the caller can surface double-release.
func (r *ReservationRepository) Delete(ctx context.Context, userID, jobID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Delete(&ReservationModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
