package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/billing"
	"github.com/leadscout/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// UsageCounterModel is the GORM model for per-period usage counters
type UsageCounterModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_usage_counters_user_period,priority:1"`
	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_usage_counters_user_period,priority:2"`
	PeriodEnd   time.Time `gorm:"not null"`
	Consumed    int64     `gorm:"not null;default:0"`
	Version     int       `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (UsageCounterModel) TableName() string {
	return "usage_counters"
}

// ToEntity converts the model to a domain entity
func (m *UsageCounterModel) ToEntity() *billing.UsageCounter {
	return &billing.UsageCounter{
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
		PeriodStart: m.PeriodStart,
		PeriodEnd:   m.PeriodEnd,
		Consumed:    m.Consumed,
	}
}

// UsageCounterModelFromEntity creates a model from a domain entity
func UsageCounterModelFromEntity(e *billing.UsageCounter) *UsageCounterModel {
	return &UsageCounterModel{
		ID:          e.ID,
		UserID:      e.UserID,
		PeriodStart: e.PeriodStart,
		PeriodEnd:   e.PeriodEnd,
		Consumed:    e.Consumed,
		Version:     e.Version,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// UsageCounterRepository implements the billing.UsageCounterRepository interface
type UsageCounterRepository struct {
	db *gorm.DB
}

// NewUsageCounterRepository creates a new usage counter repository
func NewUsageCounterRepository(db *gorm.DB) *UsageCounterRepository {
	return &UsageCounterRepository{db: db}
}

// FindCurrent retrieves the user's most recent period counter
func (r *UsageCounterRepository) FindCurrent(ctx context.Context, userID uuid.UUID) (*billing.UsageCounter, error) {
	var model UsageCounterModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period_start DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByPeriod retrieves the counter for a specific period start
func (r *UsageCounterRepository) FindByPeriod(ctx context.Context, userID uuid.UUID, periodStart time.Time) (*billing.UsageCounter, error) {
	var model UsageCounterModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND period_start = ?", userID, periodStart).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindHistory retrieves past period counters, newest first
func (r *UsageCounterRepository) FindHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*billing.UsageCounter, error) {
	var models []UsageCounterModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period_start DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	counters := make([]*billing.UsageCounter, len(models))
	for i := range models {
		counters[i] = models[i].ToEntity()
	}
	return counters, nil
}

// Save creates or updates a counter
func (r *UsageCounterRepository) Save(ctx context.Context, counter *billing.UsageCounter) error {
	model := UsageCounterModelFromEntity(counter)
	return r.db.WithContext(ctx).Save(model).Error
}
