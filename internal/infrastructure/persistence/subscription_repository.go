package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/leadscout/backend/internal/domain/subscription"
	"gorm.io/gorm"
)

// SubscriptionModel is the GORM model for subscriptions
type SubscriptionModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	Plan         string     `gorm:"type:varchar(50);not null"`
	Status       string     `gorm:"type:varchar(20);not null"`
	EffectiveAt  time.Time  `gorm:"not null"`
	ExpiresAt    *time.Time `gorm:""`
	PastDueSince *time.Time `gorm:""`
	Version      int        `gorm:"not null;default:1"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToEntity converts the model to a domain entity
func (m *SubscriptionModel) ToEntity() *subscription.Subscription {
	return &subscription.Subscription{
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
		Plan:         catalog.PlanID(m.Plan),
		Status:       subscription.Status(m.Status),
		EffectiveAt:  m.EffectiveAt,
		ExpiresAt:    m.ExpiresAt,
		PastDueSince: m.PastDueSince,
	}
}

// SubscriptionModelFromEntity creates a model from a domain entity
func SubscriptionModelFromEntity(e *subscription.Subscription) *SubscriptionModel {
	return &SubscriptionModel{
		ID:           e.ID,
		UserID:       e.UserID,
		Plan:         e.Plan.String(),
		Status:       e.Status.String(),
		EffectiveAt:  e.EffectiveAt,
		ExpiresAt:    e.ExpiresAt,
		PastDueSince: e.PastDueSince,
		Version:      e.Version,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// SubscriptionRepository implements the subscription.Repository interface
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// FindByUser retrieves the user's subscription
func (r *SubscriptionRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	var model SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Save creates or updates a subscription
func (r *SubscriptionRepository) Save(ctx context.Context, sub *subscription.Subscription) error {
	model := SubscriptionModelFromEntity(sub)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock guards the update on the version the caller loaded.
// Apply bumps the aggregate's version, so the row must still hold the
// previous one; zero rows updated means another writer got there first.
// Select("*") forces zero-value columns through so that a recovery
// clearing PastDueSince persists the nil.
func (r *SubscriptionRepository) SaveWithLock(ctx context.Context, sub *subscription.Subscription) error {
	model := SubscriptionModelFromEntity(sub)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", sub.ID, sub.Version-1).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
