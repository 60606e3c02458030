package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/leadscout/backend/internal/domain/subscription"
	"github.com/leadscout/backend/internal/infrastructure/lock"
	"go.uber.org/zap"
)

// PlanResolution is the answer to "which plan is this user evaluated against
// right now". Active is false for canceled subscriptions and for past-due
// subscriptions whose grace window has lapsed; in the latter case Plan is the
// zero-capability plan rather than nil so limit surfaces can still render.
type PlanResolution struct {
	Plan   *catalog.Plan
	Status subscription.Status
	Active bool
}

// TrackerConfig holds tracker configuration
type TrackerConfig struct {
	// GracePeriod is how long a past-due subscription retains its prior
	// plan's limits before degrading to the zero-capability plan.
	GracePeriod time.Duration
}

// DefaultTrackerConfig returns the default tracker configuration
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		GracePeriod: 72 * time.Hour,
	}
}

// TrackerService consumes externally verified plan-change events and answers
// effective-plan lookups. It never originates transitions; it only applies
// them, serialized per user so two events cannot interleave out of order.
type TrackerService struct {
	subRepo   subscription.Repository
	catalog   *catalog.Catalog
	locks     *lock.KeyedMutex
	publisher shared.EventPublisher
	logger    *zap.Logger
	grace     time.Duration
}

// NewTrackerService creates a new TrackerService. The publisher may be nil
// when no downstream consumer cares about transition events.
func NewTrackerService(
	subRepo subscription.Repository,
	cat *catalog.Catalog,
	locks *lock.KeyedMutex,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	cfg TrackerConfig,
) *TrackerService {
	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = DefaultTrackerConfig().GracePeriod
	}
	return &TrackerService{
		subRepo:   subRepo,
		catalog:   cat,
		locks:     locks,
		publisher: publisher,
		logger:    logger,
		grace:     grace,
	}
}

// StartTrial creates a trialing subscription for a user without one
func (s *TrackerService) StartTrial(ctx context.Context, userID uuid.UUID, plan catalog.PlanID, at time.Time) (*subscription.Subscription, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if _, err := s.catalog.GetPlan(plan); err != nil {
		return nil, shared.NewDomainError("INVALID_PLAN", "Unknown plan: "+plan.String())
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.subRepo.FindByUser(ctx, userID); err == nil {
		return nil, shared.ErrAlreadyExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	sub, err := subscription.NewSubscription(userID, plan, at)
	if err != nil {
		return nil, err
	}
	if err := s.subRepo.Save(ctx, sub); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, sub)

	s.logger.Info("Trial subscription started",
		zap.String("user_id", userID.String()),
		zap.String("plan", plan.String()))
	return sub, nil
}

// ApplyTransition applies one verified plan-change event to the user's
// subscription, serialized per user. A payment_succeeded event for a user
// with no subscription record provisions one on the named plan, matching how
// the payment provider reports a first checkout.
func (s *TrackerService) ApplyTransition(ctx context.Context, userID uuid.UUID, event subscription.EventType, newPlan catalog.PlanID, at time.Time) error {
	if userID == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !event.IsValid() {
		return shared.ErrUnrecognizedTransition
	}
	if newPlan != "" {
		if _, err := s.catalog.GetPlan(newPlan); err != nil {
			return shared.NewDomainError("INVALID_PLAN", "Unknown plan: "+newPlan.String())
		}
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	sub, err := s.subRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) && event == subscription.EventPaymentSucceeded && newPlan != "" {
			return s.provision(ctx, userID, newPlan, at)
		}
		return err
	}

	if event == subscription.EventPlanChanged && newPlan == "" {
		return shared.NewDomainError("INVALID_PLAN", "Plan change requires a target plan")
	}

	if err := sub.Apply(event, newPlan, at); err != nil {
		return err
	}
	// The keyed mutex serializes writers in-process; the version guard
	// catches writers on another instance sharing the database.
	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		s.logger.Error("Failed to persist subscription transition",
			zap.String("user_id", userID.String()),
			zap.String("event", event.String()),
			zap.Error(err))
		return err
	}
	s.publishEvents(ctx, sub)

	s.logger.Info("Subscription transition applied",
		zap.String("user_id", userID.String()),
		zap.String("event", event.String()),
		zap.String("status", sub.Status.String()),
		zap.String("plan", sub.Plan.String()))
	return nil
}

// EffectivePlan resolves the plan a user is evaluated against at the given
// instant. Resolution happens at decision time: a downgrade or lapse affects
// subsequent admission decisions, never already-granted reservations.
func (s *TrackerService) EffectivePlan(ctx context.Context, userID uuid.UUID, at time.Time) (*PlanResolution, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}

	sub, err := s.subRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !sub.IsActive(at) {
		return &PlanResolution{Plan: nil, Status: sub.Status, Active: false}, nil
	}

	if sub.GracePeriodLapsed(at, s.grace) {
		return &PlanResolution{
			Plan:   catalog.ZeroCapabilityPlan(),
			Status: sub.Status,
			Active: false,
		}, nil
	}

	plan, err := s.catalog.GetPlan(sub.Plan)
	if err != nil {
		return nil, err
	}
	return &PlanResolution{Plan: plan, Status: sub.Status, Active: true}, nil
}

// Subscription returns the raw subscription record for status surfaces
func (s *TrackerService) Subscription(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	return s.subRepo.FindByUser(ctx, userID)
}

// provision creates an active subscription from a first successful payment
func (s *TrackerService) provision(ctx context.Context, userID uuid.UUID, plan catalog.PlanID, at time.Time) error {
	sub, err := subscription.NewSubscription(userID, plan, at)
	if err != nil {
		return err
	}
	if err := sub.Apply(subscription.EventPaymentSucceeded, "", at); err != nil {
		return err
	}
	if err := s.subRepo.Save(ctx, sub); err != nil {
		return err
	}
	s.publishEvents(ctx, sub)

	s.logger.Info("Subscription provisioned from first payment",
		zap.String("user_id", userID.String()),
		zap.String("plan", plan.String()))
	return nil
}

// publishEvents flushes the aggregate's pending domain events
func (s *TrackerService) publishEvents(ctx context.Context, sub *subscription.Subscription) {
	events := sub.GetDomainEvents()
	sub.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish subscription events", zap.Error(err))
	}
}
