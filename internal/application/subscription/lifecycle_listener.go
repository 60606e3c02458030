package subscription

import (
	"context"

	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/leadscout/backend/internal/domain/subscription"
	"go.uber.org/zap"
)

// LifecycleListener records subscription lifecycle changes to the audit log.
// It consumes the events the tracker publishes after each committed change.
type LifecycleListener struct {
	logger *zap.Logger
}

// NewLifecycleListener creates a new LifecycleListener
func NewLifecycleListener(logger *zap.Logger) *LifecycleListener {
	return &LifecycleListener{logger: logger}
}

// EventTypes returns the event types this listener consumes
func (l *LifecycleListener) EventTypes() []string {
	return []string{
		subscription.EventTypeSubscriptionStarted,
		subscription.EventTypeSubscriptionTransitioned,
	}
}

// Handle implements shared.EventHandler
func (l *LifecycleListener) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *subscription.SubscriptionStartedEvent:
		l.logger.Info("subscription started",
			zap.String("user_id", e.UserID().String()),
			zap.String("plan", e.Plan.String()),
			zap.String("status", string(e.Status)),
		)
	case *subscription.SubscriptionTransitionedEvent:
		l.logger.Info("subscription transitioned",
			zap.String("user_id", e.UserID().String()),
			zap.String("event", e.Event.String()),
			zap.String("old_status", string(e.OldStatus)),
			zap.String("new_status", string(e.NewStatus)),
			zap.String("old_plan", e.OldPlan.String()),
			zap.String("new_plan", e.NewPlan.String()),
		)
	default:
		l.logger.Debug("ignoring unrecognized event",
			zap.String("event_type", event.EventType()),
		)
	}
	return nil
}

var _ shared.EventHandler = (*LifecycleListener)(nil)
