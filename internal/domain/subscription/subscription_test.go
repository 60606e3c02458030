package subscription

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubscription(t *testing.T) *Subscription {
	t.Helper()
	sub, err := NewSubscription(uuid.New(), catalog.PlanStarter, time.Now())
	require.NoError(t, err)
	return sub
}

func TestNewSubscription(t *testing.T) {
	t.Run("starts trialing", func(t *testing.T) {
		sub := newTestSubscription(t)

		assert.Equal(t, StatusTrialing, sub.Status)
		assert.Equal(t, catalog.PlanStarter, sub.Plan)
		assert.Nil(t, sub.PastDueSince)
		assert.Len(t, sub.GetDomainEvents(), 1)
	})

	t.Run("fails with nil user", func(t *testing.T) {
		sub, err := NewSubscription(uuid.Nil, catalog.PlanStarter, time.Now())

		assert.Error(t, err)
		assert.Nil(t, sub)
	})

	t.Run("fails with unknown plan", func(t *testing.T) {
		sub, err := NewSubscription(uuid.New(), catalog.PlanID("platinum"), time.Now())

		assert.Error(t, err)
		assert.Nil(t, sub)
	})
}

func TestSubscription_Apply(t *testing.T) {
	now := time.Now()

	t.Run("payment succeeded converts trial", func(t *testing.T) {
		sub := newTestSubscription(t)

		err := sub.Apply(EventPaymentSucceeded, "", now)

		require.NoError(t, err)
		assert.Equal(t, StatusActive, sub.Status)
	})

	t.Run("payment failed marks past due and anchors the grace window", func(t *testing.T) {
		sub := newTestSubscription(t)
		require.NoError(t, sub.Apply(EventPaymentSucceeded, "", now))

		err := sub.Apply(EventPaymentFailed, "", now)

		require.NoError(t, err)
		assert.Equal(t, StatusPastDue, sub.Status)
		require.NotNil(t, sub.PastDueSince)
		assert.Equal(t, now, *sub.PastDueSince)
	})

	t.Run("repeated payment failures keep the original anchor", func(t *testing.T) {
		sub := newTestSubscription(t)
		require.NoError(t, sub.Apply(EventPaymentSucceeded, "", now))
		require.NoError(t, sub.Apply(EventPaymentFailed, "", now))

		err := sub.Apply(EventPaymentFailed, "", now.Add(24*time.Hour))

		require.NoError(t, err)
		assert.Equal(t, now, *sub.PastDueSince)
	})

	t.Run("payment succeeded recovers past due", func(t *testing.T) {
		sub := newTestSubscription(t)
		require.NoError(t, sub.Apply(EventPaymentSucceeded, "", now))
		require.NoError(t, sub.Apply(EventPaymentFailed, "", now))

		err := sub.Apply(EventPaymentSucceeded, "", now.Add(time.Hour))

		require.NoError(t, err)
		assert.Equal(t, StatusActive, sub.Status)
		assert.Nil(t, sub.PastDueSince)
	})

	t.Run("cancellation is terminal", func(t *testing.T) {
		sub := newTestSubscription(t)
		require.NoError(t, sub.Apply(EventCancellationRequested, "", now))
		assert.Equal(t, StatusCanceled, sub.Status)
		require.NotNil(t, sub.ExpiresAt)

		err := sub.Apply(EventPaymentSucceeded, "", now.Add(time.Hour))

		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Equal(t, StatusCanceled, sub.Status)
	})

	t.Run("payment failed while trialing is invalid", func(t *testing.T) {
		sub := newTestSubscription(t)

		err := sub.Apply(EventPaymentFailed, "", now)

		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Equal(t, StatusTrialing, sub.Status)
	})

	t.Run("plan change switches tier without touching status", func(t *testing.T) {
		sub := newTestSubscription(t)
		require.NoError(t, sub.Apply(EventPaymentSucceeded, "", now))

		err := sub.Apply(EventPlanChanged, catalog.PlanPower, now)

		require.NoError(t, err)
		assert.Equal(t, catalog.PlanPower, sub.Plan)
		assert.Equal(t, StatusActive, sub.Status)
	})

	t.Run("plan change requires a known tier", func(t *testing.T) {
		sub := newTestSubscription(t)

		err := sub.Apply(EventPlanChanged, catalog.PlanID("platinum"), now)

		assert.Error(t, err)
		assert.Equal(t, catalog.PlanStarter, sub.Plan)
	})

	t.Run("unknown event type is rejected", func(t *testing.T) {
		sub := newTestSubscription(t)

		err := sub.Apply(EventType("chargeback_opened"), "", now)

		assert.True(t, errors.Is(err, shared.ErrUnrecognizedTransition))
		assert.Equal(t, StatusTrialing, sub.Status)
	})

	t.Run("transitions record domain events", func(t *testing.T) {
		sub := newTestSubscription(t)
		sub.ClearDomainEvents()

		require.NoError(t, sub.Apply(EventPaymentSucceeded, "", now))

		events := sub.GetDomainEvents()
		require.Len(t, events, 1)
		transitioned, ok := events[0].(*SubscriptionTransitionedEvent)
		require.True(t, ok)
		assert.Equal(t, StatusTrialing, transitioned.OldStatus)
		assert.Equal(t, StatusActive, transitioned.NewStatus)
	})
}

func TestSubscription_GracePeriodLapsed(t *testing.T) {
	now := time.Now()
	grace := 72 * time.Hour

	t.Run("false while inside the window", func(t *testing.T) {
		sub := newTestSubscription(t)
		require.NoError(t, sub.Apply(EventPaymentSucceeded, "", now))
		require.NoError(t, sub.Apply(EventPaymentFailed, "", now))

		assert.False(t, sub.GracePeriodLapsed(now.Add(71*time.Hour), grace))
	})

	t.Run("true once the window passes", func(t *testing.T) {
		sub := newTestSubscription(t)
		require.NoError(t, sub.Apply(EventPaymentSucceeded, "", now))
		require.NoError(t, sub.Apply(EventPaymentFailed, "", now))

		assert.True(t, sub.GracePeriodLapsed(now.Add(grace), grace))
	})

	t.Run("false for active subscriptions", func(t *testing.T) {
		sub := newTestSubscription(t)
		require.NoError(t, sub.Apply(EventPaymentSucceeded, "", now))

		assert.False(t, sub.GracePeriodLapsed(now.Add(30*24*time.Hour), grace))
	})
}

func TestSubscription_IsActive(t *testing.T) {
	now := time.Now()

	t.Run("trialing and active grant access", func(t *testing.T) {
		sub := newTestSubscription(t)
		assert.True(t, sub.IsActive(now))

		require.NoError(t, sub.Apply(EventPaymentSucceeded, "", now))
		assert.True(t, sub.IsActive(now))
	})

	t.Run("canceled denies access", func(t *testing.T) {
		sub := newTestSubscription(t)
		require.NoError(t, sub.Apply(EventCancellationRequested, "", now))

		assert.False(t, sub.IsActive(now.Add(time.Minute)))
	})
}
