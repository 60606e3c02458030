package event

import (
	"context"
	"sync/atomic"

	"github.com/leadscout/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DeliveryMetrics counts first-time, duplicate, and failed deliveries.
// Several handlers may share one instance via WithSharedMetrics.
type DeliveryMetrics struct {
	FirstDeliveries atomic.Int64
	Duplicates      atomic.Int64
	Failures        atomic.Int64
}

// Snapshot reads the counters into a plain struct for reporting.
func (m *DeliveryMetrics) Snapshot() DeliverySnapshot {
	return DeliverySnapshot{
		FirstDeliveries: m.FirstDeliveries.Load(),
		Duplicates:      m.Duplicates.Load(),
		Failures:        m.Failures.Load(),
	}
}

// DeliverySnapshot is a point-in-time copy of DeliveryMetrics.
type DeliverySnapshot struct {
	FirstDeliveries int64 `json:"first_deliveries"`
	Duplicates      int64 `json:"duplicates"`
	Failures        int64 `json:"failures"`
}

// IdempotentHandler wraps an EventHandler so redelivered events are applied
// at most once. Subscription lifecycle listeners sit behind this wrapper
// because billing providers redeliver webhooks freely.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
	metrics *DeliveryMetrics
}

// IdempotentOption adjusts an IdempotentHandler at construction.
type IdempotentOption func(*IdempotentHandler)

// WithDedupConfig replaces the default deduplication policy.
func WithDedupConfig(config shared.IdempotencyConfig) IdempotentOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithSharedMetrics makes the handler report into an external counter set.
func WithSharedMetrics(metrics *DeliveryMetrics) IdempotentOption {
	return func(h *IdempotentHandler) {
		h.metrics = metrics
	}
}

// NewIdempotentHandler wraps handler with store-backed deduplication.
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  logger,
		metrics: &DeliveryMetrics{},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// EventTypes delegates to the wrapped handler's subscriptions.
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle delivers the event unless its ID was already marked processed.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}

	ident := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
	}

	// Atomic check-and-set; a store error degrades to at-least-once delivery
	switch isNew, err := h.store.MarkProcessed(ctx, event.EventID().String(), h.config.TTL); {
	case err != nil:
		h.logger.Warn("idempotency check failed, processing anyway", append(ident, zap.Error(err))...)
	case !isNew:
		h.metrics.Duplicates.Add(1)
		h.logger.Debug("duplicate event skipped", ident...)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.metrics.Failures.Add(1)
		h.logger.Error("event handler failed", append(ident, zap.Error(err))...)
		// The idempotency key stays set on failure; retries wait for TTL expiry
		return err
	}

	h.metrics.FirstDeliveries.Add(1)
	h.logger.Debug("event processed", ident...)
	return nil
}

// Metrics exposes the handler's delivery counters.
func (h *IdempotentHandler) Metrics() *DeliveryMetrics {
	return h.metrics
}

// Unwrap returns the handler behind the deduplication layer.
func (h *IdempotentHandler) Unwrap() shared.EventHandler {
	return h.handler
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
