package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	subscriptionapp "github.com/leadscout/backend/internal/application/subscription"
	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/leadscout/backend/internal/domain/subscription"
	"github.com/leadscout/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// eventTypeTrialStarted opens a new subscription rather than transitioning an
// existing one, so it is routed to StartTrial instead of ApplyTransition
const eventTypeTrialStarted = "trial_started"

// SubscriptionWebhookHandler receives verified billing-provider events.
// The provider redelivers events until acknowledged, so processing is
// deduplicated by event ID before any state changes.
type SubscriptionWebhookHandler struct {
	BaseHandler
	tracker     *subscriptionapp.TrackerService
	idempotency shared.IdempotencyStore
	dedupTTL    time.Duration
	logger      *zap.Logger
}

// NewSubscriptionWebhookHandler creates a new SubscriptionWebhookHandler
func NewSubscriptionWebhookHandler(
	tracker *subscriptionapp.TrackerService,
	idempotency shared.IdempotencyStore,
	dedupTTL time.Duration,
	logger *zap.Logger,
) *SubscriptionWebhookHandler {
	if dedupTTL <= 0 {
		dedupTTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &SubscriptionWebhookHandler{
		tracker:     tracker,
		idempotency: idempotency,
		dedupTTL:    dedupTTL,
		logger:      logger,
	}
}

// HandleSubscriptionEvent godoc
//
//	@ID				handleSubscriptionEvent
//	@Summary		Handle subscription lifecycle event
//	@Description	Apply a verified billing-provider event to the user's subscription, deduplicated by event ID
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	APIResponse[dto.SubscriptionWebhookResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/webhooks/subscription [post]
func (h *SubscriptionWebhookHandler) HandleSubscriptionEvent(c *gin.Context) {
	var req dto.SubscriptionWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	processed, err := h.idempotency.IsProcessed(c.Request.Context(), req.EventID)
	if err != nil {
		h.logger.Error("idempotency check failed",
			zap.String("event_id", req.EventID),
			zap.Error(err))
		h.InternalError(c, "Failed to check event status")
		return
	}
	if processed {
		h.Success(c, &dto.SubscriptionWebhookResponse{
			EventID:   req.EventID,
			Processed: false,
			Duplicate: true,
		})
		return
	}

	at := req.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	var plan catalog.PlanID
	if req.Plan != "" {
		plan, err = catalog.ParsePlanID(req.Plan)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}

	if req.EventType == eventTypeTrialStarted {
		_, err = h.tracker.StartTrial(c.Request.Context(), userID, plan, at)
	} else {
		err = h.tracker.ApplyTransition(c.Request.Context(), userID, subscription.EventType(req.EventType), plan, at)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// Mark only after the transition committed so a failed delivery can be
	// redelivered by the provider
	if _, err := h.idempotency.MarkProcessed(c.Request.Context(), req.EventID, h.dedupTTL); err != nil {
		h.logger.Warn("failed to mark event as processed",
			zap.String("event_id", req.EventID),
			zap.Error(err))
	}

	h.Success(c, &dto.SubscriptionWebhookResponse{
		EventID:   req.EventID,
		Processed: true,
	})
}
