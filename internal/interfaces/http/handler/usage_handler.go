package handler

import (
	"github.com/gin-gonic/gin"
	admissionapp "github.com/leadscout/backend/internal/application/admission"
	"github.com/leadscout/backend/internal/interfaces/http/dto"
)

// UsageHandler serves read-only usage and limit views
type UsageHandler struct {
	BaseHandler
	gateway *admissionapp.Gateway
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(gateway *admissionapp.Gateway) *UsageHandler {
	return &UsageHandler{gateway: gateway}
}

// GetUsage godoc
//
//	@ID				getUsage
//	@Summary		Get current usage status
//	@Description	Report the caller's consumption, plan limits, and live job occupancy for the current billing period
//	@Tags			usage
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"Authenticated user ID"
//	@Success		200			{object}	APIResponse[dto.UsageStatusResponse]
//	@Failure		404			{object}	ErrorResponse
//	@Router			/usage [get]
func (h *UsageHandler) GetUsage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid user ID is required")
		return
	}

	status, err := h.gateway.CurrentUsage(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToUsageStatusResponse(status))
}
