package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	admissionapp "github.com/leadscout/backend/internal/application/admission"
	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/interfaces/http/dto"
)

// AdmissionHandler handles admission control API endpoints. Every billable
// operation asks here before it runs; denials are served as HTTP 200 with
// granted=false so callers branch on the decision rather than on status codes.
type AdmissionHandler struct {
	BaseHandler
	gateway *admissionapp.Gateway
}

// NewAdmissionHandler creates a new AdmissionHandler
func NewAdmissionHandler(gateway *admissionapp.Gateway) *AdmissionHandler {
	return &AdmissionHandler{gateway: gateway}
}

// RequestAdmission godoc
//
//	@ID				requestAdmission
//	@Summary		Request admission for an operation
//	@Description	Decide whether the caller may start the given operation now, reserving a concurrency slot for job-class operations
//	@Tags			admission
//	@Accept			json
//	@Produce		json
//	@Param			X-User-ID	header		string						true	"Authenticated user ID"
//	@Param			request		body		dto.AdmissionRequest		true	"Admission request"
//	@Success		200			{object}	APIResponse[dto.AdmissionDecisionResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		429			{object}	ErrorResponse
//	@Router			/admission/reservations [post]
func (h *AdmissionHandler) RequestAdmission(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid user ID is required")
		return
	}

	var req dto.AdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	kind, err := catalog.ParseOperationKind(req.OperationKind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	jobID := uuid.Nil
	if req.JobID != "" {
		jobID, err = uuid.Parse(req.JobID)
		if err != nil {
			h.BadRequest(c, "Invalid job ID")
			return
		}
	}

	decision, err := h.gateway.Admit(c.Request.Context(), userID, kind, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToAdmissionDecisionResponse(decision))
}

// ReleaseReservation godoc
//
//	@ID				releaseReservation
//	@Summary		Release a concurrency reservation
//	@Description	Release the slot held by a finished or canceled job
//	@Tags			admission
//	@Produce		json
//	@Param			X-User-ID	header	string	true	"Authenticated user ID"
//	@Param			job_id		path	string	true	"Job ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/admission/reservations/{job_id} [delete]
func (h *AdmissionHandler) ReleaseReservation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid user ID is required")
		return
	}

	var req dto.ReleaseRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	if err := h.gateway.Release(c.Request.Context(), userID, jobID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
