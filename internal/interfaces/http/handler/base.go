package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/leadscout/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// UserIDHeader carries the authenticated caller identity. The API gateway in
// front of this service terminates authentication and forwards the verified
// user ID in this header.
const UserIDHeader = "X-User-ID"

// BaseHandler carries the response helpers shared by all handlers.
type BaseHandler struct{}

// getRequestID prefers the middleware-assigned ID over the raw header.
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// getUserID parses the caller identity the gateway forwarded.
func getUserID(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		return uuid.Nil, errors.New("user ID not found in request")
	}
	return uuid.Parse(raw)
}

// Success writes a 200 envelope around data.
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta writes a 200 envelope with pagination meta.
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created writes a 201 envelope around data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent writes a bare 204.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes an error envelope with the given status.
func (h *BaseHandler) Error(c *gin.Context, status int, code, msg string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, msg, getRequestID(c)))
}

// ErrorWithCode derives the HTTP status from the machine-readable code.
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, msg string) {
	h.Error(c, dto.GetHTTPStatus(code), code, msg)
}

// Shorthand senders for the common failure statuses. Each pairs a fixed
// status with its canonical error code.

func (h *BaseHandler) BadRequest(c *gin.Context, msg string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, msg)
}

func (h *BaseHandler) NotFound(c *gin.Context, msg string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, msg)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, msg string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, msg)
}

func (h *BaseHandler) Forbidden(c *gin.Context, msg string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, msg)
}

func (h *BaseHandler) Conflict(c *gin.Context, msg string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, msg)
}

func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, msg string) {
	h.Error(c, http.StatusUnprocessableEntity, code, msg)
}

func (h *BaseHandler) InternalError(c *gin.Context, msg string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, msg)
}

func (h *BaseHandler) TooManyRequests(c *gin.Context, msg string) {
	h.Error(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, msg)
}

// ValidationError writes a 400 with per-field details.
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// writeDomainError maps a DomainError, possibly wrapped, onto the HTTP
// response. Reports whether err was a DomainError.
func (h *BaseHandler) writeDomainError(c *gin.Context, err error) bool {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	code := dto.NormalizeErrorCode(domainErr.Code)
	h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
	return true
}

// HandleDomainError converts a domain error to its HTTP response.
// Anything that is not a DomainError becomes a 500.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	if h.writeDomainError(c, err) {
		return
	}
	h.InternalError(c, "An unexpected error occurred")
}

// HandleError accepts any error; nil is a no-op.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if h.writeDomainError(c, err) {
		return
	}
	h.InternalError(c, "An unexpected error occurred")
}
