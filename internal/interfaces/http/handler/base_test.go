package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/leadscout/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newHandlerCtx builds a gin context around a bare GET request.
func newHandlerCtx() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

// decodeResponse unmarshals the recorded body into the API envelope.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	setContext := func(id string) func(*gin.Context) {
		return func(c *gin.Context) { c.Set(RequestIDKey, id) }
	}
	setHeader := func(id string) func(*gin.Context) {
		return func(c *gin.Context) { c.Request.Header.Set(RequestIDKey, id) }
	}

	tests := []struct {
		name  string
		setup []func(*gin.Context)
		want  string
	}{
		{"from context string", []func(*gin.Context){setContext("ctx-request-id")}, "ctx-request-id"},
		{"from header when context empty", []func(*gin.Context){setHeader("header-request-id")}, "header-request-id"},
		{"empty when not set", nil, ""},
		{"context takes precedence over header", []func(*gin.Context){setContext("ctx-id"), setHeader("header-id")}, "ctx-id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newHandlerCtx()
			for _, apply := range tt.setup {
				apply(c)
			}

			assert.Equal(t, tt.want, getRequestID(c))
		})
	}
}

func TestGetUserID(t *testing.T) {
	t.Run("from header", func(t *testing.T) {
		c, _ := newHandlerCtx()
		want := uuid.New()
		c.Request.Header.Set(UserIDHeader, want.String())

		got, err := getUserID(c)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing header", func(t *testing.T) {
		c, _ := newHandlerCtx()

		_, err := getUserID(c)
		assert.Error(t, err)
	})

	t.Run("malformed header", func(t *testing.T) {
		c, _ := newHandlerCtx()
		c.Request.Header.Set(UserIDHeader, "not-a-uuid")

		_, err := getUserID(c)
		assert.Error(t, err)
	})
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newHandlerCtx()

	h.Success(c, map[string]string{"plan": "starter"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newHandlerCtx()

	h.SuccessWithMeta(c, []string{"lead-a", "lead-b"}, 100, 1, 10)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(100), resp.Meta.Total)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newHandlerCtx()

	h.Created(c, map[string]string{"id": uuid.NewString()})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerNoContent(t *testing.T) {
	h := &BaseHandler{}

	router := gin.New()
	router.DELETE("/reservations/:id", func(c *gin.Context) {
		h.NoContent(c)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/reservations/"+uuid.NewString(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name     string
		call     func(*BaseHandler, *gin.Context)
		wantCode int
		wantErr  string
	}{
		{"BadRequest", func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "malformed payload") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"NotFound", func(h *BaseHandler, c *gin.Context) { h.NotFound(c, "plan not found") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"Unauthorized", func(h *BaseHandler, c *gin.Context) { h.Unauthorized(c, "missing caller identity") }, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"Forbidden", func(h *BaseHandler, c *gin.Context) { h.Forbidden(c, "plan does not allow this") }, http.StatusForbidden, dto.ErrCodeForbidden},
		{"Conflict", func(h *BaseHandler, c *gin.Context) { h.Conflict(c, "reservation already held") }, http.StatusConflict, dto.ErrCodeConflict},
		{"InternalError", func(h *BaseHandler, c *gin.Context) { h.InternalError(c, "unexpected failure") }, http.StatusInternalServerError, dto.ErrCodeInternal},
		{"TooManyRequests", func(h *BaseHandler, c *gin.Context) { h.TooManyRequests(c, "admission rejected") }, http.StatusTooManyRequests, dto.ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newHandlerCtx()

			tt.call(h, c)

			assert.Equal(t, tt.wantCode, w.Code)

			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerErrorWithRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newHandlerCtx()
	c.Set(RequestIDKey, "req-ledger-9f3")

	h.BadRequest(c, "Malformed payload")

	assert.Equal(t, "req-ledger-9f3", decodeResponse(t, w).Error.RequestID)
}

func TestBaseHandlerErrorWithCode(t *testing.T) {
	h := &BaseHandler{}
	c, w := newHandlerCtx()

	h.ErrorWithCode(c, dto.ErrCodeDuplicateReservation, "Job already holds a slot")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeDuplicateReservation, decodeResponse(t, w).Error.Code)
}

func TestBaseHandlerValidationError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newHandlerCtx()
	c.Set(RequestIDKey, "req-intake-77b")

	details := []dto.ValidationDetail{
		{Field: "operation_kind", Message: "Required"},
		{Field: "job_id", Message: "Invalid format"},
	}
	h.ValidationError(c, details)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-intake-77b", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
}

func TestBaseHandlerHandleDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"concurrency conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"busy", shared.ErrBusy, http.StatusTooManyRequests, dto.ErrCodeBusy},
		{"duplicate reservation", shared.ErrDuplicateReservation, http.StatusConflict, dto.ErrCodeDuplicateReservation},
		{"unrecognized transition", shared.ErrUnrecognizedTransition, http.StatusUnprocessableEntity, dto.ErrCodeUnrecognizedTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newHandlerCtx()

			h.HandleDomainError(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)

			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerHandleDomainErrorWithRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newHandlerCtx()
	c.Set(RequestIDKey, "req-domain-5c1")

	h.HandleDomainError(c, shared.ErrNotFound)

	assert.Equal(t, "req-domain-5c1", decodeResponse(t, w).Error.RequestID)
}

func TestBaseHandlerHandleNonDomainError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newHandlerCtx()

	h.HandleDomainError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
}

func TestBaseHandlerHandleError(t *testing.T) {
	h := &BaseHandler{}

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newHandlerCtx()

		h.HandleError(c, nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("domain error maps to its status", func(t *testing.T) {
		c, w := newHandlerCtx()

		h.HandleError(c, shared.ErrNotFound)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown error maps to 500", func(t *testing.T) {
		c, w := newHandlerCtx()

		h.HandleError(c, assert.AnError)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("wrapped domain error is unwrapped", func(t *testing.T) {
		c, w := newHandlerCtx()

		h.HandleError(c, fmt.Errorf("loading subscription: %w", shared.ErrNotFound))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)
	})
}

func TestBaseHandlerUnprocessableEntity(t *testing.T) {
	h := &BaseHandler{}
	c, w := newHandlerCtx()

	h.UnprocessableEntity(c, dto.ErrCodeBusinessRule, "Plan does not allow this operation")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeBusinessRule, decodeResponse(t, w).Error.Code)
}
