package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/leadscout/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestFormatValidationErrors(t *testing.T) {
	type consumeRequest struct {
		MetricKey string `json:"metric_key" binding:"required"`
		Amount    int    `json:"amount" binding:"required,min=1"`
	}

	SetupValidator()

	router := gin.New()
	router.POST("/api/v1/usage/consume", func(c *gin.Context) {
		var req consumeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/usage/consume", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("invalid payload yields per-field details", func(t *testing.T) {
		w := post(`{"amount": 0}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		assert.Len(t, resp.Error.Details, 2)

		// JSON tag names, not Go field names
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.Contains(t, fields, "metric_key")
		assert.Contains(t, fields, "amount")
	})

	t.Run("valid payload passes binding", func(t *testing.T) {
		w := post(`{"metric_key": "searches", "amount": 5}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestValidationMessage(t *testing.T) {
	type ruleSet struct {
		Required string `binding:"required"`
		Email    string `binding:"email"`
		Min      string `binding:"min=5"`
		Len      string `binding:"len=5"`
		UUID     string `binding:"uuid"`
		OneOf    string `binding:"oneof=active trialing expired"`
	}

	v := validator.New()
	v.SetTagName("binding")
	err := v.Struct(ruleSet{})
	require.Error(t, err)

	var fieldErrors validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrors)

	want := map[string]string{
		"Required": "This field is required",
		"Email":    "Invalid email format",
		"Min":      "Must be at least 5 characters",
		"Len":      "Must be exactly 5 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: active trialing expired",
	}

	for _, fe := range fieldErrors {
		expected, ok := want[fe.Field()]
		if !ok {
			continue
		}
		assert.Equal(t, expected, validationMessage(fe), "field %s", fe.Field())
	}
}

func TestHandleValidationError(t *testing.T) {
	type input struct {
		Name string `json:"name" binding:"required"`
	}

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var in input
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeValidation)
}
