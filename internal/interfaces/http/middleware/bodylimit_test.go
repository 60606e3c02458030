package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// postWithLimit sends a POST through BodyLimit(limit) to a handler that
// answers 200 without touching the body.
func postWithLimit(limit int64, payload string, contentLength int64) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BodyLimit(limit))
	router.POST("/ingest", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(payload))
	req.ContentLength = contentLength
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBodyLimit_ContentLength(t *testing.T) {
	t.Run("body within limit passes", func(t *testing.T) {
		payload := `{"metric_key":"leads.enriched","amount":3}`
		w := postWithLimit(1024, payload, int64(len(payload)))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("declared length over limit is rejected up front", func(t *testing.T) {
		payload := strings.Repeat("x", 200)
		w := postWithLimit(100, payload, 200)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
	})

	t.Run("non-positive limit falls back to the default", func(t *testing.T) {
		payload := `{"metric_key":"leads.discovered"}`
		w := postWithLimit(0, payload, int64(len(payload)))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestBodyLimit_BodylessMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BodyLimit(10))
	router.GET("/plans", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

// A chunked upload carries no Content-Length, so the up-front check cannot
// fire; MaxBytesReader has to stop the read instead.
func TestBodyLimit_StreamingBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BodyLimit(50))
	router.POST("/ingest", func(c *gin.Context) {
		buf := make([]byte, 200)
		if _, err := c.Request.Body.Read(buf); err != nil {
			c.String(http.StatusBadRequest, "body too large")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(strings.Repeat("x", 100)))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
