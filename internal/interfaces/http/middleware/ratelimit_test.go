package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("allows up to the limit", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("client-a"), "request %d should be allowed", i)
		}
		assert.False(t, rl.Allow("client-a"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute)

		assert.True(t, rl.Allow("client-a"))
		assert.False(t, rl.Allow("client-a"))
		assert.True(t, rl.Allow("client-b"))
	})

	t.Run("tokens refill over time", func(t *testing.T) {
		rl := NewRateLimiter(2, 100*time.Millisecond)

		assert.True(t, rl.Allow("client-a"))
		assert.True(t, rl.Allow("client-a"))
		assert.False(t, rl.Allow("client-a"))

		time.Sleep(120 * time.Millisecond)
		assert.True(t, rl.Allow("client-a"))
	})
}

func TestRateLimiter_Remaining(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	assert.Equal(t, 5, rl.Remaining("client-a"))
	rl.Allow("client-a")
	assert.Equal(t, 4, rl.Remaining("client-a"))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(limit int) *gin.Engine {
		router := gin.New()
		router.Use(RateLimit(NewRateLimiter(limit, time.Minute)))
		router.GET("/test", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("allows requests under the limit", func(t *testing.T) {
		router := newRouter(2)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/test", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("rejects requests over the limit", func(t *testing.T) {
		router := newRouter(1)

		first := httptest.NewRecorder()
		router.ServeHTTP(first, httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, http.StatusOK, first.Code)

		second := httptest.NewRecorder()
		router.ServeHTTP(second, httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
	})

	t.Run("limits per user when header present", func(t *testing.T) {
		router := newRouter(1)

		userA := httptest.NewRequest("GET", "/test", nil)
		userA.Header.Set("X-User-ID", uuid.New().String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, userA)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, userA)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		// A different user is not affected
		userB := httptest.NewRequest("GET", "/test", nil)
		userB.Header.Set("X-User-ID", uuid.New().String())
		w = httptest.NewRecorder()
		router.ServeHTTP(w, userB)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitByKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimitByKey(NewRateLimiter(1, time.Minute), func(c *gin.Context) string {
		return c.GetHeader("X-API-Key")
	}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	reqA := httptest.NewRequest("GET", "/test", nil)
	reqA.Header.Set("X-API-Key", "key-a")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, reqA)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, reqA)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
