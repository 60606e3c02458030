package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockDB(t *testing.T) {
	db := NewMockDB(t)
	defer db.Close()

	t.Run("wires all three handles", func(t *testing.T) {
		require.NotNil(t, db.DB)
		require.NotNil(t, db.Mock)
		require.NotNil(t, db.SqlDB)
	})

	t.Run("no queued expectations means none unmet", func(t *testing.T) {
		db.ExpectationsWereMet(t)
	})
}

func TestTestContextDefaults(t *testing.T) {
	tc := NewTestContext(t)

	require.NotNil(t, tc.Context)
	require.NotNil(t, tc.Recorder)
	require.NotNil(t, tc.Engine)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)
}

func TestTestContextMutators(t *testing.T) {
	t.Run("request id lands under the middleware key", func(t *testing.T) {
		tc := NewTestContext(t)
		tc.SetRequestID("req-admission-7")

		got, ok := tc.Context.Get("X-Request-ID")
		require.True(t, ok)
		assert.Equal(t, "req-admission-7", got)
	})

	t.Run("user id lands under the middleware key", func(t *testing.T) {
		tc := NewTestContext(t)
		tc.SetUserID("acct-prospector")

		got, ok := tc.Context.Get("X-User-ID")
		require.True(t, ok)
		assert.Equal(t, "acct-prospector", got)
	})

	t.Run("headers reach the underlying request", func(t *testing.T) {
		tc := NewTestContext(t)
		tc.SetHeader("Authorization", "Bearer fixture-token")

		assert.Equal(t, "Bearer fixture-token", tc.Context.Request.Header.Get("Authorization"))
	})

	t.Run("response code reflects the recorder", func(t *testing.T) {
		tc := NewTestContext(t)
		tc.Recorder.WriteHeader(http.StatusCreated)

		assert.Equal(t, http.StatusCreated, tc.ResponseCode())
	})
}

func TestUUIDHelpers(t *testing.T) {
	t.Run("seeded ids are stable per seed", func(t *testing.T) {
		assert.Equal(t, NewTestUUID("starter-plan"), NewTestUUID("starter-plan"))
		assert.NotEqual(t, NewTestUUID("starter-plan"), NewTestUUID("growth-plan"))
	})

	t.Run("random ids differ", func(t *testing.T) {
		assert.NotEqual(t, NewRandomUUID(), NewRandomUUID())
	})

	t.Run("fixture user id is deterministic and non-nil", func(t *testing.T) {
		id := TestUserID()
		assert.Equal(t, id, TestUserID())
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", id.String())
	})
}

func TestContextHelpers(t *testing.T) {
	t.Run("timeout context carries a deadline", func(t *testing.T) {
		ctx, cancel := ContextWithTimeout(t, 100*time.Millisecond)
		defer cancel()

		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.True(t, deadline.After(time.Now()))
	})

	t.Run("cancel context closes on cancel only", func(t *testing.T) {
		ctx, cancel := ContextWithCancel(t)

		select {
		case <-ctx.Done():
			t.Fatal("context cancelled too early")
		default:
		}

		cancel()

		select {
		case <-ctx.Done():
		default:
			t.Fatal("context not cancelled")
		}
	})
}

func TestPollingAssertions(t *testing.T) {
	t.Run("eventually sees a condition that flips", func(t *testing.T) {
		done := make(chan struct{})
		go func() {
			time.Sleep(20 * time.Millisecond)
			close(done)
		}()

		AssertEventually(t, func() bool {
			select {
			case <-done:
				return true
			default:
				return false
			}
		}, 500*time.Millisecond, 5*time.Millisecond)
	})

	t.Run("never holds for a condition that stays false", func(t *testing.T) {
		AssertNever(t, func() bool { return false }, 40*time.Millisecond, 5*time.Millisecond)
	})
}

func TestHTTPCaseRunner(t *testing.T) {
	pong := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "pong"})
	}

	t.Run("single case checks status and body keys", func(t *testing.T) {
		RunHTTPTestCase(t, pong, HTTPTestCase{
			Name:           "liveness",
			Method:         http.MethodGet,
			Path:           "/ping",
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   map[string]any{"success": true},
		})
	})

	t.Run("case list runs as subtests", func(t *testing.T) {
		RunHTTPTestCases(t, pong, []HTTPTestCase{
			{Name: "first", ExpectedStatus: http.StatusOK},
			{Name: "second", ExpectedStatus: http.StatusOK},
		})
	})
}

func TestResponseDecoding(t *testing.T) {
	t.Run("as generic map", func(t *testing.T) {
		tc := NewTestContext(t)
		tc.Context.JSON(http.StatusOK, gin.H{"metric_key": "leads.enriched"})

		assert.Equal(t, "leads.enriched", JSONResponse(t, tc)["metric_key"])
	})

	t.Run("as typed struct", func(t *testing.T) {
		type decision struct {
			Allowed bool   `json:"allowed"`
			Reason  string `json:"reason"`
		}

		tc := NewTestContext(t)
		tc.Context.JSON(http.StatusOK, gin.H{"allowed": false, "reason": "quota_exhausted"})

		got := JSONResponseAs[decision](t, tc)
		assert.False(t, got.Allowed)
		assert.Equal(t, "quota_exhausted", got.Reason)
	})

	t.Run("success envelope", func(t *testing.T) {
		tc := NewTestContext(t)
		tc.Context.JSON(http.StatusOK, gin.H{"success": true})

		AssertSuccessResponse(t, tc)
	})

	t.Run("json reader round trip", func(t *testing.T) {
		require.NotNil(t, ToJSONReader(t, map[string]string{"metric": "searches"}))
	})
}
