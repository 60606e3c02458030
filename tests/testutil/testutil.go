// Package testutil provides shared helpers for the LeadScout backend test
// suites: sqlmock-backed GORM databases, Gin test contexts, deterministic
// UUIDs, and polling assertions for asynchronous behavior.
package testutil

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB pairs a GORM handle with the sqlmock driving it.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB opens a GORM connection backed by sqlmock.
// Callers own the connection and must Close it.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err, "sqlmock setup failed")

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"}),
		&gorm.Config{SkipDefaultTransaction: true},
	)
	require.NoError(t, err, "gorm open failed")

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: conn}
}

// Close releases the underlying sqlmock connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet fails the test if any sqlmock expectation went unmatched.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "unmet database expectations")
}

// TestContext bundles a Gin context with its response recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext builds a Gin context around a GET / request.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()
	return NewTestContextWithRequest(t, http.MethodGet, "/", nil)
}

// NewTestContextWithRequest builds a Gin context for the given method and
// path. A non-nil req overrides both.
func NewTestContextWithRequest(t *testing.T, method, path string, req *http.Request) *TestContext {
	t.Helper()

	recorder := httptest.NewRecorder()
	ginCtx, engine := gin.CreateTestContext(recorder)
	if req == nil {
		req = httptest.NewRequest(method, path, nil)
	}
	ginCtx.Request = req

	return &TestContext{Context: ginCtx, Recorder: recorder, Engine: engine}
}

// SetRequestID stores a request ID under the key middleware would use.
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set("X-Request-ID", id)
}

// SetUserID stores a user ID under the key middleware would use.
func (tc *TestContext) SetUserID(id string) {
	tc.Context.Set("X-User-ID", id)
}

// SetHeader sets a request header.
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// ResponseBody returns the recorded response body.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the recorded status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// fixtureNamespace seeds NewTestUUID so derived IDs never collide with
// randomly generated ones.
var fixtureNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewTestUUID derives a stable UUID from a seed string, so fixtures can
// reference the same ID across test runs.
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(fixtureNamespace, []byte(seed))
}

// NewRandomUUID returns a fresh random UUID.
func NewRandomUUID() uuid.UUID {
	return uuid.New()
}

// TestUserID returns the deterministic user ID shared by fixtures.
func TestUserID() uuid.UUID {
	return NewTestUUID("test-user")
}

// ContextWithTimeout wraps context.WithTimeout for test bodies.
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// ContextWithCancel wraps context.WithCancel for test bodies.
func ContextWithCancel(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithCancel(context.Background())
}

// pollUntil runs condition at the given interval until it returns true or
// the deadline passes. Reports whether the condition was ever satisfied.
func pollUntil(condition func() bool, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return false
}

// AssertEventually polls the condition until it passes or the timeout expires.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	if !pollUntil(condition, timeout, interval) {
		t.Fatalf("condition not met within %v: %v", timeout, msgAndArgs)
	}
}

// RequireEventually is AssertEventually using require semantics.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	if !pollUntil(condition, timeout, interval) {
		require.Fail(t, "condition not met within timeout", msgAndArgs...)
	}
}

// AssertNever verifies the condition stays false for the whole duration.
func AssertNever(t *testing.T, condition func() bool, duration, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	if pollUntil(condition, duration, interval) {
		t.Fatalf("condition unexpectedly became true: %v", msgAndArgs)
	}
}
