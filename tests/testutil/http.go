package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPTestCase describes one request/response expectation for a handler.
// Setup runs before the handler, Validate after; both are optional.
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	ExpectedBody   map[string]any
	Setup          func(t *testing.T, tc *TestContext)
	Validate       func(t *testing.T, tc *TestContext)
}

// RunHTTPTestCases runs each case as a named subtest against the handler.
func RunHTTPTestCases(t *testing.T, handler gin.HandlerFunc, cases []HTTPTestCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, handler, tc)
		})
	}
}

// buildRequest assembles the HTTP request a case describes, marshalling a
// non-nil Body as JSON.
func (tc HTTPTestCase) buildRequest(t *testing.T) *http.Request {
	t.Helper()

	var body io.Reader
	if tc.Body != nil {
		body = ToJSONReader(t, tc.Body)
	}

	method, path := tc.Method, tc.Path
	if method == "" {
		method = http.MethodGet
	}
	if path == "" {
		path = "/"
	}

	req := httptest.NewRequest(method, path, body)
	if tc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range tc.Headers {
		req.Header.Set(name, value)
	}
	return req
}

// RunHTTPTestCase executes one case: builds the request, invokes the
// handler, and checks status and top-level body keys.
func RunHTTPTestCase(t *testing.T, handler gin.HandlerFunc, tc HTTPTestCase) {
	t.Helper()

	testCtx := NewTestContextWithRequest(t, "", "", tc.buildRequest(t))
	if tc.Setup != nil {
		tc.Setup(t, testCtx)
	}

	handler(testCtx.Context)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, testCtx.ResponseCode(), "unexpected status code")
	}

	if tc.ExpectedBody != nil {
		got := JSONResponse(t, testCtx)
		for key, want := range tc.ExpectedBody {
			assert.Equal(t, want, got[key], "unexpected value for key %q", key)
		}
	}

	if tc.Validate != nil {
		tc.Validate(t, testCtx)
	}
}

// JSONResponse decodes the recorded body into a generic map.
func JSONResponse(t *testing.T, tc *TestContext) map[string]any {
	t.Helper()
	return JSONResponseAs[map[string]any](t, tc)
}

// JSONResponseAs decodes the recorded body into T.
func JSONResponseAs[T any](t *testing.T, tc *TestContext) T {
	t.Helper()

	var result T
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), &result), "parse JSON response")
	return result
}

// AssertSuccessResponse checks the envelope used by the API handlers:
// success true and no error object.
func AssertSuccessResponse(t *testing.T, tc *TestContext) {
	t.Helper()

	resp := JSONResponse(t, tc)
	assert.True(t, resp["success"].(bool), "expected success to be true")
	assert.Nil(t, resp["error"], "expected no error")
}

// AssertErrorResponse checks the error envelope and its machine-readable code.
func AssertErrorResponse(t *testing.T, tc *TestContext, expectedCode string) {
	t.Helper()

	resp := JSONResponse(t, tc)
	assert.False(t, resp["success"].(bool), "expected success to be false")

	errObj, ok := resp["error"].(map[string]any)
	require.True(t, ok, "expected error object in response")
	assert.Equal(t, expectedCode, errObj["code"], "unexpected error code")
}

// ToJSONReader marshals v into a reader suitable for request bodies.
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "marshal to JSON")
	return bytes.NewReader(data)
}
