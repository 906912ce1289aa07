package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeops/masterdata/internal/interfaces/http/dto"
)

// HTTPTestCase describes a table-driven HTTP test case run against a
// fully routed engine.
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Body           interface{}
	Headers        map[string]string
	ExpectedStatus int
	// ExpectedCode is the error code expected in the response envelope.
	// Empty means a success envelope is expected.
	ExpectedCode string
	Validate     func(t *testing.T, w *httptest.ResponseRecorder)
}

// RunHTTPTestCases runs a set of HTTP test cases against the engine.
func RunHTTPTestCases(t *testing.T, engine *gin.Engine, cases []HTTPTestCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, engine, tc)
		})
	}
}

// RunHTTPTestCase runs a single HTTP test case against the engine.
func RunHTTPTestCase(t *testing.T, engine *gin.Engine, tc HTTPTestCase) {
	t.Helper()

	w := DoRequest(t, engine, tc.Method, tc.Path, tc.Body, tc.Headers)

	if tc.ExpectedStatus != 0 {
		require.Equal(t, tc.ExpectedStatus, w.Code, "unexpected status, body: %s", w.Body.String())
	}
	if tc.ExpectedCode != "" {
		AssertErrorResponse(t, w, tc.ExpectedCode)
	}
	if tc.Validate != nil {
		tc.Validate(t, w)
	}
}

// DoRequest performs an HTTP request against the engine and returns the
// recorder. A non-nil body is JSON encoded and sent with the matching
// content type.
func DoRequest(t *testing.T, engine *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = ToJSONReader(t, body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// DecodeResponse unmarshals the recorded body into the API response
// envelope.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

// JSONResponse parses the recorded body as a generic JSON object.
func JSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

// JSONDataAs re-marshals the envelope's data payload into a typed value.
func JSONDataAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	resp := DecodeResponse(t, w)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(raw, &out), "data: %s", string(raw))
	return out
}

// AssertSuccessResponse verifies the body is a success envelope and
// returns it.
func AssertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()

	resp := DecodeResponse(t, w)
	assert.True(t, resp.Success, "expected success envelope, body: %s", w.Body.String())
	assert.Nil(t, resp.Error)
	return resp
}

// AssertErrorResponse verifies the body is an error envelope carrying
// the expected code.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) dto.Response {
	t.Helper()

	resp := DecodeResponse(t, w)
	assert.False(t, resp.Success, "expected error envelope, body: %s", w.Body.String())
	require.NotNil(t, resp.Error, "error envelope missing error info")
	assert.Equal(t, expectedCode, resp.Error.Code)
	return resp
}

// ToJSONReader marshals v and returns a reader over the JSON bytes.
func ToJSONReader(t *testing.T, v interface{}) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}
