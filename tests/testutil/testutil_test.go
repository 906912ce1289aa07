package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeops/masterdata/internal/interfaces/http/dto"
)

func TestNewTestContext(t *testing.T) {
	tc := NewTestContext(t)

	assert.NotNil(t, tc.Context)
	assert.NotNil(t, tc.Recorder)
	assert.NotNil(t, tc.Engine)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)
}

func TestTestContext_SetHeader(t *testing.T) {
	tc := NewTestContext(t)

	tc.SetHeader("X-Request-ID", "req-123")

	assert.Equal(t, "req-123", tc.Context.Request.Header.Get("X-Request-ID"))
}

func TestTestContext_ResponseCode(t *testing.T) {
	tc := NewTestContext(t)
	tc.Recorder.WriteHeader(http.StatusCreated)

	assert.Equal(t, http.StatusCreated, tc.ResponseCode())
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariff.csv")
	WriteCSV(t, path, TariffRatesHeader,
		"0101210000,A,8,2024-01-01",
		"0101290000,C,0,2024-01-01",
	)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasPrefix(content, utf8BOM), "fixture should carry a BOM")

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(content, utf8BOM), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, TariffRatesHeader, lines[0])
	assert.Equal(t, "0101210000,A,8,2024-01-01", lines[1])
}

func TestWriteDataset(t *testing.T) {
	dir := t.TempDir()

	path := WriteDataset(t, dir, "hs_codes", HSCodesHeader,
		"0101210000,번식용 말,Pure-bred breeding horses,두(HD),톤(TON)",
	)

	assert.Equal(t, filepath.Join(dir, "hs_codes.csv"), path)
	_, err := os.Stat(path)
	require.NoError(t, err)
}

// envelopeEngine serves one success and one error route using the API
// response envelope.
func envelopeEngine() *gin.Engine {
	engine := gin.New()
	engine.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"value": 42}))
	})
	engine.GET("/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "no such thing"))
	})
	return engine
}

func TestRunHTTPTestCases(t *testing.T) {
	engine := envelopeEngine()

	RunHTTPTestCases(t, engine, []HTTPTestCase{
		{
			Name:           "success envelope",
			Method:         http.MethodGet,
			Path:           "/ok",
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := AssertSuccessResponse(t, w)
				data, ok := resp.Data.(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, float64(42), data["value"])
			},
		},
		{
			Name:           "error envelope",
			Method:         http.MethodGet,
			Path:           "/missing",
			ExpectedStatus: http.StatusNotFound,
			ExpectedCode:   dto.ErrCodeNotFound,
		},
	})
}

func TestJSONDataAs(t *testing.T) {
	engine := envelopeEngine()

	w := DoRequest(t, engine, http.MethodGet, "/ok", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	type payload struct {
		Value int `json:"value"`
	}
	got := JSONDataAs[payload](t, w)
	assert.Equal(t, 42, got.Value)
}

func TestRequireEventually(t *testing.T) {
	var n int
	RequireEventually(t, func() bool {
		n++
		return n >= 3
	}, time.Second, time.Millisecond)

	assert.GreaterOrEqual(t, n, 3)
}

func TestAssertNever(t *testing.T) {
	AssertNever(t, func() bool { return false }, 30*time.Millisecond, 5*time.Millisecond)
}
