package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeops/masterdata/internal/application/datasync"
	"github.com/tradeops/masterdata/internal/infrastructure/scheduler"
	"github.com/tradeops/masterdata/internal/infrastructure/store"
)

func newSystemEngine(sync SyncService) *gin.Engine {
	r := gin.New()
	NewSystemHandler("masterdata-sync", "test", sync).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestSystemHandler_Ping(t *testing.T) {
	r := newSystemEngine(&stubSync{})

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/system/ping")

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "pong", data["message"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	sync := &stubSync{
		overviews: []datasync.Overview{
			{
				Snapshot: store.Info{DatasetKey: "hs_codes", Version: 4},
				Sync:     scheduler.DatasetStatus{DatasetKey: "hs_codes"},
			},
			{
				Snapshot: store.Info{DatasetKey: "tariff_rates", Version: 2},
				Sync:     scheduler.DatasetStatus{DatasetKey: "tariff_rates", Degraded: true},
			},
		},
		stats: store.Stats{Hits: 12, Publishes: 6},
	}
	r := newSystemEngine(sync)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/system/info")

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})

	assert.Equal(t, "masterdata-sync", data["name"])
	assert.Equal(t, "test", data["env"])
	assert.True(t, strings.HasPrefix(data["go_version"].(string), "go"))
	assert.NotEmpty(t, data["uptime"])

	datasets := data["datasets"].([]interface{})
	require.Len(t, datasets, 2)
	degraded := datasets[1].(map[string]interface{})
	assert.Equal(t, "tariff_rates", degraded["dataset_key"])
	assert.Equal(t, float64(2), degraded["version"])
	assert.Equal(t, true, degraded["degraded"])

	cache := data["cache"].(map[string]interface{})
	assert.Equal(t, float64(12), cache["hits"])
	assert.Equal(t, float64(6), cache["publishes"])
}
