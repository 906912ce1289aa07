package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradeops/masterdata/internal/infrastructure/store"
	"github.com/tradeops/masterdata/internal/interfaces/http/dto"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	env       string
	sync      SyncService
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, env string, sync SyncService) *SystemHandler {
	return &SystemHandler{
		name:      name,
		env:       env,
		sync:      sync,
		startTime: time.Now(),
	}
}

// DatasetVersion is one dataset's published generation
// @Description Dataset version entry
type DatasetVersion struct {
	DatasetKey string `json:"dataset_key"`
	Version    uint64 `json:"version"`
	Degraded   bool   `json:"degraded"`
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string           `json:"name" example:"masterdata-sync"`
	Env       string           `json:"env" example:"development"`
	GoVersion string           `json:"go_version" example:"go1.25.5"`
	Uptime    string           `json:"uptime" example:"1h30m45s"`
	Datasets  []DatasetVersion `json:"datasets"`
	Cache     store.Stats      `json:"cache"`
}

// GetSystemInfo godoc
// @Summary      Get system information
// @Description  Returns uptime, dataset versions, and cache counters
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	overviews := h.sync.Overviews()
	datasets := make([]DatasetVersion, 0, len(overviews))
	for _, ov := range overviews {
		datasets = append(datasets, DatasetVersion{
			DatasetKey: ov.Snapshot.DatasetKey,
			Version:    ov.Snapshot.Version,
			Degraded:   ov.Sync.Degraded,
		})
	}

	info := SystemInfoResponse{
		Name:      h.name,
		Env:       h.env,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Datasets:  datasets,
		Cache:     h.sync.CacheStats(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=PingResponse}
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/ping", h.Ping)
		system.GET("/info", h.GetSystemInfo)
	}
}
