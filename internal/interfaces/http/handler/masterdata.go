package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradeops/masterdata/internal/application/datasync"
	"github.com/tradeops/masterdata/internal/domain/masterdata"
	"github.com/tradeops/masterdata/internal/infrastructure/store"
	"github.com/tradeops/masterdata/internal/interfaces/http/dto"
)

// SyncService is the slice of the sync pipeline the HTTP layer needs
type SyncService interface {
	Overviews() []datasync.Overview
	Overview(key string) (datasync.Overview, error)
	Read(key string) (*masterdata.Snapshot, error)
	Resync(key string) (uuid.UUID, error)
	Rollback(key string) (*masterdata.Snapshot, error)
	CacheStats() store.Stats
}

var _ SyncService = (*datasync.Service)(nil)

// MasterdataHandler handles dataset status and lifecycle API endpoints
type MasterdataHandler struct {
	BaseHandler
	sync SyncService
}

// NewMasterdataHandler creates a new MasterdataHandler
func NewMasterdataHandler(sync SyncService) *MasterdataHandler {
	return &MasterdataHandler{sync: sync}
}

// RecordView renders one canonical record with display-form field values
// @Description One dataset record in display form
type RecordView struct {
	Row    int               `json:"row"`
	Fields map[string]string `json:"fields"`
}

// ResyncResponse acknowledges an accepted resync request
// @Description Resync acknowledgment with the job that will serve it
type ResyncResponse struct {
	DatasetKey string `json:"dataset_key"`
	JobID      string `json:"job_id"`
	Status     string `json:"status" example:"queued"`
}

// SnapshotSummary describes a published snapshot generation
// @Description Snapshot generation summary
type SnapshotSummary struct {
	DatasetKey   string `json:"dataset_key"`
	Version      uint64 `json:"version"`
	Status       string `json:"status"`
	LoadedAt     string `json:"loaded_at"`
	ValidCount   int    `json:"valid_count"`
	InvalidCount int    `json:"invalid_count"`
}

// ListDatasets godoc
// @Summary      List dataset states
// @Description  Returns snapshot and reconciliation state for every registered dataset
// @Tags         masterdata
// @Produce      json
// @Success      200 {object} dto.Response{data=[]datasync.Overview}
// @Router       /masterdata/datasets [get]
func (h *MasterdataHandler) ListDatasets(c *gin.Context) {
	h.Success(c, h.sync.Overviews())
}

// GetDataset godoc
// @Summary      Get one dataset's state
// @Description  Returns snapshot and reconciliation state for a single dataset
// @Tags         masterdata
// @Produce      json
// @Param        key path string true "Dataset key"
// @Success      200 {object} dto.Response{data=datasync.Overview}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /masterdata/datasets/{key} [get]
func (h *MasterdataHandler) GetDataset(c *gin.Context) {
	ov, err := h.sync.Overview(c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ov)
}

// ListRecords godoc
// @Summary      List a dataset's records
// @Description  Returns a window of the current snapshot's valid records in display form
// @Tags         masterdata
// @Produce      json
// @Param        key path string true "Dataset key"
// @Param        limit query int false "Window size" default(50) maximum(500)
// @Param        offset query int false "Window start" default(0)
// @Success      200 {object} dto.Response{data=[]RecordView,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /masterdata/datasets/{key}/records [get]
func (h *MasterdataHandler) ListRecords(c *gin.Context) {
	var req dto.WindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = dto.DefaultWindowRequest().Limit
	}

	snap, err := h.sync.Read(c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	total := snap.ValidCount()
	start := req.Offset
	if start > total {
		start = total
	}
	end := start + req.Limit
	if end > total {
		end = total
	}

	views := make([]RecordView, 0, end-start)
	for _, rec := range snap.Records[start:end] {
		views = append(views, recordView(rec))
	}

	h.SuccessWithMeta(c, views, total, req.Limit, req.Offset, len(views))
}

// Resync godoc
// @Summary      Force a dataset resync
// @Description  Queues an immediate reconciliation and returns the job that will serve it
// @Tags         masterdata
// @Produce      json
// @Param        key path string true "Dataset key"
// @Success      202 {object} dto.Response{data=ResyncResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /masterdata/datasets/{key}/resync [post]
func (h *MasterdataHandler) Resync(c *gin.Context) {
	key := c.Param("key")
	jobID, err := h.sync.Resync(key)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, ResyncResponse{
		DatasetKey: key,
		JobID:      jobID.String(),
		Status:     "queued",
	})
}

// Rollback godoc
// @Summary      Roll a dataset back one generation
// @Description  Re-promotes the previous snapshot under a fresh version number
// @Tags         masterdata
// @Produce      json
// @Param        key path string true "Dataset key"
// @Success      200 {object} dto.Response{data=SnapshotSummary}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /masterdata/datasets/{key}/rollback [post]
func (h *MasterdataHandler) Rollback(c *gin.Context) {
	snap, err := h.sync.Rollback(c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snapshotSummary(snap))
}

// RegisterRoutes registers masterdata routes
func (h *MasterdataHandler) RegisterRoutes(rg *gin.RouterGroup) {
	datasets := rg.Group("/masterdata/datasets")
	{
		datasets.GET("", h.ListDatasets)
		datasets.GET("/:key", h.GetDataset)
		datasets.GET("/:key/records", h.ListRecords)
		datasets.POST("/:key/resync", h.Resync)
		datasets.POST("/:key/rollback", h.Rollback)
	}
}

func recordView(rec masterdata.Record) RecordView {
	fields := make(map[string]string, len(rec.Fields))
	for name, v := range rec.Fields {
		fields[name] = v.String()
	}
	return RecordView{Row: rec.Row, Fields: fields}
}

func snapshotSummary(snap *masterdata.Snapshot) SnapshotSummary {
	return SnapshotSummary{
		DatasetKey:   snap.DatasetKey,
		Version:      snap.Version,
		Status:       string(snap.Status),
		LoadedAt:     snap.LoadedAt.Format(time.RFC3339),
		ValidCount:   snap.ValidCount(),
		InvalidCount: snap.InvalidTotal,
	}
}
