package handler

import (
	"github.com/gin-gonic/gin"

	hscodeapp "github.com/tradeops/masterdata/internal/application/hscode"
)

// HSCodeHandler handles HS code search and lookup API endpoints
type HSCodeHandler struct {
	BaseHandler
	service *hscodeapp.Service
}

// NewHSCodeHandler creates a new HSCodeHandler
func NewHSCodeHandler(service *hscodeapp.Service) *HSCodeHandler {
	return &HSCodeHandler{service: service}
}

// SearchRequest represents an HS code keyword search
// @Description Keyword search parameters
type SearchRequest struct {
	Query string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Search godoc
// @Summary      Search HS codes by keyword
// @Description  Scores records by Korean name, English name, and code prefix matches
// @Tags         hscodes
// @Produce      json
// @Param        q query string true "Search terms, space or comma separated"
// @Param        limit query int false "Maximum results" default(5) maximum(50)
// @Success      200 {object} dto.Response{data=[]hscodeapp.Match}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /hscodes/search [get]
func (h *HSCodeHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	matches, err := h.service.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if matches == nil {
		matches = []hscodeapp.Match{}
	}

	h.Success(c, matches)
}

// Lookup godoc
// @Summary      Look up one HS code
// @Description  Accepts unpadded and punctuated codes; falls back to 8/6/4-digit prefixes
// @Tags         hscodes
// @Produce      json
// @Param        code path string true "HS code, up to 10 digits"
// @Success      200 {object} dto.Response{data=hscodeapp.LookupResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /hscodes/{code} [get]
func (h *HSCodeHandler) Lookup(c *gin.Context) {
	result, err := h.service.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers HS code routes
func (h *HSCodeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	hscodes := rg.Group("/hscodes")
	{
		hscodes.GET("/search", h.Search)
		hscodes.GET("/:code", h.Lookup)
	}
}
