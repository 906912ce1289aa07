package handler

import (
	"github.com/gin-gonic/gin"

	tariffapp "github.com/tradeops/masterdata/internal/application/tariff"
)

// TariffHandler handles tariff decision API endpoints
type TariffHandler struct {
	BaseHandler
	service *tariffapp.Service
}

// NewTariffHandler creates a new TariffHandler
func NewTariffHandler(service *tariffapp.Service) *TariffHandler {
	return &TariffHandler{service: service}
}

// Decide godoc
// @Summary      Decide tariff rates for an HS code
// @Description  Classifies all schedule rows for the code into basic, preferential, and special buckets and ranks the applicable candidates
// @Tags         tariff
// @Produce      json
// @Param        code path string true "HS code, up to 10 digits"
// @Param        country query string false "ISO country code filter for preferential rates"
// @Success      200 {object} dto.Response{data=tariffapp.Decision}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tariff/{code} [get]
func (h *TariffHandler) Decide(c *gin.Context) {
	decision, err := h.service.Decide(c.Request.Context(), c.Param("code"), c.Query("country"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, decision)
}

// Agreements godoc
// @Summary      List FTA agreements
// @Description  Returns the static agreement table, optionally filtered to one partner country
// @Tags         tariff
// @Produce      json
// @Param        country query string false "ISO country code"
// @Success      200 {object} dto.Response{data=[]tariffapp.Agreement}
// @Router       /tariff/meta/agreements [get]
func (h *TariffHandler) Agreements(c *gin.Context) {
	if country := c.Query("country"); country != "" {
		h.Success(c, tariffapp.AgreementsForCountry(country))
		return
	}
	h.Success(c, tariffapp.Agreements())
}

// RegisterRoutes registers tariff routes
func (h *TariffHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tariff := rg.Group("/tariff")
	{
		tariff.GET("/meta/agreements", h.Agreements)
		tariff.GET("/:code", h.Decide)
	}
}
