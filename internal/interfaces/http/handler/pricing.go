package handler

import (
	"github.com/gin-gonic/gin"

	pricingapp "github.com/tradeops/masterdata/internal/application/pricing"
)

// PricingHandler handles landed-cost pricing API endpoints
type PricingHandler struct {
	BaseHandler
	service *pricingapp.Service
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(service *pricingapp.Service) *PricingHandler {
	return &PricingHandler{service: service}
}

// Quote godoc
// @Summary      Price an import
// @Description  Computes duty, VAT, landed cost, and price suggestions for a CIF value. Tariff and margin rates default from the schedule and the HS chapter.
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Param        request body pricingapp.QuoteRequest true "Quote request"
// @Success      200 {object} dto.Response{data=pricingapp.Quote}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /pricing/quote [post]
func (h *PricingHandler) Quote(c *gin.Context) {
	var req pricingapp.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quote, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quote)
}

// RegisterRoutes registers pricing routes
func (h *PricingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pricing := rg.Group("/pricing")
	{
		pricing.POST("/quote", h.Quote)
	}
}
