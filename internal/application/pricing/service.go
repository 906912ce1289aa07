// Package pricing computes landed-cost quotes for imports: duty and VAT on
// the CIF value, plus a suggested selling price from a target margin. The
// duty rate defaults to the standing rate in the tariff schedule and the
// margin defaults by HS chapter, so a quote needs nothing beyond an HS code
// and a CIF amount.
package pricing

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// CodeInvalidQuote is used when a quote request fails validation
const CodeInvalidQuote = "INVALID_QUOTE"

// Sources of the duty rate applied to a quote.
const (
	SourceRequest  = "request"
	SourceSchedule = "schedule"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	// vatRate is the Korean VAT applied on the duty-paid value
	vatRate = decimal.RequireFromString("0.10")
)

// marginBands maps HS chapter ranges to default margin rates. Chapters
// outside every band fall back to the general rate.
var marginBands = []struct {
	from, to int
	category string
	rate     int64
}{
	{1, 24, "food", 30},
	{28, 38, "chemicals", 20},
	{50, 63, "textiles", 25},
	{84, 84, "machinery", 18},
	{85, 85, "electronics", 15},
	{90, 92, "electronics", 15},
}

const (
	generalMarginCategory = "general"
	generalMarginRate     = 20
)

// TariffRateSource provides the standing duty rate for an HS code
type TariffRateSource interface {
	BasicRate(ctx context.Context, code string) (decimal.Decimal, error)
}

// QuoteRequest asks for a landed-cost quote. CIF is taken in the buyer's
// settlement currency; rates are percentages. TariffRate and MarginRate are
// optional and default from the schedule and the HS chapter.
type QuoteRequest struct {
	HSCode     string           `json:"hs_code"`
	CIF        decimal.Decimal  `json:"cif"`
	TariffRate *decimal.Decimal `json:"tariff_rate,omitempty"`
	MarginRate *decimal.Decimal `json:"margin_rate,omitempty"`
}

// Quote is a priced import. SuggestedPrice marks the margin up on the
// landed cost; MinimumPrice is the price at which the margin holds as a
// share of the selling price, the break-even floor for negotiations.
type Quote struct {
	HSCode           string          `json:"hs_code"`
	CIF              decimal.Decimal `json:"cif"`
	TariffRate       decimal.Decimal `json:"tariff_rate"`
	TariffRateSource string          `json:"tariff_rate_source"`
	Duty             decimal.Decimal `json:"duty"`
	VAT              decimal.Decimal `json:"vat"`
	LandedCost       decimal.Decimal `json:"landed_cost"`
	MarginRate       decimal.Decimal `json:"margin_rate"`
	MarginCategory   string          `json:"margin_category,omitempty"`
	MarginAmount     decimal.Decimal `json:"margin_amount"`
	SuggestedPrice   decimal.Decimal `json:"suggested_price"`
	MinimumPrice     decimal.Decimal `json:"minimum_price"`
}

// Service prices imports against the tariff schedule
type Service struct {
	rates  TariffRateSource
	logger *zap.Logger
}

// New creates a pricing service over a duty-rate source
func New(rates TariffRateSource, logger *zap.Logger) *Service {
	return &Service{
		rates:  rates,
		logger: logger,
	}
}

// Quote prices one import. Duty is CIF x rate, VAT is 10% of the duty-paid
// value, and the landed cost is their sum. Intermediate math runs at full
// decimal precision; every money field is rounded to 2 digits, with the
// landed cost formed from the rounded duty and VAT so the output lines add
// up exactly.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	code, err := masterdata.NormalizeHSCode(req.HSCode)
	if err != nil {
		return nil, masterdata.WrapError(masterdata.CodeInvalidHSCode, "invalid HS code", err)
	}
	if !req.CIF.IsPositive() {
		return nil, masterdata.NewDomainError(CodeInvalidQuote, "cif must be positive")
	}

	q := &Quote{HSCode: code, CIF: req.CIF}

	if req.TariffRate != nil {
		if req.TariffRate.IsNegative() {
			return nil, masterdata.NewDomainError(CodeInvalidQuote, "tariff_rate cannot be negative")
		}
		q.TariffRate = *req.TariffRate
		q.TariffRateSource = SourceRequest
	} else {
		rate, err := s.rates.BasicRate(ctx, code)
		if err != nil {
			return nil, err
		}
		q.TariffRate = rate
		q.TariffRateSource = SourceSchedule
	}

	if req.MarginRate != nil {
		// 100% margin-of-price has no finite selling price
		if req.MarginRate.IsNegative() || req.MarginRate.GreaterThanOrEqual(hundred) {
			return nil, masterdata.NewDomainError(CodeInvalidQuote, "margin_rate must be at least 0 and below 100")
		}
		q.MarginRate = *req.MarginRate
	} else {
		q.MarginRate, q.MarginCategory = defaultMargin(code)
	}

	q.Duty = q.CIF.Mul(q.TariffRate).Div(hundred).Round(2)
	q.VAT = q.CIF.Add(q.Duty).Mul(vatRate).Round(2)
	q.LandedCost = q.CIF.Add(q.Duty).Add(q.VAT).Round(2)
	q.SuggestedPrice = q.LandedCost.Mul(one.Add(q.MarginRate.Div(hundred))).Round(2)
	q.MarginAmount = q.SuggestedPrice.Sub(q.LandedCost)
	q.MinimumPrice = q.LandedCost.Div(one.Sub(q.MarginRate.Div(hundred))).Round(2)

	s.logger.Debug("pricing quote",
		zap.String("hs_code", code),
		zap.String("tariff_rate_source", q.TariffRateSource),
		zap.String("landed_cost", q.LandedCost.String()))

	return q, nil
}

// defaultMargin returns the chapter-default margin rate for a normalized
// HS code
func defaultMargin(code string) (decimal.Decimal, string) {
	chapter, err := strconv.Atoi(code[:2])
	if err == nil {
		for _, b := range marginBands {
			if chapter >= b.from && chapter <= b.to {
				return decimal.NewFromInt(b.rate), b.category
			}
		}
	}
	return decimal.NewFromInt(generalMarginRate), generalMarginCategory
}
