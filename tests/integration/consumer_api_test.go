// Package integration exercises the master data service end to end.
// This file covers the consumer endpoints: HS code search, duty-rate
// decisions and landed-cost quotes over snapshots the sync pipeline
// actually loaded from disk.
package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hscodeapp "github.com/tradeops/masterdata/internal/application/hscode"
	pricingapp "github.com/tradeops/masterdata/internal/application/pricing"
	tariffapp "github.com/tradeops/masterdata/internal/application/tariff"
	"github.com/tradeops/masterdata/internal/domain/masterdata"
	"github.com/tradeops/masterdata/tests/testutil"
)

func TestConsumerAPI_HSCodeSearch(t *testing.T) {
	ts := NewSyncTestServer(t)

	t.Run("matches by korean name", func(t *testing.T) {
		w := ts.Request(t, http.MethodGet, "/api/v1/hscodes/search?q=말", nil)
		require.Equal(t, http.StatusOK, w.Code)

		matches := testutil.JSONDataAs[[]hscodeapp.Match](t, w)
		require.Len(t, matches, 2)
		assert.Equal(t, "0101210000", matches[0].HSCode)
		assert.Equal(t, "번식용 말", matches[0].NameKo)
		assert.Equal(t, "0101290000", matches[1].HSCode)
		assert.Equal(t, 3.0, matches[0].Score)
	})

	t.Run("matches by english name", func(t *testing.T) {
		w := ts.Request(t, http.MethodGet, "/api/v1/hscodes/search?q=Horses", nil)
		require.Equal(t, http.StatusOK, w.Code)

		matches := testutil.JSONDataAs[[]hscodeapp.Match](t, w)
		require.Len(t, matches, 2)
		assert.Equal(t, "0101210000", matches[0].HSCode)
		assert.Equal(t, 1.5, matches[0].Score)
	})

	t.Run("matches by code prefix", func(t *testing.T) {
		w := ts.Request(t, http.MethodGet, "/api/v1/hscodes/search?q=8528", nil)
		require.Equal(t, http.StatusOK, w.Code)

		matches := testutil.JSONDataAs[[]hscodeapp.Match](t, w)
		require.Len(t, matches, 1)
		assert.Equal(t, "8528721000", matches[0].HSCode)
		assert.Equal(t, 2.0, matches[0].Score)
	})
}

func TestConsumerAPI_HSCodeLookup(t *testing.T) {
	ts := NewSyncTestServer(t)

	t.Run("exact hit with punctuated input", func(t *testing.T) {
		w := ts.Request(t, http.MethodGet, "/api/v1/hscodes/0101.21-0000", nil)
		require.Equal(t, http.StatusOK, w.Code)

		result := testutil.JSONDataAs[hscodeapp.LookupResult](t, w)
		assert.True(t, result.Exact)
		assert.Equal(t, masterdata.HSCodeLength, result.MatchedDigits)
		assert.Equal(t, "번식용 말", result.NameKo)
	})

	t.Run("prefix fallback", func(t *testing.T) {
		w := ts.Request(t, http.MethodGet, "/api/v1/hscodes/0101299999", nil)
		require.Equal(t, http.StatusOK, w.Code)

		result := testutil.JSONDataAs[hscodeapp.LookupResult](t, w)
		assert.False(t, result.Exact)
		assert.Equal(t, 6, result.MatchedDigits)
		assert.Equal(t, "0101290000", result.HSCode)
	})

	t.Run("unknown code", func(t *testing.T) {
		w := ts.Request(t, http.MethodGet, "/api/v1/hscodes/9999999999", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		testutil.AssertErrorResponse(t, w, hscodeapp.CodeHSCodeNotFound)
	})
}

func TestConsumerAPI_TariffDecision(t *testing.T) {
	ts := NewSyncTestServer(t)

	t.Run("classifies and ranks the schedule", func(t *testing.T) {
		w := ts.Request(t, http.MethodGet, "/api/v1/tariff/8528721000", nil)
		require.Equal(t, http.StatusOK, w.Code)

		d := testutil.JSONDataAs[tariffapp.Decision](t, w)
		assert.Equal(t, "8528721000", d.HSCode)
		assert.Equal(t, masterdata.HSCodeLength, d.AppliedDigits)
		assert.Len(t, d.Basic, 2)
		assert.Len(t, d.Special, 1)
		require.Len(t, d.Preferential, 2)
		require.Len(t, d.Ranking, 5)

		require.NotNil(t, d.Lowest)
		assert.Equal(t, "FUS1", d.Lowest.TariffType)
		assert.True(t, d.Lowest.Rate.IsZero())
		assert.Equal(t, 1, d.Lowest.Rank)

		// The fta_rates snapshot joins partner detail onto the US line.
		var fus *tariffapp.PreferentialLine
		for i := range d.Preferential {
			if d.Preferential[i].Agreement == "FUS" {
				fus = &d.Preferential[i]
			}
		}
		require.NotNil(t, fus)
		assert.Equal(t, "한-미국 FTA", fus.AgreementName)
		require.Len(t, fus.PartnerRates, 1)
		assert.Equal(t, "미국", fus.PartnerRates[0].Country)
		assert.Equal(t, 2024, fus.PartnerRates[0].Year)
	})

	t.Run("country narrows preferential lines", func(t *testing.T) {
		w := ts.Request(t, http.MethodGet, "/api/v1/tariff/8528721000?country=US", nil)
		require.Equal(t, http.StatusOK, w.Code)

		d := testutil.JSONDataAs[tariffapp.Decision](t, w)
		assert.Equal(t, "US", d.CountryCode)
		require.Len(t, d.Preferential, 1)
		assert.Equal(t, "FUS", d.Preferential[0].Agreement)
	})

	t.Run("falls back to heading prefix", func(t *testing.T) {
		w := ts.Request(t, http.MethodGet, "/api/v1/tariff/8528729999", nil)
		require.Equal(t, http.StatusOK, w.Code)

		d := testutil.JSONDataAs[tariffapp.Decision](t, w)
		assert.Equal(t, 6, d.AppliedDigits)
		assert.Len(t, d.Ranking, 5)
	})

	t.Run("unknown code", func(t *testing.T) {
		w := ts.Request(t, http.MethodGet, "/api/v1/tariff/9999999999", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		testutil.AssertErrorResponse(t, w, tariffapp.CodeTariffNotFound)
	})
}

func TestConsumerAPI_Agreements(t *testing.T) {
	ts := NewSyncTestServer(t)

	w := ts.Request(t, http.MethodGet, "/api/v1/tariff/meta/agreements?country=VN", nil)
	require.Equal(t, http.StatusOK, w.Code)

	ags := testutil.JSONDataAs[[]tariffapp.Agreement](t, w)
	codes := make([]string, 0, len(ags))
	for _, ag := range ags {
		codes = append(codes, ag.Code)
	}
	assert.Equal(t, []string{"FAS", "FVN", "FRC"}, codes)
}

func TestConsumerAPI_PricingQuote(t *testing.T) {
	ts := NewSyncTestServer(t)

	t.Run("rate from the loaded schedule", func(t *testing.T) {
		body := map[string]interface{}{"hs_code": "8528.72-1000", "cif": 1000}
		w := ts.Request(t, http.MethodPost, "/api/v1/pricing/quote", body)
		require.Equal(t, http.StatusOK, w.Code)

		quote := testutil.JSONDataAs[pricingapp.Quote](t, w)
		assert.Equal(t, "8528721000", quote.HSCode)
		assert.Equal(t, pricingapp.SourceSchedule, quote.TariffRateSource)
		assert.Equal(t, "8", quote.TariffRate.String())
		assert.Equal(t, "80", quote.Duty.String())
		assert.Equal(t, "108", quote.VAT.String())
		assert.Equal(t, "1188", quote.LandedCost.String())
		assert.Equal(t, "electronics", quote.MarginCategory)
		assert.Equal(t, "15", quote.MarginRate.String())
		assert.Equal(t, "1366.2", quote.SuggestedPrice.String())
		assert.Equal(t, "1397.65", quote.MinimumPrice.String())
	})

	t.Run("explicit rate overrides the schedule", func(t *testing.T) {
		body := map[string]interface{}{"hs_code": "8528721000", "cif": 1000, "tariff_rate": 13}
		w := ts.Request(t, http.MethodPost, "/api/v1/pricing/quote", body)
		require.Equal(t, http.StatusOK, w.Code)

		quote := testutil.JSONDataAs[pricingapp.Quote](t, w)
		assert.Equal(t, pricingapp.SourceRequest, quote.TariffRateSource)
		assert.Equal(t, "130", quote.Duty.String())
	})

	t.Run("no schedule entry", func(t *testing.T) {
		body := map[string]interface{}{"hs_code": "9999999999", "cif": 1000}
		w := ts.Request(t, http.MethodPost, "/api/v1/pricing/quote", body)
		require.Equal(t, http.StatusNotFound, w.Code)
		testutil.AssertErrorResponse(t, w, tariffapp.CodeTariffNotFound)
	})
}
