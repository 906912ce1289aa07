// Package tariff turns the tariff_rates and fta_rates snapshots into duty
// rate decisions: which schedule lines apply to an HS code, what each line
// means, and which rate is lowest. Rates are read from the snapshot store,
// so decisions keep working from the last published generation while a
// reload is in flight or a dataset is degraded.
package tariff

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// CodeTariffNotFound is used when no schedule line matches an HS code at
// any prefix length
const CodeTariffNotFound = "TARIFF_NOT_FOUND"

// ErrTariffNotFound is returned when the schedule has no line for the code
var ErrTariffNotFound = masterdata.NewDomainError(CodeTariffNotFound, "no tariff schedule entry for HS code")

// prefixDigits is the fallback order for schedule matching: exact item,
// then heading prefixes of decreasing precision.
var prefixDigits = []int{10, 8, 6, 4}

// RateLine is one schedule row classified for the decision
type RateLine struct {
	TariffType string          `json:"tariff_type"`
	TypeName   string          `json:"type_name"`
	Category   RateCategory    `json:"category"`
	Rate       decimal.Decimal `json:"rate"`
	StartDate  string          `json:"start_date,omitempty"`
	EndDate    string          `json:"end_date,omitempty"`
}

// PartnerRate is one fta_rates row joined onto a preferential line
type PartnerRate struct {
	Country string          `json:"country,omitempty"`
	Rate    decimal.Decimal `json:"rate"`
	Year    int             `json:"year,omitempty"`
}

// PreferentialLine is an FTA schedule row with its agreement context
type PreferentialLine struct {
	RateLine
	Agreement     string        `json:"agreement"`
	AgreementName string        `json:"agreement_name,omitempty"`
	PartnerRates  []PartnerRate `json:"partner_rates,omitempty"`
}

// RankedRate is one candidate in the lowest-rate comparison
type RankedRate struct {
	TariffType string          `json:"tariff_type"`
	TypeName   string          `json:"type_name"`
	Category   RateCategory    `json:"category"`
	Rate       decimal.Decimal `json:"rate"`
	Rank       int             `json:"rank"`
}

// Decision is the full duty-rate picture for one HS code
type Decision struct {
	HSCode        string             `json:"hs_code"`
	AppliedDigits int                `json:"applied_digits"`
	CountryCode   string             `json:"country_code,omitempty"`
	Basic         []RateLine         `json:"basic"`
	Preferential  []PreferentialLine `json:"preferential"`
	Special       []RateLine         `json:"special"`
	Other         []RateLine         `json:"other,omitempty"`
	Ranking       []RankedRate       `json:"ranking"`
	Lowest        *RankedRate        `json:"lowest,omitempty"`
}

// Service derives duty-rate decisions from the current snapshots
type Service struct {
	store  masterdata.SnapshotReader
	logger *zap.Logger
}

// New creates a tariff service over the snapshot store
func New(store masterdata.SnapshotReader, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Decide resolves the duty-rate decision for an HS code. Schedule lines are
// matched with prefix fallback (10, 8, 6, then 4 digits, most specific
// wins), classified into basic, preferential, special and other, and ranked
// ascending by rate. Zero-rated surcharge lines are listed but never ranked.
// A non-empty countryCode narrows the preferential lines to agreements
// covering that country; when none of them do, the full list stands.
func (s *Service) Decide(ctx context.Context, code, countryCode string) (*Decision, error) {
	normalized, err := masterdata.NormalizeHSCode(code)
	if err != nil {
		return nil, masterdata.WrapError(masterdata.CodeInvalidHSCode, "invalid HS code", err)
	}

	snap, err := s.store.Read(masterdata.SchemaTariffRates)
	if err != nil {
		return nil, err
	}

	rows, digits := matchByPrefix(snap.Records, normalized)
	if len(rows) == 0 {
		return nil, ErrTariffNotFound
	}

	partner := s.partnerRates(normalized)

	d := &Decision{
		HSCode:        normalized,
		AppliedDigits: digits,
		CountryCode:   strings.ToUpper(strings.TrimSpace(countryCode)),
	}

	for _, rec := range rows {
		line := RateLine{
			TariffType: rec.Text("tariff_type"),
			Rate:       rec.Number("rate"),
			StartDate:  rec.Text("start_date"),
			EndDate:    rec.Text("end_date"),
		}
		cls := ClassifyType(line.TariffType)
		line.TypeName = cls.TypeName
		line.Category = cls.Category

		switch cls.Category {
		case CategoryFTA:
			pl := PreferentialLine{
				RateLine:     line,
				Agreement:    cls.Agreement,
				PartnerRates: partner[cls.Agreement],
			}
			if ag, ok := AgreementFor(cls.Agreement); ok {
				pl.AgreementName = ag.Name
			}
			d.Preferential = append(d.Preferential, pl)
		case CategoryBasic:
			d.Basic = append(d.Basic, line)
		case CategorySpecial:
			d.Special = append(d.Special, line)
		default:
			d.Other = append(d.Other, line)
		}
	}

	if d.CountryCode != "" {
		d.Preferential = filterByCountry(d.Preferential, d.CountryCode)
	}

	d.rank()

	s.logger.Debug("tariff decision",
		zap.String("hs_code", normalized),
		zap.Int("applied_digits", digits),
		zap.Int("lines", len(rows)),
		zap.Uint64("snapshot_version", snap.Version))

	return d, nil
}

// BasicRate returns the standing duty rate for an HS code: the basic (A)
// rate when present, otherwise the WTO bound (U) rate, otherwise the
// provisional (B) rate.
func (s *Service) BasicRate(ctx context.Context, code string) (decimal.Decimal, error) {
	d, err := s.Decide(ctx, code, "")
	if err != nil {
		return decimal.Zero, err
	}
	for _, letter := range []byte{'A', 'U', 'B'} {
		for _, line := range d.Basic {
			if line.TariffType != "" && line.TariffType[0] == letter {
				return line.Rate, nil
			}
		}
	}
	return decimal.Zero, masterdata.NewDomainError(CodeTariffNotFound, "no standing duty rate for HS code "+d.HSCode)
}

// rank builds the lowest-rate comparison across all classified lines.
// Unclassifiable lines stay out; zero-rated surcharges mean "not applied"
// and stay out as well.
func (d *Decision) rank() {
	var candidates []RankedRate
	add := func(typ, name string, cat RateCategory, rate decimal.Decimal) {
		candidates = append(candidates, RankedRate{TariffType: typ, TypeName: name, Category: cat, Rate: rate})
	}
	for _, l := range d.Basic {
		add(l.TariffType, l.TypeName, l.Category, l.Rate)
	}
	for _, l := range d.Preferential {
		add(l.TariffType, l.TypeName, l.Category, l.Rate)
	}
	for _, l := range d.Special {
		if isAdditive(l.TariffType) && l.Rate.IsZero() {
			continue
		}
		add(l.TariffType, l.TypeName, l.Category, l.Rate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Rate.LessThan(candidates[j].Rate)
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	d.Ranking = candidates
	if len(candidates) > 0 {
		d.Lowest = &candidates[0]
	}
}

// partnerRates joins the fta_rates snapshot by HS code and groups the rows
// by agreement stem. The dataset is optional for a decision: without it the
// preferential lines simply carry no partner detail.
func (s *Service) partnerRates(code string) map[string][]PartnerRate {
	snap, err := s.store.Read(masterdata.SchemaFTARates)
	if err != nil {
		s.logger.Debug("fta_rates unavailable for join", zap.Error(err))
		return nil
	}

	rows, _ := matchByPrefix(snap.Records, code)
	out := make(map[string][]PartnerRate, len(rows))
	for _, rec := range rows {
		stem := stripDigits(strings.ToUpper(rec.Text("agreement")))
		if stem == "" {
			continue
		}
		out[stem] = append(out[stem], PartnerRate{
			Country: rec.Text("country"),
			Rate:    rec.Number("rate"),
			Year:    int(rec.Number("year").IntPart()),
		})
	}
	return out
}

// matchByPrefix returns the records sharing the longest prefix with code,
// together with the prefix length that matched
func matchByPrefix(records []masterdata.Record, code string) ([]*masterdata.Record, int) {
	for _, digits := range prefixDigits {
		prefix := code[:digits]
		var rows []*masterdata.Record
		for i := range records {
			if strings.HasPrefix(records[i].Text("hs_code"), prefix) {
				rows = append(rows, &records[i])
			}
		}
		if len(rows) > 0 {
			return rows, digits
		}
	}
	return nil, 0
}

// filterByCountry narrows preferential lines to agreements covering the
// country. Lines survive unfiltered when no agreement matches, so an
// unexpected country code widens the answer instead of hiding rates.
func filterByCountry(lines []PreferentialLine, countryCode string) []PreferentialLine {
	allowed := make(map[string]bool)
	for _, ag := range AgreementsForCountry(countryCode) {
		allowed[ag.Code] = true
	}

	var filtered []PreferentialLine
	for _, pl := range lines {
		if allowed[pl.Agreement] {
			filtered = append(filtered, pl)
		}
	}
	if len(filtered) == 0 {
		return lines
	}
	return filtered
}
