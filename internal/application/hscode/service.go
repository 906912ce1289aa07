// Package hscode answers keyword searches and code lookups over the
// hs_codes snapshot. All reads go through the snapshot store, so a degraded
// dataset keeps serving its last published generation.
package hscode

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// CodeHSCodeNotFound is used when neither an exact nor a prefix match exists
const CodeHSCodeNotFound = "HS_CODE_NOT_FOUND"

// ErrHSCodeNotFound is returned when a lookup matches no schedule entry
var ErrHSCodeNotFound = masterdata.NewDomainError(CodeHSCodeNotFound, "HS code not found")

// Search scoring weights. A record accumulates weight per query term: the
// Korean item name is the primary signal, the English name is secondary,
// and an all-digit term scores as a code prefix.
const (
	weightNameKo     = 3.0
	weightNameEn     = 1.5
	weightCodePrefix = 2.0
)

const (
	// DefaultLimit is the number of matches returned when none is requested
	DefaultLimit = 5
	// MaxLimit caps the number of matches a single search may return
	MaxLimit = 50

	// minScoreRatio drops trailing matches scoring below this share of the
	// best match, so one strong hit is not diluted by dozens of weak ones.
	minScoreRatio = 0.5
)

// Item is one entry of the Korean tariff schedule
type Item struct {
	HSCode       string `json:"hs_code"`
	NameKo       string `json:"name_ko"`
	NameEn       string `json:"name_en,omitempty"`
	QuantityUnit string `json:"quantity_unit,omitempty"`
	WeightUnit   string `json:"weight_unit,omitempty"`
}

// Match is one search hit with its accumulated score
type Match struct {
	Item
	Score float64 `json:"score"`
}

// LookupResult is the outcome of a code lookup. MatchedDigits is 10 for an
// exact hit and the applied prefix length when the lookup fell back.
type LookupResult struct {
	Item
	Exact         bool `json:"exact"`
	MatchedDigits int  `json:"matched_digits"`
}

// Service resolves HS classification queries against the current snapshot
type Service struct {
	store  masterdata.SnapshotReader
	logger *zap.Logger
}

// New creates an HS code service over the snapshot store
func New(store masterdata.SnapshotReader, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Search scores every record of the hs_codes snapshot against the query
// terms and returns the best matches, ordered by score then code. A limit
// of zero requests DefaultLimit; anything above MaxLimit is capped.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	terms := splitTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	snap, err := s.store.Read(masterdata.SchemaHSCodes)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for i := range snap.Records {
		rec := &snap.Records[i]
		score := scoreRecord(rec, terms)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{Item: itemFrom(rec), Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].HSCode < matches[j].HSCode
	})

	if len(matches) > 0 {
		cutoff := matches[0].Score * minScoreRatio
		kept := matches[:0]
		for _, m := range matches {
			if m.Score >= cutoff {
				kept = append(kept, m)
			}
		}
		matches = kept
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	s.logger.Debug("hs code search",
		zap.String("query", query),
		zap.Int("terms", len(terms)),
		zap.Int("returned", len(matches)),
		zap.Uint64("snapshot_version", snap.Version))

	return matches, nil
}

// Lookup resolves a single HS code. Separators are stripped and short codes
// are left-padded, so spreadsheet-mangled inputs like "101.21-0000" resolve.
// Without an exact hit the lookup falls back to the longest matching prefix
// at 8, 6 and 4 digits.
func (s *Service) Lookup(ctx context.Context, code string) (*LookupResult, error) {
	normalized, err := masterdata.NormalizeHSCode(code)
	if err != nil {
		return nil, masterdata.WrapError(masterdata.CodeInvalidHSCode, "invalid HS code", err)
	}

	snap, err := s.store.Read(masterdata.SchemaHSCodes)
	if err != nil {
		return nil, err
	}

	for i := range snap.Records {
		rec := &snap.Records[i]
		if rec.Text("hs_code") == normalized {
			return &LookupResult{Item: itemFrom(rec), Exact: true, MatchedDigits: masterdata.HSCodeLength}, nil
		}
	}

	for _, digits := range []int{8, 6, 4} {
		prefix := normalized[:digits]
		var best *masterdata.Record
		for i := range snap.Records {
			rec := &snap.Records[i]
			if !strings.HasPrefix(rec.Text("hs_code"), prefix) {
				continue
			}
			if best == nil || rec.Text("hs_code") < best.Text("hs_code") {
				best = rec
			}
		}
		if best != nil {
			s.logger.Debug("hs code resolved by prefix",
				zap.String("requested", normalized),
				zap.Int("matched_digits", digits))
			return &LookupResult{Item: itemFrom(best), MatchedDigits: digits}, nil
		}
	}

	return nil, ErrHSCodeNotFound
}

// splitTerms breaks a query into scoring terms on whitespace and commas
func splitTerms(query string) []string {
	return strings.Fields(strings.ReplaceAll(query, ",", " "))
}

// scoreRecord accumulates the per-term weights for one record. Korean name
// matching is exact-case (Hangul has no case), English matching folds case,
// and all-digit terms match as code prefixes.
func scoreRecord(rec *masterdata.Record, terms []string) float64 {
	nameKo := rec.Text("name_ko")
	nameEn := strings.ToLower(rec.Text("name_en"))
	code := rec.Text("hs_code")

	var score float64
	for _, term := range terms {
		if strings.Contains(nameKo, term) {
			score += weightNameKo
		}
		if nameEn != "" && strings.Contains(nameEn, strings.ToLower(term)) {
			score += weightNameEn
		}
		if isDigits(term) && strings.HasPrefix(code, term) {
			score += weightCodePrefix
		}
	}
	return score
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func itemFrom(rec *masterdata.Record) Item {
	return Item{
		HSCode:       rec.Text("hs_code"),
		NameKo:       rec.Text("name_ko"),
		NameEn:       rec.Text("name_en"),
		QuantityUnit: rec.Text("quantity_unit"),
		WeightUnit:   rec.Text("weight_unit"),
	}
}
