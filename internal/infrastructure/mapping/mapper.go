// Package mapping resolves the literal header row of a spreadsheet against a
// canonical dataset schema. It is a pure function of its inputs: identical
// headers and schema always produce the identical report.
package mapping

import (
	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// DefaultThreshold is the minimum similarity score for a fuzzy header match.
// Exact matches (after normalization) always score 1.0.
const DefaultThreshold = 0.60

// claim is one column's best field candidate
type claim struct {
	column int
	score  float64
}

// Map binds spreadsheet columns to canonical fields. Per column the best
// field wins if its score reaches the threshold; ties across fields resolve
// to the earliest-declared field. When several columns claim the same field,
// the strictly best column wins and the rest stay unmapped; an exact score
// tie leaves the field unmapped and is reported as an ambiguity. Fields with
// no column are reported as missing, which is not by itself an error.
func Map(headers []string, schema *masterdata.CanonicalSchema, threshold float64) masterdata.MappingReport {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	candidates := fieldCandidates(schema)

	report := masterdata.MappingReport{
		Columns:      make([]masterdata.ColumnBinding, len(headers)),
		FieldColumns: make(map[string]int),
	}

	// Each column independently picks its best field.
	claims := make(map[int][]claim, len(schema.Fields))
	for col, header := range headers {
		report.Columns[col] = masterdata.ColumnBinding{Index: col, Header: header}

		normalized := NormalizeHeader(header)
		if normalized == "" {
			continue
		}

		bestField, bestScore := -1, 0.0
		for fieldIdx, names := range candidates {
			score := scoreField(normalized, names)
			if score > bestScore {
				bestField, bestScore = fieldIdx, score
			}
		}
		if bestField >= 0 && bestScore >= threshold {
			claims[bestField] = append(claims[bestField], claim{column: col, score: bestScore})
		}
	}

	// Resolve fields in declaration order so the report is deterministic.
	for fieldIdx := range schema.Fields {
		cs := claims[fieldIdx]
		if len(cs) == 0 {
			continue
		}
		fieldName := schema.Fields[fieldIdx].Name

		top, tied := cs[0], 1
		for _, c := range cs[1:] {
			switch {
			case c.score > top.score:
				top, tied = c, 1
			case c.score == top.score:
				tied++
			}
		}

		if tied > 1 {
			amb := masterdata.Ambiguity{Field: fieldName, Score: top.score}
			for _, c := range cs {
				if c.score == top.score {
					amb.Headers = append(amb.Headers, headers[c.column])
				}
			}
			report.Ambiguous = append(report.Ambiguous, amb)
			continue
		}

		report.FieldColumns[fieldName] = top.column
		report.Columns[top.column].Field = fieldName
		report.Columns[top.column].Score = top.score
	}

	for _, f := range schema.Fields {
		if _, ok := report.FieldColumns[f.Name]; !ok {
			report.Missing = append(report.Missing, f.Name)
		}
	}
	return report
}

// fieldCandidates pre-normalizes every matchable name per field, primary
// name first.
func fieldCandidates(schema *masterdata.CanonicalSchema) [][]string {
	candidates := make([][]string, len(schema.Fields))
	for i, f := range schema.Fields {
		names := make([]string, 0, len(f.Aliases)+1)
		if n := NormalizeHeader(f.Name); n != "" {
			names = append(names, n)
		}
		for _, alias := range f.Aliases {
			if n := NormalizeHeader(alias); n != "" {
				names = append(names, n)
			}
		}
		candidates[i] = names
	}
	return candidates
}

// scoreField scores a normalized header against one field's candidate names:
// exact equality scores 1.0, otherwise the best of containment ratio and
// bigram similarity.
func scoreField(header string, names []string) float64 {
	best := 0.0
	for _, name := range names {
		if header == name {
			return 1
		}
		if s := containmentScore(header, name); s > best {
			best = s
		}
		if s := diceCoefficient(header, name); s > best {
			best = s
		}
	}
	return best
}
