package loader

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// Date layouts accepted for date fields. Anything else is rejected rather
// than guessed, brokers export dates in one of these four shapes.
var dateLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"20060102",
}

// coerceValue converts one raw cell into a typed value for the given field.
// An empty cell on an optional field yields a zero value, an empty cell on a
// required field is an error.
func coerceValue(spec masterdata.FieldSpec, raw string) (masterdata.Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if spec.Required {
			return masterdata.Value{}, fmt.Errorf("field %s: required value is missing", spec.Name)
		}
		return masterdata.Value{Kind: spec.Type}, nil
	}

	switch spec.Type {
	case masterdata.FieldNumeric:
		d, err := parseNumeric(raw)
		if err != nil {
			return masterdata.Value{}, fmt.Errorf("field %s: %w", spec.Name, err)
		}
		return masterdata.NumericValue(d), nil

	case masterdata.FieldDate:
		t, err := parseDate(raw)
		if err != nil {
			return masterdata.Value{}, fmt.Errorf("field %s: %w", spec.Name, err)
		}
		return masterdata.DateValue(t), nil

	case masterdata.FieldCode:
		code := strings.ToUpper(raw)
		if spec.Normalize != nil {
			normalized, err := spec.Normalize(code)
			if err != nil {
				return masterdata.Value{}, fmt.Errorf("field %s: %w", spec.Name, err)
			}
			code = normalized
		}
		return masterdata.CodeValue(code), nil

	default:
		return masterdata.TextValue(raw), nil
	}
}

// parseNumeric accepts an optional sign, decimal digits, and at most one
// decimal point, with an optional trailing percent sign (tariff sheets list
// rates as "8%"). Thousands separators are rejected outright: "1,234" is
// ambiguous between locales and silently guessing corrupts rates.
func parseNumeric(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("not a number: %q", raw)
	}
	if strings.ContainsRune(s, ',') {
		return decimal.Decimal{}, fmt.Errorf("ambiguous thousands separator in %q", raw)
	}

	body := s
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	digits := 0
	dots := 0
	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return decimal.Decimal{}, fmt.Errorf("not a number: %q", raw)
		}
	}
	if digits == 0 || dots > 1 {
		return decimal.Decimal{}, fmt.Errorf("not a number: %q", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a number: %q", raw)
	}
	return d, nil
}

// parseDate tries each accepted layout in order
func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not a date: %q", raw)
}
