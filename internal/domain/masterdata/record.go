package masterdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Value is one typed cell of a Record. Exactly one of the payload fields is
// meaningful, selected by Kind.
type Value struct {
	Kind   FieldType       `json:"kind"`
	Text   string          `json:"text,omitempty"`
	Number decimal.Decimal `json:"number,omitempty"`
	Date   time.Time       `json:"date,omitempty"`
}

// TextValue wraps a free-text value
func TextValue(s string) Value {
	return Value{Kind: FieldText, Text: s}
}

// CodeValue wraps an identifier-like value
func CodeValue(s string) Value {
	return Value{Kind: FieldCode, Text: s}
}

// NumericValue wraps a decimal value
func NumericValue(d decimal.Decimal) Value {
	return Value{Kind: FieldNumeric, Number: d}
}

// DateValue wraps a calendar date
func DateValue(t time.Time) Value {
	return Value{Kind: FieldDate, Date: t}
}

// String renders the value in its display form
func (v Value) String() string {
	switch v.Kind {
	case FieldNumeric:
		return v.Number.String()
	case FieldDate:
		if v.Date.IsZero() {
			return ""
		}
		return v.Date.Format("2006-01-02")
	default:
		return v.Text
	}
}

// Decimal returns the numeric payload; zero for non-numeric kinds
func (v Value) Decimal() decimal.Decimal {
	return v.Number
}

// Time returns the date payload; zero for non-date kinds
func (v Value) Time() time.Time {
	return v.Date
}

// IsZero reports whether the value carries no payload
func (v Value) IsZero() bool {
	return v.Text == "" && v.Number.IsZero() && v.Date.IsZero()
}

// Record is one canonical row of a dataset, tagged with its source row
// number. Invalid records are retained with a reason rather than dropped.
type Record struct {
	Row     int              `json:"row"`
	Dataset string           `json:"dataset"`
	Fields  map[string]Value `json:"fields"`
	Err     string           `json:"error,omitempty"`
}

// IsValid reports whether the record passed coercion and required checks
func (r *Record) IsValid() bool {
	return r.Err == ""
}

// Get returns the value for a canonical field
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Text returns the display form of a field, "" when absent
func (r *Record) Text(name string) string {
	if v, ok := r.Fields[name]; ok {
		return v.String()
	}
	return ""
}

// Number returns the decimal value of a numeric field, zero when absent
func (r *Record) Number(name string) decimal.Decimal {
	if v, ok := r.Fields[name]; ok {
		return v.Decimal()
	}
	return decimal.Zero
}

// Date returns the date value of a date field, zero when absent
func (r *Record) Date(name string) time.Time {
	if v, ok := r.Fields[name]; ok {
		return v.Time()
	}
	return time.Time{}
}
