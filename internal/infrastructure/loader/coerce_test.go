package loader

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

func TestParseNumeric(t *testing.T) {
	t.Run("accepts plain and signed decimals", func(t *testing.T) {
		cases := map[string]string{
			"8":      "8",
			"8%":     "8",
			"13.6 %": "13.6",
			"-1.5":   "-1.5",
			"+2":     "2",
			"0.00":   "0",
			"0":      "0",
		}
		for raw, want := range cases {
			d, err := parseNumeric(raw)
			require.NoError(t, err, raw)
			expected, err := decimal.NewFromString(want)
			require.NoError(t, err)
			assert.True(t, d.Equal(expected), "parseNumeric(%q) = %s, want %s", raw, d, want)
		}
	})

	t.Run("rejects ambiguous and malformed input", func(t *testing.T) {
		for _, raw := range []string{"1,234", "1.234,5", "1.2.3", "abc", "", "%", "1e5", "--2", "."} {
			_, err := parseNumeric(raw)
			assert.Error(t, err, "parseNumeric(%q) should fail", raw)
		}
	})
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("accepts all four layouts", func(t *testing.T) {
		for _, raw := range []string{"2024-03-15", "2024.03.15", "2024/03/15", "20240315"} {
			got, err := parseDate(raw)
			require.NoError(t, err, raw)
			assert.True(t, got.Equal(want), "parseDate(%q) = %s", raw, got)
		}
	})

	t.Run("rejects other shapes", func(t *testing.T) {
		for _, raw := range []string{"15-03-2024", "2024-13-01", "2024-03", "yesterday", ""} {
			_, err := parseDate(raw)
			assert.Error(t, err, "parseDate(%q) should fail", raw)
		}
	})
}

func TestCoerceValue(t *testing.T) {
	t.Run("fails a required field on empty input", func(t *testing.T) {
		spec := masterdata.FieldSpec{Name: "rate", Type: masterdata.FieldNumeric, Required: true}
		_, err := coerceValue(spec, "  ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate")
		assert.Contains(t, err.Error(), "required value is missing")
	})

	t.Run("returns a zero value for an empty optional field", func(t *testing.T) {
		spec := masterdata.FieldSpec{Name: "end_date", Type: masterdata.FieldDate}
		v, err := coerceValue(spec, "")
		require.NoError(t, err)
		assert.True(t, v.IsZero())
		assert.Equal(t, masterdata.FieldDate, v.Kind)
	})

	t.Run("uppercases code fields", func(t *testing.T) {
		spec := masterdata.FieldSpec{Name: "currency", Type: masterdata.FieldCode}
		v, err := coerceValue(spec, " krw ")
		require.NoError(t, err)
		assert.Equal(t, "KRW", v.String())
	})

	t.Run("applies the field normalizer", func(t *testing.T) {
		spec := masterdata.FieldSpec{
			Name: "hs_code", Type: masterdata.FieldCode, Required: true,
			Normalize: masterdata.NormalizeHSCode,
		}
		v, err := coerceValue(spec, "0101.21-0000")
		require.NoError(t, err)
		assert.Equal(t, "0101210000", v.String())

		_, err = coerceValue(spec, "no-digits")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hs_code")
	})

	t.Run("names the field in coercion failures", func(t *testing.T) {
		spec := masterdata.FieldSpec{Name: "rate", Type: masterdata.FieldNumeric}
		_, err := coerceValue(spec, "1,234")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field rate")
	})

	t.Run("trims text fields", func(t *testing.T) {
		spec := masterdata.FieldSpec{Name: "name_ko", Type: masterdata.FieldText}
		v, err := coerceValue(spec, "  소  ")
		require.NoError(t, err)
		assert.Equal(t, "소", v.String())
	})
}
