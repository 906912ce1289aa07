package masterdata

import (
	"fmt"
	"sort"
	"strings"
)

// Built-in schema names, one per dataset type.
const (
	SchemaHSCodes     = "hs_codes"
	SchemaTariffRates = "tariff_rates"
	SchemaFTARates    = "fta_rates"
	SchemaTradeItems  = "trade_items"
)

// HSCodeLength is the full length of a Korean tariff schedule item code
const HSCodeLength = 10

// NormalizeHSCode canonicalizes an HS code cell: separator characters are
// stripped, the result must be all digits, and codes that lost leading
// zeros on the spreadsheet side are left-padded back to 10 digits.
func NormalizeHSCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	code = strings.NewReplacer(".", "", "-", "", " ", "").Replace(code)
	if code == "" {
		return "", fmt.Errorf("empty HS code")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("HS code %q contains non-digit characters", raw)
		}
	}
	if len(code) > HSCodeLength {
		return "", fmt.Errorf("HS code %q longer than %d digits", raw, HSCodeLength)
	}
	if len(code) < HSCodeLength {
		code = strings.Repeat("0", HSCodeLength-len(code)) + code
	}
	return code, nil
}

// Alias lists cover the header spellings broker spreadsheets actually use.
// Matching is case-, width- and whitespace-insensitive, so only materially
// distinct variants are listed.

func hsCodesSchema() *CanonicalSchema {
	return &CanonicalSchema{
		Name: SchemaHSCodes,
		Fields: []FieldSpec{
			{Name: "hs_code", Type: FieldCode, Required: true, Normalize: NormalizeHSCode,
				Aliases: []string{"hs code", "hscode", "hs부호", "hs코드", "세번부호", "세번10단위", "품목번호"}},
			{Name: "name_ko", Type: FieldText, Required: true,
				Aliases: []string{"한글품목명", "품목명", "품명", "한글명", "korean name"}},
			{Name: "name_en", Type: FieldText,
				Aliases: []string{"영문품목명", "영문명", "영문품명", "english name"}},
			{Name: "quantity_unit", Type: FieldText,
				Aliases: []string{"수량단위", "quantity unit"}},
			{Name: "weight_unit", Type: FieldText,
				Aliases: []string{"중량단위", "weight unit"}},
		},
	}
}

func tariffRatesSchema() *CanonicalSchema {
	return &CanonicalSchema{
		Name: SchemaTariffRates,
		Fields: []FieldSpec{
			{Name: "hs_code", Type: FieldCode, Required: true, Normalize: NormalizeHSCode,
				Aliases: []string{"hs code", "hscode", "hs부호", "hs코드", "세번부호", "세번10단위"}},
			{Name: "tariff_type", Type: FieldCode, Required: true,
				Aliases: []string{"관세구분", "세율구분", "관세율구분", "구분", "tariff type", "rate type"}},
			{Name: "rate", Type: FieldNumeric, Required: true,
				Aliases: []string{"관세율", "세율", "기본세율", "tariff rate"}},
			{Name: "start_date", Type: FieldDate,
				Aliases: []string{"적용개시일", "적용시작일", "개시일", "start date", "valid from"}},
			{Name: "end_date", Type: FieldDate,
				Aliases: []string{"적용종료일", "종료일", "end date", "valid to"}},
		},
	}
}

func ftaRatesSchema() *CanonicalSchema {
	return &CanonicalSchema{
		Name: SchemaFTARates,
		Fields: []FieldSpec{
			{Name: "hs_code", Type: FieldCode, Required: true, Normalize: NormalizeHSCode,
				Aliases: []string{"hs code", "hscode", "hs부호", "hs코드", "세번부호"}},
			{Name: "agreement", Type: FieldCode, Required: true,
				Aliases: []string{"협정구분", "협정명", "협정", "fta구분", "agreement"}},
			{Name: "rate", Type: FieldNumeric, Required: true,
				Aliases: []string{"협정세율", "fta세율", "양허세율", "preferential rate"}},
			{Name: "country", Type: FieldText,
				Aliases: []string{"상대국", "체약상대국", "국가", "country"}},
			{Name: "year", Type: FieldNumeric,
				Aliases: []string{"적용연도", "연도", "year"}},
		},
	}
}

func tradeItemsSchema() *CanonicalSchema {
	return &CanonicalSchema{
		Name: SchemaTradeItems,
		Fields: []FieldSpec{
			{Name: "trade_id", Type: FieldCode, Required: true,
				Aliases: []string{"거래번호", "관리번호", "trade id", "trade no"}},
			{Name: "hs_code", Type: FieldCode, Required: true, Normalize: NormalizeHSCode,
				Aliases: []string{"hs code", "hscode", "hs부호", "hs코드", "세번부호"}},
			{Name: "name_ko", Type: FieldText, Required: true,
				Aliases: []string{"한글품목명", "품목명", "품명"}},
			{Name: "name_en", Type: FieldText,
				Aliases: []string{"영문품목명", "영문명", "상품명영문"}},
			{Name: "quantity", Type: FieldNumeric,
				Aliases: []string{"수량", "quantity", "qty"}},
			{Name: "unit", Type: FieldText,
				Aliases: []string{"단위", "수량단위", "unit"}},
			{Name: "unit_price", Type: FieldNumeric,
				Aliases: []string{"단가", "unit price"}},
			{Name: "amount", Type: FieldNumeric,
				Aliases: []string{"금액", "총금액", "amount", "total amount"}},
			{Name: "currency", Type: FieldCode,
				Aliases: []string{"통화", "결제통화", "currency"}},
			{Name: "gross_weight", Type: FieldNumeric,
				Aliases: []string{"총중량", "gross weight"}},
			{Name: "net_weight", Type: FieldNumeric,
				Aliases: []string{"순중량", "net weight"}},
			{Name: "incoterms", Type: FieldCode,
				Aliases: []string{"인도조건", "가격조건", "incoterms"}},
			{Name: "origin_country", Type: FieldText,
				Aliases: []string{"원산지", "원산지국", "origin", "origin country"}},
			{Name: "loading_port", Type: FieldText,
				Aliases: []string{"선적항", "loading port"}},
			{Name: "discharge_port", Type: FieldText,
				Aliases: []string{"도착항", "양륙항", "discharge port"}},
			{Name: "trade_date", Type: FieldDate,
				Aliases: []string{"거래일자", "선적일", "trade date"}},
		},
	}
}

var builtinSchemas = map[string]*CanonicalSchema{
	SchemaHSCodes:     hsCodesSchema(),
	SchemaTariffRates: tariffRatesSchema(),
	SchemaFTARates:    ftaRatesSchema(),
	SchemaTradeItems:  tradeItemsSchema(),
}

// SchemaFor returns the built-in schema registered under name
func SchemaFor(name string) (*CanonicalSchema, bool) {
	s, ok := builtinSchemas[name]
	return s, ok
}

// SchemaNames lists the registered schema names in sorted order
func SchemaNames() []string {
	names := make([]string, 0, len(builtinSchemas))
	for name := range builtinSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
