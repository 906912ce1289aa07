// Package gen produces sample master data CSVs shaped like Korean customs
// spreadsheet exports: UTF-8 with a BOM, Korean headers, and an optional
// share of deliberately broken rows to exercise validation paths.
package gen

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
)

// Header rows matching the sync service's built-in dataset schemas.
const (
	HSCodesHeader     = "HS부호,한글품목명,영문품목명,수량단위,중량단위"
	TariffRatesHeader = "HS부호,관세구분,관세율,적용개시일"
	FTARatesHeader    = "HS부호,협정구분,협정세율,상대국,적용연도"
	TradeItemsHeader  = "거래번호,HS부호,한글품목명,수량,단가,금액,통화"
)

// utf8BOM is the byte order mark Excel prepends to CSV exports.
const utf8BOM = "\xEF\xBB\xBF"

// Options control generation volume and brokenness.
type Options struct {
	// Rows is the number of data rows per file.
	Rows int

	// InvalidRate is the share of rows written deliberately broken,
	// in [0, 1). Broken rows have an empty required cell, a mangled
	// HS code or a non-numeric amount.
	InvalidRate float64
}

// Generator produces dataset rows from a seeded random source. The HS code
// universe is fixed at construction so tariff, FTA and trade rows reference
// codes that exist in the item master.
type Generator struct {
	rng   *rand.Rand
	opts  Options
	codes []string
}

// New creates a generator. The same seed and options always produce the
// same files.
func New(seed int64, opts Options) (*Generator, error) {
	if opts.Rows < 1 {
		return nil, fmt.Errorf("rows must be positive, got %d", opts.Rows)
	}
	if opts.InvalidRate < 0 || opts.InvalidRate >= 1 {
		return nil, fmt.Errorf("invalid rate must be in [0, 1), got %g", opts.InvalidRate)
	}

	g := &Generator{
		rng:  rand.New(rand.NewSource(seed)),
		opts: opts,
	}
	g.codes = g.codeUniverse()
	return g, nil
}

// Codes returns the HS code universe the generated datasets draw from.
func (g *Generator) Codes() []string {
	out := make([]string, len(g.codes))
	copy(out, g.codes)
	return out
}

// Item name vocabulary, paired Korean and English.
var itemNames = [][2]string{
	{"번식용 말", "Pure-bred breeding horses"},
	{"냉동 소고기", "Frozen bovine meat"},
	{"신선 마늘", "Fresh garlic"},
	{"폴리에틸렌", "Polyethylene in primary forms"},
	{"합성수지 원료", "Synthetic resin raw material"},
	{"면직물", "Woven fabrics of cotton"},
	{"휴대용 컴퓨터", "Portable automatic data processing machines"},
	{"컬러 텔레비전", "Colour television reception apparatus"},
	{"리튬이온 축전지", "Lithium-ion accumulators"},
	{"자동차 부분품", "Parts of motor vehicles"},
	{"광학 렌즈", "Optical lenses"},
	{"의료용 기기", "Medical instruments and appliances"},
}

// Heading stems from chapters the margin bands and classifier know about.
var headingStems = []string{
	"0101", "0202", "0703", "2815", "3901", "5208",
	"8471", "8507", "8528", "8708", "9001", "9018",
}

var (
	quantityUnits = []string{"두(HD)", "대(ST)", "개(EA)", "kg", "L"}
	weightUnits   = []string{"톤(TON)", "kg"}
	basicTypes    = []string{"A", "U", "B"}
	ftaTypes      = []string{"FUS1", "FCN1", "FVN1", "FEU1", "FAS1"}
	specialTypes  = []string{"C2", "R1", "E1"}
	rates         = []string{"0", "3", "5", "6.5", "8", "13", "20", "27"}
	countries     = []string{"미국", "중국", "베트남", "독일", "일본"}
	currencies    = []string{"USD", "KRW", "EUR", "JPY", "CNY"}
)

// codeUniverse builds Rows/4 distinct ten-digit codes, at least one per
// heading stem so every chapter shows up.
func (g *Generator) codeUniverse() []string {
	n := g.opts.Rows / 4
	if n < len(headingStems) {
		n = len(headingStems)
	}

	seen := make(map[string]bool, n)
	codes := make([]string, 0, n)
	for len(codes) < n {
		stem := headingStems[len(codes)%len(headingStems)]
		code := fmt.Sprintf("%s%06d", stem, g.rng.Intn(1000000))
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

func (g *Generator) pickCode() string {
	return g.codes[g.rng.Intn(len(g.codes))]
}

func (g *Generator) pickDate() string {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, g.rng.Intn(365)).Format("2006-01-02")
}

func (g *Generator) broken() bool {
	return g.rng.Float64() < g.opts.InvalidRate
}

// HSCodes generates item master rows. Broken variants carry a mangled code
// or an empty Korean name.
func (g *Generator) HSCodes() [][]string {
	rows := make([][]string, 0, g.opts.Rows)
	for i := 0; i < g.opts.Rows; i++ {
		name := itemNames[g.rng.Intn(len(itemNames))]
		row := []string{
			g.pickCode(),
			name[0],
			name[1],
			quantityUnits[g.rng.Intn(len(quantityUnits))],
			weightUnits[g.rng.Intn(len(weightUnits))],
		}
		if g.broken() {
			if g.rng.Intn(2) == 0 {
				row[0] = "01X" + row[0][3:]
			} else {
				row[1] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// TariffRates generates schedule rows: mostly basic rates with FTA and
// surcharge lines mixed in. Broken variants have a non-numeric rate or an
// empty type code.
func (g *Generator) TariffRates() [][]string {
	rows := make([][]string, 0, g.opts.Rows)
	for i := 0; i < g.opts.Rows; i++ {
		typ := basicTypes[g.rng.Intn(len(basicTypes))]
		switch g.rng.Intn(10) {
		case 0, 1, 2:
			typ = ftaTypes[g.rng.Intn(len(ftaTypes))]
		case 3:
			typ = specialTypes[g.rng.Intn(len(specialTypes))]
		}

		row := []string{
			g.pickCode(),
			typ,
			rates[g.rng.Intn(len(rates))],
			g.pickDate(),
		}
		if g.broken() {
			if g.rng.Intn(2) == 0 {
				row[2] = "미정"
			} else {
				row[1] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// FTARates generates agreement schedule rows joined to the same code
// universe. Broken variants have a non-numeric rate.
func (g *Generator) FTARates() [][]string {
	rows := make([][]string, 0, g.opts.Rows)
	for i := 0; i < g.opts.Rows; i++ {
		row := []string{
			g.pickCode(),
			ftaTypes[g.rng.Intn(len(ftaTypes))],
			rates[g.rng.Intn(len(rates))],
			countries[g.rng.Intn(len(countries))],
			fmt.Sprintf("%d", 2023+g.rng.Intn(3)),
		}
		if g.broken() {
			row[2] = "협정참조"
		}
		rows = append(rows, row)
	}
	return rows
}

// TradeItems generates declaration line rows. Amounts are quantity times
// unit price in whole currency units so the numbers reconcile. Broken
// variants have a non-numeric quantity or an empty trade number.
func (g *Generator) TradeItems() [][]string {
	rows := make([][]string, 0, g.opts.Rows)
	for i := 0; i < g.opts.Rows; i++ {
		name := itemNames[g.rng.Intn(len(itemNames))]
		qty := 1 + g.rng.Intn(500)
		unitPrice := 100 + g.rng.Intn(99900)

		row := []string{
			fmt.Sprintf("IM2024-%05d", i+1),
			g.pickCode(),
			name[0],
			fmt.Sprintf("%d", qty),
			fmt.Sprintf("%d", unitPrice),
			fmt.Sprintf("%d", qty*unitPrice),
			currencies[g.rng.Intn(len(currencies))],
		}
		if g.broken() {
			if g.rng.Intn(2) == 0 {
				row[3] = "수량미상"
			} else {
				row[0] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteFile writes a BOM-prefixed CSV with the header and rows.
func WriteFile(path, header string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := f.WriteString(utf8BOM); err != nil {
		f.Close()
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(strings.Split(header, ",")); err != nil {
		f.Close()
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
