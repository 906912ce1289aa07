// seedgen writes sample master data CSVs for local development and load
// testing: the four built-in datasets as Korean-headed, BOM-prefixed files
// the sync service can load as-is.
//
// Usage:
//
//	seedgen -dir ./data -rows 500 -invalid 0.02 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/tradeops/tools/seedgen/internal/gen"
)

func main() {
	var (
		dir     = flag.String("dir", "./data", "output directory")
		rows    = flag.Int("rows", 500, "data rows per dataset")
		invalid = flag.Float64("invalid", 0.02, "share of deliberately broken rows, in [0, 1)")
		seed    = flag.Int64("seed", 42, "random seed; the same seed reproduces the same files")
	)
	flag.Parse()

	if err := run(*dir, *rows, *invalid, *seed); err != nil {
		log.Fatal(err)
	}
}

func run(dir string, rows int, invalid float64, seed int64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	g, err := gen.New(seed, gen.Options{Rows: rows, InvalidRate: invalid})
	if err != nil {
		return err
	}

	files := []struct {
		name   string
		header string
		rows   [][]string
	}{
		{"hs_codes.csv", gen.HSCodesHeader, g.HSCodes()},
		{"tariff_rates.csv", gen.TariffRatesHeader, g.TariffRates()},
		{"fta_rates.csv", gen.FTARatesHeader, g.FTARates()},
		{"trade_items.csv", gen.TradeItemsHeader, g.TradeItems()},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := gen.WriteFile(path, f.header, f.rows); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		fmt.Printf("wrote %s (%d rows)\n", path, len(f.rows))
	}
	return nil
}
