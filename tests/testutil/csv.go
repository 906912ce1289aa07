package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Header rows matching the built-in dataset schemas, spelled the way
// Korean customs spreadsheet exports spell them.
const (
	HSCodesHeader     = "HS부호,한글품목명,영문품목명,수량단위,중량단위"
	TariffRatesHeader = "HS부호,관세구분,관세율,적용개시일"
	FTARatesHeader    = "HS부호,협정구분,협정세율,상대국,적용연도"
	TradeItemsHeader  = "거래번호,HS부호,한글품목명,수량,단가,금액,통화"
)

// utf8BOM is the byte order mark Excel prepends to CSV exports.
const utf8BOM = "\xEF\xBB\xBF"

// WriteCSV writes a BOM-prefixed CSV file with the given header and rows.
// The write goes through a temp file and rename so a file watcher never
// fingerprints a half-written file.
func WriteCSV(t *testing.T, path, header string, rows ...string) {
	t.Helper()

	var b strings.Builder
	b.WriteString(utf8BOM)
	b.WriteString(header)
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(row)
		b.WriteString("\n")
	}

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(b.String()), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

// WriteDataset writes a CSV fixture named <key>.csv under dir and returns
// its path.
func WriteDataset(t *testing.T, dir, key, header string, rows ...string) string {
	t.Helper()

	path := filepath.Join(dir, key+".csv")
	WriteCSV(t, path, header, rows...)
	return path
}
