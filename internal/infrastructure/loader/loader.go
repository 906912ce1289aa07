// Package loader parses one dataset source file into a snapshot candidate.
// Row-level problems are recorded on the records themselves and never abort
// the load. Retrying is the caller's concern.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
	"github.com/tradeops/masterdata/internal/infrastructure/csvfile"
	"github.com/tradeops/masterdata/internal/infrastructure/mapping"
)

// cancelCheckEvery is the row interval at which the parse loop polls the
// context. Source files run to tens of thousands of rows, so per-row checks
// would be pure overhead.
const cancelCheckEvery = 1024

// Loader turns source files into snapshot candidates
type Loader struct {
	log       *zap.Logger
	threshold float64
}

// Option configures a Loader
type Option func(*Loader)

// WithThreshold overrides the header similarity threshold
func WithThreshold(t float64) Option {
	return func(l *Loader) {
		l.threshold = t
	}
}

// New creates a Loader
func New(log *zap.Logger, opts ...Option) *Loader {
	l := &Loader{
		log:       log,
		threshold: mapping.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the dataset's source file and builds a snapshot candidate.
//
// Failures split into two kinds. Anything the operating system refuses
// (absent file, permissions, a lock held by an editor mid-save) comes back
// as TRANSIENT_IO and is worth retrying. Anything wrong with the bytes
// themselves (empty file, bad encoding, no usable columns, zero valid rows)
// comes back as LOAD_FAILED and will not improve until the file changes.
func (l *Loader) Load(ctx context.Context, ds masterdata.Dataset) (*masterdata.Snapshot, error) {
	if ds.Schema == nil {
		return nil, masterdata.NewLoadError(fmt.Sprintf("dataset %s has no schema", ds.Key))
	}

	data, err := os.ReadFile(ds.Path)
	if err != nil {
		return nil, masterdata.NewTransientIOError(fmt.Sprintf("read %s", ds.Path), err)
	}
	fingerprint := masterdata.FingerprintBytes(data)

	reader, err := csvfile.NewReader(bytes.NewReader(data), csvfile.WithDelimiter(ds.EffectiveDelimiter()))
	if err != nil {
		return nil, masterdata.WrapError(masterdata.CodeLoadFailed, fmt.Sprintf("open %s", ds.Path), err)
	}

	headers, err := reader.ReadHeader()
	if err != nil {
		return nil, masterdata.WrapError(masterdata.CodeLoadFailed, fmt.Sprintf("read header of %s", ds.Path), err)
	}

	report := mapping.Map(headers, ds.Schema, l.threshold)
	if report.MappedFieldCount() == 0 {
		return nil, masterdata.NewLoadError(fmt.Sprintf("no columns of %s match schema %s", ds.Path, ds.Schema.Name))
	}
	l.logMappingGaps(ds, report)

	var (
		records      []masterdata.Record
		invalid      []masterdata.Record
		invalidTotal int
		rowsRead     int
	)
	for {
		if rowsRead%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, masterdata.NewTransientIOError("load interrupted", err)
			}
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, masterdata.WrapError(masterdata.CodeLoadFailed, fmt.Sprintf("malformed record in %s", ds.Path), err)
		}
		rowsRead++

		rec := buildRecord(ds, row, report)
		if rec.IsValid() {
			records = append(records, rec)
			continue
		}
		invalidTotal++
		if len(invalid) < masterdata.MaxInvalidRetained {
			invalid = append(invalid, rec)
		}
	}

	if rowsRead == 0 {
		return nil, masterdata.NewLoadError(fmt.Sprintf("%s has no data rows", ds.Path))
	}
	if len(records) == 0 {
		return nil, masterdata.NewLoadError(fmt.Sprintf("%s yielded no valid records (%d invalid)", ds.Path, invalidTotal))
	}

	snap := masterdata.NewSnapshot(ds.Key, fingerprint, records, invalid, invalidTotal, report)
	l.log.Debug("dataset parsed",
		zap.String("dataset", ds.Key),
		zap.Int("valid", len(records)),
		zap.Int("invalid", invalidTotal),
		zap.String("status", string(snap.Status)),
	)
	return snap, nil
}

// buildRecord assembles one record from a data row using the column mapping.
// Every field failure is collected so the reason string names all of them,
// not just the first.
func buildRecord(ds masterdata.Dataset, row csvfile.Row, report masterdata.MappingReport) masterdata.Record {
	rec := masterdata.Record{
		Row:     row.Line,
		Dataset: ds.Key,
		Fields:  make(map[string]masterdata.Value, len(ds.Schema.Fields)),
	}

	var reasons []string
	for _, field := range ds.Schema.Fields {
		raw := ""
		if col, mapped := report.ColumnFor(field.Name); mapped {
			raw = row.Field(col)
		}
		if raw == "" && !field.Required {
			continue
		}

		value, err := coerceValue(field, raw)
		if err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		rec.Fields[field.Name] = value
	}

	if len(reasons) > 0 {
		rec.Err = strings.Join(reasons, "; ")
	}
	return rec
}

// logMappingGaps reports ambiguous and unmatched-but-required columns once
// per load so a broker renaming a header shows up in the logs before it
// shows up as a wall of invalid records.
func (l *Loader) logMappingGaps(ds masterdata.Dataset, report masterdata.MappingReport) {
	for _, amb := range report.Ambiguous {
		l.log.Warn("ambiguous column mapping, field left unmapped",
			zap.String("dataset", ds.Key),
			zap.String("field", amb.Field),
			zap.Strings("headers", amb.Headers),
		)
	}
	for _, name := range ds.Schema.RequiredFields() {
		if _, ok := report.ColumnFor(name); !ok {
			l.log.Warn("required field has no matching column",
				zap.String("dataset", ds.Key),
				zap.String("field", name),
			)
		}
	}
}
