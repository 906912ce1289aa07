package masterdata

import (
	"time"

	"github.com/google/uuid"
)

// SnapshotStatus describes the outcome of the load that produced a snapshot
type SnapshotStatus string

const (
	// StatusOK means every source row produced a valid record
	StatusOK SnapshotStatus = "OK"
	// StatusPartial means some rows were rejected but the snapshot is servable
	StatusPartial SnapshotStatus = "PARTIAL"
)

// MaxInvalidRetained bounds the rejected records kept per snapshot for
// diagnostics; the total count is tracked separately.
const MaxInvalidRetained = 100

// ColumnBinding records how one source column was resolved against the schema
type ColumnBinding struct {
	Index  int     `json:"index"`
	Header string  `json:"header"`
	Field  string  `json:"field,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// Ambiguity records a header-mapping tie: two or more columns matched the
// same canonical field with equal score, so the field was left unmapped.
type Ambiguity struct {
	Field   string   `json:"field"`
	Headers []string `json:"headers"`
	Score   float64  `json:"score"`
}

// MappingReport is the Column Mapper's full account of one header row
type MappingReport struct {
	Columns      []ColumnBinding `json:"columns"`
	Missing      []string        `json:"missing,omitempty"`
	Ambiguous    []Ambiguity     `json:"ambiguous,omitempty"`
	FieldColumns map[string]int  `json:"-"`
}

// MappedFieldCount returns how many canonical fields found a source column
func (m *MappingReport) MappedFieldCount() int {
	return len(m.FieldColumns)
}

// ColumnFor returns the source column index bound to a canonical field
func (m *MappingReport) ColumnFor(field string) (int, bool) {
	idx, ok := m.FieldColumns[field]
	return idx, ok
}

// Snapshot is an immutable, versioned, fully parsed view of a dataset at one
// point in time. Version and publish order are assigned by the cache store;
// a snapshot must be treated as read-only once published.
type Snapshot struct {
	ID           uuid.UUID      `json:"id"`
	DatasetKey   string         `json:"dataset_key"`
	Version      uint64         `json:"version"`
	Fingerprint  string         `json:"fingerprint"`
	LoadedAt     time.Time      `json:"loaded_at"`
	Status       SnapshotStatus `json:"status"`
	Records      []Record       `json:"-"`
	Invalid      []Record       `json:"-"`
	InvalidTotal int            `json:"invalid_total"`
	Mapping      MappingReport  `json:"mapping"`
}

// NewSnapshot assembles an unversioned snapshot candidate from a load run.
// records holds valid rows in source order; invalid holds up to
// MaxInvalidRetained rejected rows, with invalidTotal the true count.
func NewSnapshot(datasetKey, fingerprint string, records, invalid []Record, invalidTotal int, mapping MappingReport) *Snapshot {
	status := StatusOK
	if invalidTotal > 0 {
		status = StatusPartial
	}
	return &Snapshot{
		ID:           uuid.New(),
		DatasetKey:   datasetKey,
		Fingerprint:  fingerprint,
		LoadedAt:     time.Now().UTC(),
		Status:       status,
		Records:      records,
		Invalid:      invalid,
		InvalidTotal: invalidTotal,
		Mapping:      mapping,
	}
}

// ValidCount returns the number of servable records
func (s *Snapshot) ValidCount() int {
	return len(s.Records)
}

// InvalidCount returns the total number of rejected rows
func (s *Snapshot) InvalidCount() int {
	return s.InvalidTotal
}

// TotalRows returns the number of non-header rows read from the source
func (s *Snapshot) TotalRows() int {
	return len(s.Records) + s.InvalidTotal
}

// IsTruncated reports whether rejected-record diagnostics were capped
func (s *Snapshot) IsTruncated() bool {
	return s.InvalidTotal > len(s.Invalid)
}
