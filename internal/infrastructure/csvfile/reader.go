// Package csvfile reads spreadsheet exports: UTF-8 CSV with an optional BOM,
// one header row, and data records that may be ragged (editors drop trailing
// empty cells on save).
package csvfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for structurally unusable input.
var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	ErrMissingHeader   = errors.New("file has no header row")
)

const (
	bomByte1 = 0xEF
	bomByte2 = 0xBB
	bomByte3 = 0xBF

	encodingProbeSize = 4096
)

// Row is one data record with its ordinal position in the file. The header
// is row 1, so the first data record is row 2. Records with quoted newlines
// count as one row.
type Row struct {
	Line   int
	Fields []string
}

// Field returns the trimmed cell at index i, "" when the record is short
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return strings.TrimSpace(r.Fields[i])
}

// IsEmpty reports whether every cell of the record is blank
func (r Row) IsEmpty() bool {
	for _, f := range r.Fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Option configures a Reader
type Option func(*Reader)

// WithDelimiter sets the field delimiter (default comma)
func WithDelimiter(d rune) Option {
	return func(r *Reader) {
		r.csv.Comma = d
	}
}

// Reader reads one CSV spreadsheet export
type Reader struct {
	csv     *csv.Reader
	headers []string
	line    int
}

// NewReader wraps r, strips a UTF-8 BOM if present, and rejects empty or
// non-UTF-8 input up front so the caller can fail the whole load instead of
// producing garbled records.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	buf := bufio.NewReader(r)

	if err := stripBOM(buf); err != nil {
		return nil, err
	}
	if err := validateUTF8(buf); err != nil {
		return nil, err
	}

	cr := csv.NewReader(buf)
	// Ragged records are handled per cell, not rejected wholesale.
	cr.FieldsPerRecord = -1

	reader := &Reader{csv: cr}
	for _, opt := range opts {
		opt(reader)
	}
	return reader, nil
}

// ReadHeader consumes the first record and returns the trimmed header cells
func (r *Reader) ReadHeader() ([]string, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, err
	}
	r.line = 1

	headers := make([]string, len(record))
	for i, cell := range record {
		headers[i] = strings.TrimSpace(cell)
	}
	r.headers = headers
	return headers, nil
}

// Headers returns the header cells read by ReadHeader
func (r *Reader) Headers() []string {
	return r.headers
}

// Read returns the next non-empty data record, or io.EOF when exhausted.
// Fully blank records (a common artifact of deleted spreadsheet rows) are
// skipped but still advance the row numbering.
func (r *Reader) Read() (Row, error) {
	for {
		record, err := r.csv.Read()
		if err == io.EOF {
			return Row{}, io.EOF
		}
		if err != nil {
			return Row{}, err
		}
		r.line++

		row := Row{Line: r.line, Fields: record}
		if row.IsEmpty() {
			continue
		}
		return row, nil
	}
}

// stripBOM consumes a leading UTF-8 byte order mark when present
func stripBOM(buf *bufio.Reader) error {
	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return err
	}
	if len(head) == 0 {
		return ErrEmptyFile
	}
	if len(head) == 3 && head[0] == bomByte1 && head[1] == bomByte2 && head[2] == bomByte3 {
		if _, err := buf.Discard(3); err != nil {
			return err
		}
		// A file that is nothing but a BOM is still empty.
		if _, err := buf.Peek(1); err == io.EOF {
			return ErrEmptyFile
		}
	}
	return nil
}

// validateUTF8 probes the head of the file for invalid byte sequences. The
// probe is truncated to the last complete rune so a multi-byte character
// split at the probe boundary is not a false positive.
func validateUTF8(buf *bufio.Reader) error {
	probe, err := buf.Peek(encodingProbeSize)
	if err != nil && err != io.EOF {
		return err
	}
	if len(probe) == 0 {
		return ErrEmptyFile
	}
	if len(probe) == encodingProbeSize {
		for i := 0; i < utf8.UTFMax && len(probe) > 0; i++ {
			if r, _ := utf8.DecodeLastRune(probe); r != utf8.RuneError {
				break
			}
			probe = probe[:len(probe)-1]
		}
	}
	if !utf8.Valid(probe) {
		return ErrInvalidEncoding
	}
	return nil
}
