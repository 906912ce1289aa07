package csvfile

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) []Row {
	t.Helper()
	var rows []Row
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestReader_ReadHeader(t *testing.T) {
	t.Run("returns trimmed header cells", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("HS부호 , 품목명,관세율\n"))
		require.NoError(t, err)

		headers, err := r.ReadHeader()
		require.NoError(t, err)
		assert.Equal(t, []string{"HS부호", "품목명", "관세율"}, headers)
		assert.Equal(t, headers, r.Headers())
	})

	t.Run("strips utf-8 byte order mark", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("\uFEFFhs_code,rate\n0101210000,8\n"))
		require.NoError(t, err)

		headers, err := r.ReadHeader()
		require.NoError(t, err)
		assert.Equal(t, []string{"hs_code", "rate"}, headers)
	})

	t.Run("returns eof for a header-only file", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("x"))
		require.NoError(t, err)
		_, err = r.ReadHeader()
		require.NoError(t, err)

		_, err = r.Read()
		assert.Equal(t, io.EOF, err)
	})
}

func TestReader_Read(t *testing.T) {
	t.Run("numbers rows from two", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("a,b\n1,2\n3,4\n"))
		require.NoError(t, err)
		_, err = r.ReadHeader()
		require.NoError(t, err)

		rows := readAll(t, r)
		require.Len(t, rows, 2)
		assert.Equal(t, 2, rows[0].Line)
		assert.Equal(t, 3, rows[1].Line)
	})

	t.Run("skips blank records but keeps numbering", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("a,b\n1,2\n,\n3,4\n"))
		require.NoError(t, err)
		_, err = r.ReadHeader()
		require.NoError(t, err)

		rows := readAll(t, r)
		require.Len(t, rows, 2)
		assert.Equal(t, 2, rows[0].Line)
		assert.Equal(t, 4, rows[1].Line)
	})

	t.Run("tolerates ragged records", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("a,b,c\n1,2\n4,5,6,7\n"))
		require.NoError(t, err)
		_, err = r.ReadHeader()
		require.NoError(t, err)

		rows := readAll(t, r)
		require.Len(t, rows, 2)
		assert.Equal(t, "2", rows[0].Field(1))
		assert.Equal(t, "", rows[0].Field(2))
		assert.Equal(t, "7", rows[1].Field(3))
	})

	t.Run("parses quoted fields with embedded delimiters", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("name,desc\nbolt,\"hex, zinc\"\n"))
		require.NoError(t, err)
		_, err = r.ReadHeader()
		require.NoError(t, err)

		rows := readAll(t, r)
		require.Len(t, rows, 1)
		assert.Equal(t, "hex, zinc", rows[0].Field(1))
	})

	t.Run("honors a custom delimiter", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("a\tb\n1\t2\n"), WithDelimiter('\t'))
		require.NoError(t, err)

		headers, err := r.ReadHeader()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, headers)

		rows := readAll(t, r)
		require.Len(t, rows, 1)
		assert.Equal(t, "2", rows[0].Field(1))
	})
}

func TestReader_InputValidation(t *testing.T) {
	t.Run("rejects empty input", func(t *testing.T) {
		_, err := NewReader(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("rejects a bare byte order mark", func(t *testing.T) {
		_, err := NewReader(strings.NewReader("\uFEFF"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("rejects non-utf8 bytes", func(t *testing.T) {
		_, err := NewReader(strings.NewReader("hs_code\n\xff\xfe\xfd\n"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("reports missing header when only blank lines exist", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("\n\n"))
		require.NoError(t, err)

		_, err = r.ReadHeader()
		assert.ErrorIs(t, err, ErrMissingHeader)
	})
}
