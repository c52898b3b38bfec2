package rowsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// utf8BOM is stripped from the first cell of the first row if present.
const utf8BOM = "\uFEFF"

// csvReader streams delimited text through encoding/csv. It never buffers the
// whole file: rows are decoded one at a time straight off the input reader.
type csvReader struct {
	cr    *csv.Reader
	first bool
}

func newCSVReader(r io.Reader, opt Options) *csvReader {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	// Export rows are ragged; width is enforced later by the projection.
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = opt.LazyQuotes
	cr.ReuseRecord = true
	return &csvReader{cr: cr, first: true}
}

// Read returns the next row. Cells are strings or null (blank cells); a
// malformed record surfaces as a terminal error.
func (c *csvReader) Read() (Row, error) {
	rec, err := c.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}

	row := make(Row, len(rec))
	for i, v := range rec {
		if i == 0 && c.first {
			v = strings.TrimPrefix(v, utf8BOM)
		}
		row[i] = StringCell(strings.TrimSpace(v))
	}
	c.first = false
	return row, nil
}

func (c *csvReader) Close() error { return nil }
