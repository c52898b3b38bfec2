package rowsource

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// xlsxReader streams the first worksheet of a spreadsheet archive via
// excelize's row iterator. The archive's directory is buffered on open (the
// zip container requires it) but row bodies are decoded lazily, one row per
// Read call.
type xlsxReader struct {
	f    *excelize.File
	rows *excelize.Rows
}

func newXLSXReader(r io.Reader) (*xlsxReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, errors.New("xlsx: workbook has no sheets")
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: sheet %s: %w", sheets[0], err)
	}
	return &xlsxReader{f: f, rows: rows}, nil
}

// Read returns the next worksheet row. Raw stored values are used so that
// date cells arrive as their spreadsheet serial numbers; the transformer owns
// serial-to-date conversion for designated date columns.
func (x *xlsxReader) Read() (Row, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, fmt.Errorf("xlsx: %w", err)
		}
		return nil, io.EOF
	}
	cols, err := x.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}

	row := make(Row, len(cols))
	for i, v := range cols {
		row[i] = classifyCell(strings.TrimSpace(v))
	}
	return row, nil
}

func (x *xlsxReader) Close() error {
	err := x.rows.Close()
	if cerr := x.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// classifyCell types a raw stored value: blank is null, anything that parses
// as a decimal is a number (covers date serials), the rest stays text.
func classifyCell(v string) Cell {
	if v == "" {
		return NullCell()
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return NumberCell(f)
	}
	return StringCell(v)
}
