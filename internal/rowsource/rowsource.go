// Package rowsource abstracts a single export file as a lazy, forward-only
// stream of raw rows. Two interchangeable implementations exist: a
// delimited-text reader (encoding/csv) and a spreadsheet-archive reader
// (excelize). Both expose the same iteration contract: Read returns one row
// per call and io.EOF at the end of the stream.
//
// A Reader is not restartable; re-reading a file requires opening a new one.
package rowsource

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CellKind discriminates the value held by a Cell.
type CellKind uint8

const (
	CellNull CellKind = iota
	CellString
	CellNumber
	CellDate
)

// Cell is a single untyped spreadsheet value. Exactly one of the value fields
// is meaningful, selected by Kind.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Time time.Time
}

// Row is one raw file row. Length may vary row-to-row; callers must tolerate
// ragged input.
type Row []Cell

// NullCell returns the null cell.
func NullCell() Cell { return Cell{Kind: CellNull} }

// StringCell wraps s. Empty strings are represented as null, matching the
// loader's NULL semantics for blank export cells.
func StringCell(s string) Cell {
	if s == "" {
		return NullCell()
	}
	return Cell{Kind: CellString, Str: s}
}

// NumberCell wraps f.
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// DateCell wraps t.
func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Time: t} }

// IsNull reports whether the cell carries no value.
func (c Cell) IsNull() bool { return c.Kind == CellNull }

// Text renders the cell as a plain string: numbers in their shortest decimal
// form, dates as RFC 3339 timestamps. Null renders as "".
func (c Cell) Text() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellDate:
		return c.Time.Format(time.RFC3339)
	default:
		return ""
	}
}

// Reader is the shared iteration contract. Read returns the next row or
// io.EOF once the stream is exhausted; any other error is terminal for the
// file. Close releases underlying resources and is safe to call after EOF.
type Reader interface {
	Read() (Row, error)
	Close() error
}

// Options tunes the delimited-text reader. The spreadsheet reader ignores it.
type Options struct {
	// Delimiter is the field separator for delimited text. Zero means the
	// configured default for case-management exports: ';'.
	Delimiter rune

	// LazyQuotes relaxes quote handling for known-dirty inputs. Off by
	// default so a structurally corrupt file surfaces as a terminal error.
	LazyQuotes bool
}

// ErrUnsupportedFormat is returned by Open for a file whose extension maps to
// no known reader. Fatal for that file only.
var ErrUnsupportedFormat = errors.New("rowsource: unsupported file format")

// Open selects a Reader implementation from the file extension: ".csv" for
// delimited text, ".xlsx"/".xls" for spreadsheet archives. The extension is
// the sole format signal.
func Open(r io.Reader, filename string, opt Options) (Reader, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return newCSVReader(r, opt), nil
	case ".xlsx", ".xls":
		return newXLSXReader(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}
