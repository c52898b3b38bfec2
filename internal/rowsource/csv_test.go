package rowsource

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func readAll(t *testing.T, r Reader) []Row {
	t.Helper()
	var out []Row
	for {
		row, err := r.Read()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		out = append(out, row)
	}
}

// TestCSV_SemicolonDefault checks the configured default delimiter and that
// blank cells arrive as null.
func TestCSV_SemicolonDefault(t *testing.T) {
	t.Parallel()

	in := "EXPEDIENTE;FECHA_INGRESO\nA1;15/03/2024\nA2;\n"
	r, err := Open(strings.NewReader(in), "export.csv", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rows := readAll(t, r)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1][0].Text() != "A1" || rows[1][1].Text() != "15/03/2024" {
		t.Fatalf("row 1 = %v", rows[1])
	}
	if !rows[2][1].IsNull() {
		t.Fatalf("blank cell should be null, got %v", rows[2][1])
	}
}

// TestCSV_QuotedEmbeddedDelimiter checks standard quoting rules: embedded
// delimiters and quotes survive inside quoted fields.
func TestCSV_QuotedEmbeddedDelimiter(t *testing.T) {
	t.Parallel()

	in := "a;b\n\"x;y\";\"he said \"\"hi\"\"\"\n"
	r, err := Open(strings.NewReader(in), "f.csv", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rows := readAll(t, r)
	if got := rows[1][0].Text(); got != "x;y" {
		t.Errorf("cell 0 = %q, want %q", got, "x;y")
	}
	if got := rows[1][1].Text(); got != `he said "hi"` {
		t.Errorf("cell 1 = %q", got)
	}
}

// TestCSV_RaggedRows verifies short and long rows both stream through; width
// enforcement belongs to the projection, not the reader.
func TestCSV_RaggedRows(t *testing.T) {
	t.Parallel()

	in := "a;b;c\n1;2\n1;2;3;4\n"
	r, err := Open(strings.NewReader(in), "f.csv", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rows := readAll(t, r)
	if len(rows[1]) != 2 || len(rows[2]) != 4 {
		t.Fatalf("widths = %d, %d; want 2, 4", len(rows[1]), len(rows[2]))
	}
}

// TestCSV_BOMStripped checks a UTF-8 BOM does not pollute the first header
// cell.
func TestCSV_BOMStripped(t *testing.T) {
	t.Parallel()

	in := "\uFEFFEXPEDIENTE;ESTADO\n"
	r, err := Open(strings.NewReader(in), "f.csv", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rows := readAll(t, r)
	if got := rows[0][0].Text(); got != "EXPEDIENTE" {
		t.Fatalf("first header cell = %q", got)
	}
}

// TestCSV_CorruptQuoteIsTerminal checks a structurally broken file surfaces
// as a non-EOF error on the sequence.
func TestCSV_CorruptQuoteIsTerminal(t *testing.T) {
	t.Parallel()

	in := "a;b\nok;\"broken\nmore;data"
	r, err := Open(strings.NewReader(in), "f.csv", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	var lastErr error
	for {
		_, err := r.Read()
		if err != nil {
			lastErr = err
			break
		}
	}
	if lastErr == io.EOF {
		t.Fatal("want terminal parse error, got clean EOF")
	}
}

// TestOpen_UnknownExtension checks the fatal unsupported-format error.
func TestOpen_UnknownExtension(t *testing.T) {
	t.Parallel()

	_, err := Open(strings.NewReader("x"), "export.parquet", Options{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

// TestCSV_CustomDelimiter checks the delimiter option is honored.
func TestCSV_CustomDelimiter(t *testing.T) {
	t.Parallel()

	r, err := Open(strings.NewReader("a|b\n1|2\n"), "f.csv", Options{Delimiter: '|'})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rows := readAll(t, r)
	if rows[1][0].Text() != "1" || rows[1][1].Text() != "2" {
		t.Fatalf("rows = %v", rows)
	}
}
