// Package schema defines the canonical table schemas the ingestion pipeline
// loads into, and the per-file projection from source columns onto them.
//
// A canonical schema is static configuration: each target table has a fixed,
// ordered column list, and the persisted table always ends up with exactly
// that column set no matter what the source file contained. Extra source
// columns are dropped; canonical columns missing from a file load as NULL.
package schema

import "errors"

// Kind classifies how a canonical column is ultimately typed in the store.
// Every column is loaded as text; date columns are promoted by the post-load
// coercion pass.
type Kind string

const (
	KindText Kind = "text"
	KindDate Kind = "date"
)

// Column is one canonical column. Aliases list additional normalized header
// names that should resolve to this column (e.g. "fecha_ingreso" resolving to
// "fechaexpediente" when the export renames a field).
type Column struct {
	Name    string
	Kind    Kind
	Aliases []string
}

// Table is the canonical schema for one target table.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the canonical column names in declaration order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// DateColumns returns the names of columns declared with KindDate, in
// declaration order. These are the (table, column) pairs the coercion pass
// visits after a run.
func (t Table) DateColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.Kind == KindDate {
			out = append(out, c.Name)
		}
	}
	return out
}

// ErrNoColumnsMatched is returned by Project when none of a file's headers
// resolve to a canonical column. It signals an incompatible file and is fatal
// for that file only.
var ErrNoColumnsMatched = errors.New("schema: no canonical columns matched file header")

// Projection maps each canonical column to an index into the file's raw rows,
// or -1 when the column is absent from the file. It is built once from the
// header row and is immutable for the lifetime of one file's processing.
type Projection struct {
	Table Table

	// Src[i] is the source cell index feeding Table.Columns[i], or -1.
	Src []int
}

// Matched reports how many canonical columns are present in the file.
func (p Projection) Matched() int {
	n := 0
	for _, ix := range p.Src {
		if ix >= 0 {
			n++
		}
	}
	return n
}
