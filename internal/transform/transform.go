// Package transform turns raw file rows into canonical rows ready for the
// batch loader: one text-or-null value per canonical column, in canonical
// column order. The transform is pure per row; coercion failures resolve to
// NULL and never abort a row or a file.
package transform

import (
	"github.com/adraguidev/dashboardproject-sub001/internal/rowsource"
	"github.com/adraguidev/dashboardproject-sub001/internal/schema"
)

// RowTransformer applies a fixed projection to every row of one file.
type RowTransformer struct {
	proj schema.Projection
}

// New builds a RowTransformer for the given projection.
func New(proj schema.Projection) RowTransformer {
	return RowTransformer{proj: proj}
}

// Apply produces the canonical row for raw. Ragged input is tolerated: cells
// beyond the row's length read as NULL, cells beyond the mapped columns are
// ignored. Date columns go through DateValue; everything else is stringified.
func (t RowTransformer) Apply(raw rowsource.Row) []any {
	out := make([]any, len(t.proj.Table.Columns))
	for i, col := range t.proj.Table.Columns {
		src := t.proj.Src[i]
		if src < 0 || src >= len(raw) {
			continue // absent in file or short row: NULL
		}
		cell := raw[src]
		if cell.IsNull() {
			continue
		}
		if col.Kind == schema.KindDate {
			out[i] = DateValue(cell)
			continue
		}
		out[i] = cell.Text()
	}
	return out
}
