// Package table holds the in-memory feature table that flows through the
// conversion pipeline: ordered attribute columns, one geometry per row and a
// single CRS shared by every row.
package table

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/paulmach/orb"

	"sundarbanmap/pkg/crs"
)

// Row is one feature: attribute values keyed by column name plus its geometry.
// A nil Geometry stands for a null shape.
type Row struct {
	Properties map[string]any
	Geometry   orb.Geometry
}

// Table is an ordered sequence of rows sharing a column set and a CRS.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
	CRS     crs.CRS
	CRSErr  error // why CRS is Unknown when a definition was present but unusable
}

// New returns an empty table with the given columns.
func New(name string, columns []string, c crs.CRS) *Table {
	return &Table{
		Name:    name,
		Columns: slices.Clone(columns),
		CRS:     c,
	}
}

// Append adds a row. Properties for columns the table does not declare are kept
// on the row but ignored by Select and the serializer.
func (t *Table) Append(props map[string]any, g orb.Geometry) {
	if props == nil {
		props = make(map[string]any)
	}
	t.Rows = append(t.Rows, Row{Properties: props, Geometry: g})
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// Clone returns a copy whose rows and property maps can be modified without
// touching t. Geometries are shared; use orb.Clone before mutating one.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:    t.Name,
		Columns: slices.Clone(t.Columns),
		Rows:    make([]Row, len(t.Rows)),
		CRS:     t.CRS,
		CRSErr:  t.CRSErr,
	}
	for i, r := range t.Rows {
		props := make(map[string]any, len(r.Properties))
		for k, v := range r.Properties {
			props[k] = v
		}
		out.Rows[i] = Row{Properties: props, Geometry: r.Geometry}
	}
	return out
}

// Lookup returns the value of col for row, or def when the table has no such column.
// A declared column with a null value yields nil, matching the source data.
func (t *Table) Lookup(row Row, col string, def any) any {
	if !t.HasColumn(col) {
		return def
	}
	return row.Properties[col]
}

// SetColumn assigns fn(row) to col on every row, declaring the column if needed.
func (t *Table) SetColumn(col string, fn func(Row) any) {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
	for i := range t.Rows {
		t.Rows[i].Properties[col] = fn(t.Rows[i])
	}
}

// Select returns a table restricted to the wanted columns that exist, in the
// order requested. Absent columns are dropped silently.
func (t *Table) Select(wanted []string) *Table {
	var cols []string
	for _, c := range wanted {
		if t.HasColumn(c) && !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}

	out := New(t.Name, cols, t.CRS)
	out.CRSErr = t.CRSErr
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		props := make(map[string]any, len(cols))
		for _, c := range cols {
			props[c] = r.Properties[c]
		}
		out.Rows[i] = Row{Properties: props, Geometry: r.Geometry}
	}
	return out
}

// MapGeometry replaces every non-nil geometry with fn(geometry).
func (t *Table) MapGeometry(fn func(orb.Geometry) orb.Geometry) {
	for i := range t.Rows {
		if t.Rows[i].Geometry != nil {
			t.Rows[i].Geometry = fn(t.Rows[i].Geometry)
		}
	}
}

// FormatValue renders an attribute value as text, the way it is compared when
// sorting and shown in diagnostics. Nil renders as "".
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
