package convert

import (
	"context"
	"os"

	"sundarbanmap/pkg/crs"
	"sundarbanmap/pkg/shapefile"
)

// Inspection describes one input shapefile as loaded, before any processing.
type Inspection struct {
	Name     string
	Input    string
	Found    bool
	Features int
	Columns  []string
	CRS      crs.CRS
	Sample   map[string]any // first row's attributes; nil for an empty layer
	Err      error
}

// Analyze loads each present input and reports its size, columns, CRS and
// first row. It never writes files.
func (c *Converter) Analyze(ctx context.Context, datasets []Dataset) []Inspection {
	out := make([]Inspection, 0, len(datasets))
	for _, d := range datasets {
		if ctx.Err() != nil {
			break
		}
		in := Inspection{Name: d.Name, Input: c.InputPath(d)}
		if _, err := os.Stat(in.Input); err != nil {
			out = append(out, in)
			continue
		}
		in.Found = true

		tbl, err := shapefile.Load(in.Input)
		if err != nil {
			in.Err = err
			out = append(out, in)
			continue
		}
		in.Features = tbl.Len()
		in.Columns = tbl.Columns
		in.CRS = tbl.CRS
		if tbl.Len() > 0 {
			in.Sample = tbl.Rows[0].Properties
		}
		out = append(out, in)
	}
	return out
}
