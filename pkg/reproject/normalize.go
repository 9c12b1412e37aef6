// Package reproject brings feature tables into EPSG:4326.
package reproject

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"sundarbanmap/pkg/crs"
	"sundarbanmap/pkg/table"
)

// ReprojectionError reports a table whose CRS cannot be transformed to EPSG:4326.
type ReprojectionError struct {
	Table string
	CRS   crs.CRS
	Err   error
}

func (e *ReprojectionError) Error() string {
	return fmt.Sprintf("reproject %s from %s: %v", e.Table, e.CRS, e.Err)
}

func (e *ReprojectionError) Unwrap() error {
	return e.Err
}

// Normalize returns t itself when it is already in EPSG:4326, otherwise a new
// table with every geometry transformed to EPSG:4326. t is never modified.
func Normalize(t *table.Table) (*table.Table, error) {
	if t.CRS.IsWGS84() {
		return t, nil
	}

	fail := func(err error) (*table.Table, error) {
		return nil, &ReprojectionError{Table: t.Name, CRS: t.CRS, Err: err}
	}
	if !t.CRS.IsKnown() {
		if t.CRSErr != nil {
			return fail(t.CRSErr)
		}
		return fail(fmt.Errorf("%w: dataset has no CRS definition", crs.ErrUnknown))
	}
	if _, ok := t.CRS.DatumShift(); !ok && t.CRS.Kind != crs.KindWebMercator {
		slog.Warn("No datum shift to WGS84 is known; coordinates are kept on the source datum",
			"table", t.Name, "crs", t.CRS.String(), "datum", t.CRS.Datum)
	}

	toWGS84, err := t.CRS.ToWGS84()
	if err != nil {
		return fail(err)
	}

	out := t.Clone()
	out.MapGeometry(func(g orb.Geometry) orb.Geometry {
		return project.Geometry(orb.Clone(g), toWGS84)
	})
	out.CRS = crs.WGS84
	return out, nil
}
