// Package shptest writes small shapefiles for tests.
package shptest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
)

// WGS84PRJ is the ESRI .prj text of EPSG:4326.
const WGS84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// UTM45NPRJ is the ESRI .prj text of EPSG:32645.
const UTM45NPRJ = `PROJCS["WGS_1984_UTM_Zone_45N",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["False_Easting",500000.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",87.0],PARAMETER["Scale_Factor",0.9996],PARAMETER["Latitude_Of_Origin",0.0],UNIT["Meter",1.0]]`

// IndiaZoneIIbPRJ is the ESRI .prj text of Kalianpur 1975 / India zone IIb
// (EPSG:24379), a Lambert Conformal Conic zone covering West Bengal.
const IndiaZoneIIbPRJ = `PROJCS["Kalianpur_1975_India_Zone_IIb",GEOGCS["GCS_Kalianpur_1975",DATUM["D_Kalianpur_1975",SPHEROID["Everest_Definition_1975",6377299.151,300.8017255]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Lambert_Conformal_Conic"],PARAMETER["False_Easting",2743195.5],PARAMETER["False_Northing",914398.5],PARAMETER["Central_Meridian",90.0],PARAMETER["Standard_Parallel_1",26.0],PARAMETER["Scale_Factor",0.99878641],PARAMETER["Latitude_Of_Origin",26.0],UNIT["Meter",1.0]]`

// Feature is one record to write: its rings (or points for point files) and
// attribute values in field order.
type Feature struct {
	Parts  [][]shp.Point
	Values []any
}

// Square returns a clockwise square ring with side size starting at (x, y).
func Square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

// Reverse returns the ring in the opposite winding order.
func Reverse(ring []shp.Point) []shp.Point {
	out := make([]shp.Point, len(ring))
	for i, p := range ring {
		out[len(ring)-1-i] = p
	}
	return out
}

// WritePolygons creates dir/name.shp (+ .shx, .dbf) holding polygon features.
// A non-empty prj is written to dir/name.prj. It returns the .shp path.
func WritePolygons(t testing.TB, dir, name string, fields []shp.Field, features []Feature, prj string) string {
	t.Helper()

	path := filepath.Join(dir, name+".shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("failed to create shapefile: %v", err)
	}
	if err := w.SetFields(fields); err != nil {
		t.Fatalf("failed to set fields: %v", err)
	}

	for _, f := range features {
		poly := shp.Polygon(*shp.NewPolyLine(f.Parts))
		row := int(w.Write(&poly))
		for i, v := range f.Values {
			if v == nil {
				continue
			}
			if err := w.WriteAttribute(row, i, v); err != nil {
				t.Fatalf("failed to write attribute %d of row %d: %v", i, row, err)
			}
		}
	}
	w.Close()

	if prj != "" {
		if err := os.WriteFile(filepath.Join(dir, name+".prj"), []byte(prj), 0o644); err != nil {
			t.Fatalf("failed to write prj: %v", err)
		}
	}
	return path
}

// VillageFields is the attribute layout of the village layer.
func VillageFields() []shp.Field {
	return []shp.Field{
		shp.StringField("village", 60),
		shp.NumberField("vlcode", 10),
		shp.StringField("block", 40),
		shp.StringField("subdistric", 40),
		shp.StringField("district", 40),
	}
}
