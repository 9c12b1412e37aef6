// Package shapefile loads ESRI shapefiles into feature tables.
package shapefile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"sundarbanmap/pkg/crs"
	"sundarbanmap/pkg/table"
)

// LoadError reports a dataset that exists but cannot be read.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the shapefile at path (the .shp member) with its .dbf attributes,
// its .prj CRS and its .cpg code page. A .prj that cannot be interpreted does
// not fail the load: the table comes back with an unknown CRS and the reason
// in CRSErr, for reprojection to report or for an assumed CRS to replace.
func Load(path string) (tbl *table.Table, err error) {
	fail := func(e error) (*table.Table, error) {
		return nil, &LoadError{Path: path, Err: e}
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".shp", ".dbf"} {
		if _, err := os.Stat(base + ext); err != nil {
			return fail(fmt.Errorf("missing %s member: %w", ext, err))
		}
	}

	srcCRS, crsErr := crs.ReadPRJ(base + ".prj")
	if crsErr != nil {
		if !errors.Is(crsErr, crs.ErrUnknown) && !errors.Is(crsErr, crs.ErrUnsupported) {
			return fail(crsErr)
		}
		slog.Warn("Ignoring unusable .prj", "path", base+".prj", "error", crsErr)
		srcCRS = crs.Unknown
	}
	dec, err := decoderFor(base + ".cpg")
	if err != nil {
		return fail(err)
	}

	// go-shp panics on some truncated files instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			tbl, err = fail(fmt.Errorf("corrupt shapefile: %v", r))
		}
	}()

	reader, err := shp.Open(base + ".shp")
	if err != nil {
		return fail(fmt.Errorf("failed to open shapefile: %w", err))
	}
	defer reader.Close()

	fields := reader.Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = fieldName(f)
	}

	tbl = table.New(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), columns, srcCRS)
	tbl.CRSErr = crsErr

	skipped := 0
	for reader.Next() {
		n, s := reader.Shape()

		geom, ok := convertShape(s)
		if !ok {
			skipped++
		}

		props := make(map[string]any, len(fields))
		for i, f := range fields {
			props[columns[i]] = parseAttribute(f, reader.ReadAttribute(n, i), dec)
		}
		tbl.Append(props, geom)
	}
	if err := reader.Err(); err != nil {
		return fail(fmt.Errorf("error iterating shapes: %w", err))
	}
	if skipped > 0 {
		slog.Warn("Unsupported shape types loaded as null geometry", "path", path, "count", skipped)
	}

	return tbl, nil
}

func fieldName(f shp.Field) string {
	return strings.TrimRight(f.String(), "\x00 ")
}

// convertShape maps a go-shp shape to an orb geometry. The boolean is false
// for shape types the converter does not know; null shapes are known and map to nil.
func convertShape(s shp.Shape) (orb.Geometry, bool) {
	switch v := s.(type) {
	case nil, *shp.Null:
		return nil, true
	case *shp.Point:
		return orb.Point{v.X, v.Y}, true
	case *shp.PointZ:
		return orb.Point{v.X, v.Y}, true
	case *shp.PointM:
		return orb.Point{v.X, v.Y}, true
	case *shp.MultiPoint:
		return toMultiPoint(v.Points), true
	case *shp.MultiPointZ:
		return toMultiPoint(v.Points), true
	case *shp.MultiPointM:
		return toMultiPoint(v.Points), true
	case *shp.PolyLine:
		return toLines(splitParts(v.Parts, v.Points)), true
	case *shp.PolyLineZ:
		return toLines(splitParts(v.Parts, v.Points)), true
	case *shp.PolyLineM:
		return toLines(splitParts(v.Parts, v.Points)), true
	case *shp.Polygon:
		return toPolygons(splitParts(v.Parts, v.Points)), true
	case *shp.PolygonZ:
		return toPolygons(splitParts(v.Parts, v.Points)), true
	case *shp.PolygonM:
		return toPolygons(splitParts(v.Parts, v.Points)), true
	}
	return nil, false
}
