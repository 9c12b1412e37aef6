package shapefile

import (
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// splitParts cuts the flat point array of a multi-part shape at the part offsets.
func splitParts(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i := range parts {
		start := int(parts[i])
		end := len(points)
		if i < len(parts)-1 {
			end = int(parts[i+1])
		}
		if start < 0 || start > end || end > len(points) {
			continue
		}

		part := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

func toMultiPoint(points []shp.Point) orb.MultiPoint {
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orb.Point{p.X, p.Y}
	}
	return mp
}

func toLines(parts [][]orb.Point) orb.Geometry {
	if len(parts) == 1 {
		return orb.LineString(parts[0])
	}
	mls := make(orb.MultiLineString, len(parts))
	for i, p := range parts {
		mls[i] = orb.LineString(p)
	}
	return mls
}

// toPolygons groups shapefile rings into polygons. Shells are clockwise and
// holes counter-clockwise; a hole belongs to the first shell containing it.
// A single shell yields a Polygon, several yield a MultiPolygon.
func toPolygons(parts [][]orb.Point) orb.Geometry {
	var shells orb.MultiPolygon
	var holes []orb.Ring

	for _, p := range parts {
		ring := closeRing(orb.Ring(p))
		if len(ring) < 4 {
			continue
		}
		if ring.Orientation() == orb.CCW {
			holes = append(holes, ring)
			continue
		}
		shells = append(shells, orb.Polygon{ring})
	}

	for _, h := range holes {
		owner := -1
		for i, s := range shells {
			if planar.RingContains(s[0], h[0]) {
				owner = i
				break
			}
		}
		if owner < 0 {
			// Orphan hole: files written with the wrong winding still need to render.
			shells = append(shells, orb.Polygon{h})
			continue
		}
		shells[owner] = append(shells[owner], h)
	}

	switch len(shells) {
	case 0:
		return nil
	case 1:
		return shells[0]
	}
	return shells
}

func closeRing(r orb.Ring) orb.Ring {
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}
