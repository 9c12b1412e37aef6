// Package simplifier reduces geometry vertex counts with Douglas-Peucker while
// keeping rings closed and polygons valid.
package simplifier

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// Tolerances used for the Sundarban layers, in degrees.
const (
	DistrictTolerance = 0.001
	AreaTolerance     = 0.0005
	VillageTolerance  = 0.0001
)

// Simplify returns a simplified copy of g. Distances are in g's coordinate
// units. A ring that would degenerate, open or cross itself is kept as is.
// A polygon is kept whole when its simplified rings would cross or a hole
// would leave its shell, and members of a multipolygon that would touch
// each other after simplification are kept as they were.
// The input is never modified and a tolerance <= 0 returns g unchanged.
func Simplify(g orb.Geometry, tolerance float64) orb.Geometry {
	if g == nil || tolerance <= 0 {
		return g
	}
	dp := simplify.DouglasPeucker(tolerance)

	switch v := g.(type) {
	case orb.Point, orb.MultiPoint:
		return v
	case orb.LineString:
		return line(dp, v)
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(v))
		for i, ls := range v {
			out[i] = line(dp, ls)
		}
		return out
	case orb.Ring:
		return ring(dp, v)
	case orb.Polygon:
		return polygon(dp, v)
	case orb.MultiPolygon:
		return multiPolygon(dp, v)
	case orb.Collection:
		out := make(orb.Collection, len(v))
		for i, c := range v {
			out[i] = Simplify(c, tolerance)
		}
		return out
	case orb.Bound:
		return v
	}
	return g
}

func line(dp *simplify.DouglasPeuckerSimplifier, ls orb.LineString) orb.LineString {
	if len(ls) <= 2 {
		return ls.Clone()
	}
	return dp.LineString(ls.Clone())
}

func ring(dp *simplify.DouglasPeuckerSimplifier, r orb.Ring) orb.Ring {
	if len(r) <= 4 {
		return r.Clone()
	}
	s := orb.Ring(dp.LineString(orb.LineString(r.Clone())))
	if len(s) < 4 || !s.Closed() || selfIntersects(s) {
		return r.Clone()
	}
	return s
}

func polygon(dp *simplify.DouglasPeuckerSimplifier, p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		out[i] = ring(dp, r)
	}
	if ringsCross(out) || !holesInside(out) {
		return p.Clone()
	}
	return out
}

func multiPolygon(dp *simplify.DouglasPeuckerSimplifier, mp orb.MultiPolygon) orb.MultiPolygon {
	out := make(orb.MultiPolygon, len(mp))
	simplified := make([]bool, len(mp))
	for i, p := range mp {
		out[i] = polygon(dp, p)
		simplified[i] = true
	}

	// Reverting a member can make it collide with another simplified one,
	// so repeat until a pass reverts nothing.
	for changed := true; changed; {
		changed = false
		for i := range out {
			for j := i + 1; j < len(out); j++ {
				if !simplified[i] && !simplified[j] {
					continue
				}
				if !polygonsTouch(out[i], out[j]) {
					continue
				}
				for _, k := range []int{i, j} {
					if simplified[k] {
						out[k] = mp[k].Clone()
						simplified[k] = false
						changed = true
					}
				}
			}
		}
	}
	return out
}
