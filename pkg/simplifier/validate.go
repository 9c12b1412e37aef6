package simplifier

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// selfIntersects reports whether two non-adjacent edges of a closed ring touch or cross.
func selfIntersects(r orb.Ring) bool {
	n := len(r) - 1 // edge count
	for i := 0; i < n; i++ {
		a, b := r[i], r[i+1]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // first and last edge share the closing vertex
			}
			if segmentsIntersect(a, b, r[j], r[j+1]) {
				return true
			}
		}
	}
	return false
}

// ringsCross reports whether any two rings of a polygon share a point.
func ringsCross(p orb.Polygon) bool {
	for i := 0; i < len(p); i++ {
		bi := p[i].Bound()
		for j := i + 1; j < len(p); j++ {
			if !bi.Intersects(p[j].Bound()) {
				continue
			}
			if ringPairIntersects(p[i], p[j]) {
				return true
			}
		}
	}
	return false
}

// holesInside reports whether every hole of p lies within its shell and
// outside the other holes. Crossings are ringsCross's concern, so one vertex
// per hole decides.
func holesInside(p orb.Polygon) bool {
	if len(p) < 2 {
		return true
	}
	shell := p[0]
	for i, h := range p[1:] {
		for _, pt := range h {
			if !planar.RingContains(shell, pt) {
				return false
			}
		}
		for j, other := range p[1:] {
			if i != j && len(h) > 0 && planar.RingContains(other, h[0]) && !onRing(other, h[0]) {
				return false
			}
		}
	}
	return true
}

// polygonsTouch reports whether two polygons share any point.
func polygonsTouch(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 || len(a[0]) == 0 || len(b[0]) == 0 {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	for _, ra := range a {
		for _, rb := range b {
			if ringPairIntersects(ra, rb) {
				return true
			}
		}
	}
	// No boundaries meet, so one polygon is either inside the other or apart.
	return planar.PolygonContains(a, b[0][0]) || planar.PolygonContains(b, a[0][0])
}

func onRing(r orb.Ring, pt orb.Point) bool {
	for i := 0; i+1 < len(r); i++ {
		if sign(cross(r[i], r[i+1], pt)) == 0 && onSegment(r[i], pt, r[i+1]) {
			return true
		}
	}
	return false
}

func ringPairIntersects(r1, r2 orb.Ring) bool {
	for i := 0; i+1 < len(r1); i++ {
		for j := 0; j+1 < len(r2); j++ {
			if segmentsIntersect(r1[i], r1[i+1], r2[j], r2[j+1]) {
				return true
			}
		}
	}
	return false
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func onSegment(p, q, r orb.Point) bool {
	return min(p[0], r[0]) <= q[0] && q[0] <= max(p[0], r[0]) &&
		min(p[1], r[1]) <= q[1] && q[1] <= max(p[1], r[1])
}

// segmentsIntersect reports whether segment p1-p2 and segment q1-q2 share any point.
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := sign(cross(q1, q2, p1))
	d2 := sign(cross(q1, q2, p2))
	d3 := sign(cross(p1, p2, q1))
	d4 := sign(cross(p1, p2, q2))

	if d1 != d2 && d3 != d4 && d1 != 0 && d2 != 0 && d3 != 0 && d4 != 0 {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, p1, q2):
		return true
	case d2 == 0 && onSegment(q1, p2, q2):
		return true
	case d3 == 0 && onSegment(p1, q1, p2):
		return true
	case d4 == 0 && onSegment(p1, q2, p2):
		return true
	}
	return false
}
