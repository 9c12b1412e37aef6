package crs

import "math"

const arcsec2rad = deg2rad / 3600

// geocentric converts longitude/latitude in degrees on el to earth-centered
// cartesian coordinates in meters. Heights are taken as zero.
func geocentric(el Ellipsoid, lon, lat float64) (x, y, z float64) {
	e2 := el.e2()
	sinPhi, cosPhi := math.Sincos(lat * deg2rad)
	sinLam, cosLam := math.Sincos(lon * deg2rad)
	n := el.SemiMajor / math.Sqrt(1-e2*sinPhi*sinPhi)
	return n * cosPhi * cosLam, n * cosPhi * sinLam, n * (1 - e2) * sinPhi
}

// geodetic converts earth-centered coordinates back to longitude/latitude in degrees on el.
func geodetic(el Ellipsoid, x, y, z float64) (lon, lat float64) {
	e2 := el.e2()
	p := math.Hypot(x, y)
	phi := math.Atan2(z, p*(1-e2))
	for iter := 0; iter < 10; iter++ {
		sin := math.Sin(phi)
		n := el.SemiMajor / math.Sqrt(1-e2*sin*sin)
		h := p/math.Cos(phi) - n
		next := math.Atan2(z, p*(1-e2*n/(n+h)))
		if math.Abs(next-phi) < 1e-14 {
			phi = next
			break
		}
		phi = next
	}
	return math.Atan2(y, x) / deg2rad, phi / deg2rad
}

// apply shifts earth-centered coordinates by h.
func (h Helmert) apply(x, y, z float64) (float64, float64, float64) {
	rx, ry, rz := h.RX*arcsec2rad, h.RY*arcsec2rad, h.RZ*arcsec2rad
	s := 1 + h.DS*1e-6
	return h.TX + s*(x-rz*y+ry*z),
		h.TY + s*(rz*x+y-rx*z),
		h.TZ + s*(-ry*x+rx*y+z)
}

func (h Helmert) inverse() Helmert {
	return Helmert{TX: -h.TX, TY: -h.TY, TZ: -h.TZ, RX: -h.RX, RY: -h.RY, RZ: -h.RZ, DS: -h.DS}
}

// datumShift returns a function moving longitude/latitude from one ellipsoid
// to another through h.
func datumShift(from, to Ellipsoid, h Helmert) func(lon, lat float64) (float64, float64) {
	if h.IsZero() && from == to {
		return func(lon, lat float64) (float64, float64) { return lon, lat }
	}
	return func(lon, lat float64) (float64, float64) {
		x, y, z := geocentric(from, lon, lat)
		x, y, z = h.apply(x, y, z)
		return geodetic(to, x, y, z)
	}
}

func (el Ellipsoid) e2() float64 {
	if el.InvFlattening == 0 {
		return 0
	}
	f := 1 / el.InvFlattening
	return f * (2 - f)
}
