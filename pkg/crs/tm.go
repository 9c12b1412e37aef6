package crs

import "math"

const deg2rad = math.Pi / 180.0

// transverseMercator implements the Snyder series (USGS PP 1395, pp. 60-64),
// accurate to well under a millimeter within a UTM zone.
type transverseMercator struct {
	a, e2, ep2 float64
	k0         float64
	lon0, lat0 float64 // radians
	fe, fn     float64 // meters
	m0         float64
}

func newTransverseMercator(el Ellipsoid, p Params, unitToMeter float64) *transverseMercator {
	f := 0.0
	if el.InvFlattening != 0 {
		f = 1 / el.InvFlattening
	}
	e2 := f * (2 - f)
	k0 := p.ScaleFactor
	if k0 == 0 {
		k0 = 1
	}
	tm := &transverseMercator{
		a:    el.SemiMajor,
		e2:   e2,
		ep2:  e2 / (1 - e2),
		k0:   k0,
		lon0: p.CentralMeridian * deg2rad,
		lat0: p.LatitudeOrigin * deg2rad,
		fe:   p.FalseEasting * unitToMeter,
		fn:   p.FalseNorthing * unitToMeter,
	}
	tm.m0 = tm.meridianArc(tm.lat0)
	return tm
}

func (tm *transverseMercator) meridianArc(phi float64) float64 {
	e2 := tm.e2
	e4 := e2 * e2
	e6 := e4 * e2
	return tm.a * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// Forward maps longitude/latitude in degrees to easting/northing in meters.
func (tm *transverseMercator) Forward(lon, lat float64) (x, y float64) {
	phi := lat * deg2rad
	sin, cos := math.Sincos(phi)
	tan := math.Tan(phi)

	n := tm.a / math.Sqrt(1-tm.e2*sin*sin)
	t := tan * tan
	c := tm.ep2 * cos * cos
	a := (lon*deg2rad - tm.lon0) * cos
	m := tm.meridianArc(phi)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x = tm.fe + tm.k0*n*(a+(1-t+c)*a3/6+(5-18*t+t*t+72*c-58*tm.ep2)*a5/120)
	y = tm.fn + tm.k0*(m-tm.m0+n*tan*(a2/2+(5-t+9*c+4*c*c)*a4/24+(61-58*t+t*t+600*c-330*tm.ep2)*a6/720))
	return x, y
}

// Inverse maps easting/northing in meters to longitude/latitude in degrees.
func (tm *transverseMercator) Inverse(x, y float64) (lon, lat float64) {
	e2 := tm.e2
	e4 := e2 * e2
	e6 := e4 * e2

	m := tm.m0 + (y-tm.fn)/tm.k0
	mu := m / (tm.a * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	sq := math.Sqrt(1 - e2)
	e1 := (1 - sq) / (1 + sq)
	e1p2 := e1 * e1
	e1p3 := e1p2 * e1
	e1p4 := e1p3 * e1

	phi1 := mu +
		(3*e1/2-27*e1p3/32)*math.Sin(2*mu) +
		(21*e1p2/16-55*e1p4/32)*math.Sin(4*mu) +
		(151*e1p3/96)*math.Sin(6*mu) +
		(1097*e1p4/512)*math.Sin(8*mu)

	sin1, cos1 := math.Sincos(phi1)
	tan1 := math.Tan(phi1)
	c1 := tm.ep2 * cos1 * cos1
	t1 := tan1 * tan1
	denom := 1 - e2*sin1*sin1
	n1 := tm.a / math.Sqrt(denom)
	r1 := tm.a * (1 - e2) / math.Pow(denom, 1.5)
	d := (x - tm.fe) / (n1 * tm.k0)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	phi := phi1 - (n1*tan1/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*tm.ep2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*tm.ep2-3*c1*c1)*d6/720)
	lam := tm.lon0 + (d-(1+2*t1+c1)*d3/6+
		(5-2*c1+28*t1-3*c1*c1+8*tm.ep2+24*t1*t1)*d5/120)/cos1

	return lam / deg2rad, phi / deg2rad
}
