package crs

import "math"

// lambertConic implements the ellipsoidal Lambert Conformal Conic projection
// (Snyder, USGS PP 1395, pp. 107-109) in its one and two standard parallel forms.
type lambertConic struct {
	a, e   float64
	n, f   float64 // cone constant and a*k0*F
	rho0   float64
	lon0   float64 // radians
	fe, fn float64 // meters
}

func newLambertConic(el Ellipsoid, p Params, unitToMeter float64) *lambertConic {
	fl := 0.0
	if el.InvFlattening != 0 {
		fl = 1 / el.InvFlattening
	}
	lc := &lambertConic{
		a:    el.SemiMajor,
		e:    math.Sqrt(fl * (2 - fl)),
		lon0: p.CentralMeridian * deg2rad,
		fe:   p.FalseEasting * unitToMeter,
		fn:   p.FalseNorthing * unitToMeter,
	}

	k0 := p.ScaleFactor
	if k0 == 0 {
		k0 = 1
	}
	sp1, sp2 := p.StandardParallel1, p.StandardParallel2
	if sp1 == 0 && sp2 == 0 {
		sp1 = p.LatitudeOrigin
	}
	if sp2 == 0 {
		sp2 = sp1
	}
	phi1, phi2 := sp1*deg2rad, sp2*deg2rad

	m1, t1 := lc.m(phi1), lc.t(phi1)
	if sp1 == sp2 {
		lc.n = math.Sin(phi1)
	} else {
		lc.n = (math.Log(m1) - math.Log(lc.m(phi2))) / (math.Log(t1) - math.Log(lc.t(phi2)))
	}
	lc.f = lc.a * k0 * m1 / (lc.n * math.Pow(t1, lc.n))
	lc.rho0 = lc.rho(p.LatitudeOrigin * deg2rad)
	return lc
}

func (lc *lambertConic) m(phi float64) float64 {
	sin, cos := math.Sincos(phi)
	return cos / math.Sqrt(1-lc.e*lc.e*sin*sin)
}

func (lc *lambertConic) t(phi float64) float64 {
	es := lc.e * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-es)/(1+es), lc.e/2)
}

func (lc *lambertConic) rho(phi float64) float64 {
	if math.Abs(math.Abs(phi)-math.Pi/2) < 1e-12 {
		// the pole on the cone's side maps to the apex
		if phi*lc.n > 0 {
			return 0
		}
		return math.Inf(1)
	}
	return lc.f * math.Pow(lc.t(phi), lc.n)
}

// Forward maps longitude/latitude in degrees to easting/northing in meters.
func (lc *lambertConic) Forward(lon, lat float64) (x, y float64) {
	r := lc.rho(lat * deg2rad)
	theta := lc.n * (lon*deg2rad - lc.lon0)
	sin, cos := math.Sincos(theta)
	return lc.fe + r*sin, lc.fn + lc.rho0 - r*cos
}

// Inverse maps easting/northing in meters to longitude/latitude in degrees.
func (lc *lambertConic) Inverse(x, y float64) (lon, lat float64) {
	dx := x - lc.fe
	dy := lc.rho0 - (y - lc.fn)
	if lc.n < 0 {
		dx, dy = -dx, -dy
	}
	r := math.Copysign(math.Hypot(dx, dy), lc.n)
	theta := math.Atan2(dx, dy)

	var phi float64
	if r == 0 {
		phi = math.Copysign(math.Pi/2, lc.n)
	} else {
		t := math.Pow(r/lc.f, 1/lc.n)
		phi = math.Pi/2 - 2*math.Atan(t)
		for iter := 0; iter < 15; iter++ {
			es := lc.e * math.Sin(phi)
			next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), lc.e/2))
			if math.Abs(next-phi) < 1e-14 {
				phi = next
				break
			}
			phi = next
		}
	}
	return (theta/lc.n + lc.lon0) / deg2rad, phi / deg2rad
}
