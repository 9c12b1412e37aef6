package crs

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// planarProjection maps between geodetic degrees and projected meters on one ellipsoid.
type planarProjection interface {
	Forward(lon, lat float64) (x, y float64)
	Inverse(x, y float64) (lon, lat float64)
}

func (c CRS) projection() (planarProjection, error) {
	switch c.Kind {
	case KindTransverseMercator:
		return newTransverseMercator(c.Ellipsoid, c.Proj, c.unit()), nil
	case KindLambertConformalConic:
		return newLambertConic(c.Ellipsoid, c.Proj, c.unit()), nil
	}
	return nil, fmt.Errorf("%w: %s has no planar projection", ErrUnsupported, c)
}

// ToWGS84 returns the projection mapping coordinates of c to EPSG:4326
// longitude/latitude. Datums other than WGS84 are shifted when a TOWGS84 node
// or a built-in shift is available and kept as they are otherwise.
func (c CRS) ToWGS84() (orb.Projection, error) {
	switch c.Kind {
	case KindUnknown:
		return nil, fmt.Errorf("%w: %s", ErrUnknown, c)
	case KindWebMercator:
		return project.Mercator.ToWGS84, nil
	}

	shift := c.toWGS84Datum()
	if c.Kind == KindGeographic {
		return func(p orb.Point) orb.Point {
			lon, lat := shift(p[0], p[1])
			return orb.Point{lon, lat}
		}, nil
	}

	proj, err := c.projection()
	if err != nil {
		return nil, err
	}
	u := c.unit()
	return func(p orb.Point) orb.Point {
		lon, lat := shift(proj.Inverse(p[0]*u, p[1]*u))
		return orb.Point{lon, lat}
	}, nil
}

// FromWGS84 returns the projection mapping EPSG:4326 longitude/latitude into c.
func (c CRS) FromWGS84() (orb.Projection, error) {
	switch c.Kind {
	case KindUnknown:
		return nil, fmt.Errorf("%w: %s", ErrUnknown, c)
	case KindWebMercator:
		return project.WGS84.ToMercator, nil
	}

	shift := c.fromWGS84Datum()
	if c.Kind == KindGeographic {
		return func(p orb.Point) orb.Point {
			lon, lat := shift(p[0], p[1])
			return orb.Point{lon, lat}
		}, nil
	}

	proj, err := c.projection()
	if err != nil {
		return nil, err
	}
	u := c.unit()
	return func(p orb.Point) orb.Point {
		x, y := proj.Forward(shift(p[0], p[1]))
		return orb.Point{x / u, y / u}
	}, nil
}

func (c CRS) toWGS84Datum() func(lon, lat float64) (float64, float64) {
	h, ok := c.DatumShift()
	if !ok || c.HasWGS84Datum() {
		return identity
	}
	return datumShift(c.ellipsoid(), WGS84Ellipsoid, h)
}

func (c CRS) fromWGS84Datum() func(lon, lat float64) (float64, float64) {
	h, ok := c.DatumShift()
	if !ok || c.HasWGS84Datum() {
		return identity
	}
	fwd := datumShift(c.ellipsoid(), WGS84Ellipsoid, h)
	approx := datumShift(WGS84Ellipsoid, c.ellipsoid(), h.inverse())
	// Heights are dropped between steps, so the negated shift is only close;
	// refine it until the forward shift lands on the input.
	return func(lon, lat float64) (float64, float64) {
		gLon, gLat := approx(lon, lat)
		for iter := 0; iter < 4; iter++ {
			fLon, fLat := fwd(gLon, gLat)
			gLon, gLat = gLon+lon-fLon, gLat+lat-fLat
		}
		return gLon, gLat
	}
}

func identity(lon, lat float64) (float64, float64) {
	return lon, lat
}

func (c CRS) ellipsoid() Ellipsoid {
	if c.Ellipsoid.SemiMajor <= 0 {
		return WGS84Ellipsoid
	}
	return c.Ellipsoid
}

func (c CRS) unit() float64 {
	if c.UnitToMeter <= 0 {
		return 1
	}
	return c.UnitToMeter
}
