package crs

import (
	"fmt"
	"os"
	"strings"
)

// ReadPRJ reads the CRS of a shapefile from its .prj sibling.
// A missing file yields Unknown without error.
func ReadPRJ(path string) (CRS, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Unknown, nil
	}
	if err != nil {
		return Unknown, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return Unknown, nil
	}
	return ParseWKT(string(data))
}

// ParseWKT interprets an ESRI or OGC well-known-text CRS definition.
// An EPSG authority code takes precedence over the textual parameters.
func ParseWKT(s string) (CRS, error) {
	root, err := parseWKT(strings.TrimSpace(s))
	if err != nil {
		return Unknown, fmt.Errorf("%w: %v", ErrUnknown, err)
	}

	if code, ok := authorityCode(root); ok {
		if c, err := fromCode(code); err == nil {
			if name := root.name(); name != "" {
				c.Name = name
			}
			return c, nil
		}
	}

	switch strings.ToUpper(root.Keyword) {
	case "GEOGCS", "GEOGCRS", "GEODCRS":
		return geographic(root), nil
	case "PROJCS", "PROJCRS":
		return projected(root)
	}
	return Unknown, fmt.Errorf("%w: %s definitions are not handled", ErrUnsupported, root.Keyword)
}

func authorityCode(n *wktNode) (int, bool) {
	auth := n.firstChild("AUTHORITY", "ID")
	if auth == nil || !strings.EqualFold(auth.name(), "EPSG") {
		return 0, false
	}
	f, ok := auth.number(1)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func geographic(n *wktNode) CRS {
	c := CRS{Name: n.name(), Kind: KindGeographic, Ellipsoid: WGS84Ellipsoid}
	if datum := n.firstChild("DATUM", "TRF"); datum != nil {
		c.Datum = datum.name()
		if sph := datum.firstChild("SPHEROID", "ELLIPSOID"); sph != nil {
			a, okA := sph.number(1)
			rf, okF := sph.number(2)
			if okA && okF && a > 0 {
				c.Ellipsoid = Ellipsoid{Name: sph.name(), SemiMajor: a, InvFlattening: rf}
			}
		}
		if tw := datum.child("TOWGS84"); tw != nil {
			c.Shift = towgs84(tw)
		}
	}
	if c.HasWGS84Datum() {
		c.EPSG = 4326
	}
	return c
}

func projected(n *wktNode) (CRS, error) {
	base := n.firstChild("GEOGCS", "BASEGEOGCRS", "BASEGEODCRS")
	if base == nil {
		return Unknown, fmt.Errorf("%w: projected CRS %q has no geographic base", ErrUnknown, n.name())
	}
	geo := geographic(base)

	c := CRS{
		Name:        n.name(),
		Datum:       geo.Datum,
		Ellipsoid:   geo.Ellipsoid,
		Shift:       geo.Shift,
		UnitToMeter: 1,
	}
	if unit := n.firstChild("UNIT", "LENGTHUNIT"); unit != nil {
		if f, ok := unit.number(1); ok && f > 0 {
			c.UnitToMeter = f
		}
	}

	method := ""
	if proj := n.firstChild("PROJECTION", "METHOD"); proj != nil {
		method = normalizeName(proj.name())
	} else if conv := n.child("CONVERSION"); conv != nil {
		method = normalizeName(conv.child("METHOD").name())
	}
	name := normalizeName(c.Name)

	switch {
	case strings.Contains(method, "mercator_auxiliary_sphere"),
		strings.Contains(method, "pseudo_mercator"),
		strings.Contains(name, "web_mercator"),
		strings.Contains(name, "pseudo_mercator"):
		c.Kind = KindWebMercator
		c.EPSG = 3857
		return c, nil
	case strings.Contains(method, "transverse_mercator"), strings.Contains(method, "gauss_kruger"):
		c.Kind = KindTransverseMercator
		c.Proj = projParams(n)
		return c, nil
	case strings.Contains(method, "lambert_conformal_conic"):
		c.Kind = KindLambertConformalConic
		c.Proj = projParams(n)
		return c, nil
	}
	return Unknown, fmt.Errorf("%w: projection %q of %q", ErrUnsupported, method, c.Name)
}

func towgs84(n *wktNode) Helmert {
	var v [7]float64
	for i := range v {
		v[i], _ = n.number(i)
	}
	return Helmert{TX: v[0], TY: v[1], TZ: v[2], RX: v[3], RY: v[4], RZ: v[5], DS: v[6]}
}

func projParams(n *wktNode) Params {
	p := Params{ScaleFactor: 1}
	params := n.children("PARAMETER")
	if conv := n.child("CONVERSION"); conv != nil {
		params = append(params, conv.children("PARAMETER")...)
	}
	for _, param := range params {
		v, ok := param.number(1)
		if !ok {
			continue
		}
		switch normalizeName(param.name()) {
		case "central_meridian", "longitude_of_origin", "longitude_of_natural_origin":
			p.CentralMeridian = v
		case "latitude_of_origin", "latitude_of_natural_origin":
			p.LatitudeOrigin = v
		case "standard_parallel_1", "latitude_of_1st_standard_parallel":
			p.StandardParallel1 = v
		case "standard_parallel_2", "latitude_of_2nd_standard_parallel":
			p.StandardParallel2 = v
		case "latitude_of_false_origin":
			p.LatitudeOrigin = v
		case "longitude_of_false_origin":
			p.CentralMeridian = v
		case "scale_factor", "scale_factor_at_natural_origin":
			p.ScaleFactor = v
		case "false_easting", "easting_at_false_origin":
			p.FalseEasting = v
		case "false_northing", "northing_at_false_origin":
			p.FalseNorthing = v
		}
	}
	return p
}
