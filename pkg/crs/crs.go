// Package crs describes coordinate reference systems read from shapefile .prj
// files and maps their coordinates to WGS84 longitude/latitude.
package crs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknown is returned when a dataset carries no usable CRS definition.
	ErrUnknown = errors.New("unknown CRS")
	// ErrUnsupported is returned for CRS definitions that parse but cannot be transformed.
	ErrUnsupported = errors.New("unsupported CRS")
)

// Kind classifies how the coordinates of a CRS relate to longitude/latitude.
type Kind int

const (
	KindUnknown Kind = iota
	KindGeographic
	KindWebMercator
	KindTransverseMercator
	KindLambertConformalConic
)

func (k Kind) String() string {
	switch k {
	case KindGeographic:
		return "geographic"
	case KindWebMercator:
		return "web_mercator"
	case KindTransverseMercator:
		return "transverse_mercator"
	case KindLambertConformalConic:
		return "lambert_conformal_conic"
	default:
		return "unknown"
	}
}

// Ellipsoid is a reference ellipsoid given by semi-major axis (meters) and inverse flattening.
type Ellipsoid struct {
	Name          string
	SemiMajor     float64
	InvFlattening float64
}

// WGS84Ellipsoid is the ellipsoid of EPSG:4326.
var WGS84Ellipsoid = Ellipsoid{Name: "WGS 84", SemiMajor: 6378137.0, InvFlattening: 298.257223563}

// Params holds the parameters of a projected CRS.
// Angles are in degrees, offsets in the CRS's linear unit.
type Params struct {
	CentralMeridian   float64
	LatitudeOrigin    float64
	StandardParallel1 float64 // conic projections only
	StandardParallel2 float64
	ScaleFactor       float64
	FalseEasting      float64
	FalseNorthing     float64
}

// Helmert is a seven-parameter datum shift to WGS84 in the position vector
// convention of the WKT TOWGS84 node: translations in meters, rotations in
// arc-seconds, scale in parts per million.
type Helmert struct {
	TX, TY, TZ float64
	RX, RY, RZ float64
	DS         float64
}

// IsZero reports whether h leaves coordinates unchanged.
func (h Helmert) IsZero() bool {
	return h == Helmert{}
}

// knownShifts covers datums of the region whose ESRI .prj files carry no TOWGS84 node.
var knownShifts = map[string]Helmert{
	"kalianpur_1975": {TX: 295, TY: 736, TZ: 257},
}

// CRS is a coordinate reference system the converter knows how to handle.
type CRS struct {
	Name        string
	EPSG        int // 0 when no authority code is known
	Kind        Kind
	Datum       string
	Ellipsoid   Ellipsoid
	Proj        Params
	Shift       Helmert // from TOWGS84; zero when absent
	UnitToMeter float64 // linear unit of projected systems
}

// WGS84 is EPSG:4326, the storage CRS of every output table.
var WGS84 = CRS{
	Name:      "WGS 84",
	EPSG:      4326,
	Kind:      KindGeographic,
	Datum:     "WGS_1984",
	Ellipsoid: WGS84Ellipsoid,
}

// WebMercator is EPSG:3857, used for metric area computation.
var WebMercator = CRS{
	Name:        "WGS 84 / Pseudo-Mercator",
	EPSG:        3857,
	Kind:        KindWebMercator,
	Datum:       "WGS_1984",
	Ellipsoid:   WGS84Ellipsoid,
	UnitToMeter: 1,
}

// Unknown is the CRS of a dataset without a .prj file.
var Unknown = CRS{}

// UTM returns the WGS84 UTM zone CRS (EPSG:326zz north, 327zz south).
func UTM(zone int, north bool) (CRS, error) {
	if zone < 1 || zone > 60 {
		return Unknown, fmt.Errorf("%w: UTM zone %d out of range", ErrUnsupported, zone)
	}
	hemi, code, fn := "N", 32600+zone, 0.0
	if !north {
		hemi, code, fn = "S", 32700+zone, 10000000.0
	}
	return CRS{
		Name:      fmt.Sprintf("WGS 84 / UTM zone %d%s", zone, hemi),
		EPSG:      code,
		Kind:      KindTransverseMercator,
		Datum:     "WGS_1984",
		Ellipsoid: WGS84Ellipsoid,
		Proj: Params{
			CentralMeridian: float64(zone*6 - 183),
			ScaleFactor:     0.9996,
			FalseEasting:    500000,
			FalseNorthing:   fn,
		},
		UnitToMeter: 1,
	}, nil
}

// FromEPSG resolves "EPSG:nnnn" (or a bare code) to a CRS.
func FromEPSG(s string) (CRS, error) {
	code := strings.TrimSpace(s)
	if i := strings.IndexByte(code, ':'); i >= 0 {
		if !strings.EqualFold(code[:i], "EPSG") {
			return Unknown, fmt.Errorf("%w: authority %q", ErrUnsupported, code[:i])
		}
		code = code[i+1:]
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return Unknown, fmt.Errorf("%w: invalid EPSG code %q", ErrUnknown, s)
	}
	return fromCode(n)
}

func fromCode(n int) (CRS, error) {
	switch {
	case n == 4326:
		return WGS84, nil
	case n == 3857 || n == 900913 || n == 3785:
		return WebMercator, nil
	case n > 32600 && n <= 32660:
		return UTM(n-32600, true)
	case n > 32700 && n <= 32760:
		return UTM(n-32700, false)
	}
	return Unknown, fmt.Errorf("%w: EPSG:%d", ErrUnsupported, n)
}

// IsWGS84 reports whether c is EPSG:4326.
func (c CRS) IsWGS84() bool {
	return c.EPSG == 4326
}

// IsKnown reports whether c carries a definition at all.
func (c CRS) IsKnown() bool {
	return c.Kind != KindUnknown
}

// HasWGS84Datum reports whether the datum of c is WGS 1984.
func (c CRS) HasWGS84Datum() bool {
	return isWGS84Name(c.Datum)
}

// DatumShift returns the transformation from the datum of c to WGS84.
// ok is false when the datum is not WGS84 and no shift is known for it.
func (c CRS) DatumShift() (h Helmert, ok bool) {
	if c.HasWGS84Datum() {
		return Helmert{}, true
	}
	if !c.Shift.IsZero() {
		return c.Shift, true
	}
	h, ok = knownShifts[normalizeName(c.Datum)]
	return h, ok
}

func (c CRS) String() string {
	switch {
	case c.EPSG != 0:
		return "EPSG:" + strconv.Itoa(c.EPSG)
	case c.Name != "":
		return c.Name
	}
	return "unknown"
}

func isWGS84Name(s string) bool {
	n := normalizeName(s)
	for _, alias := range []string{"wgs_1984", "wgs_84", "wgs84", "world_geodetic_system_1984"} {
		if strings.Contains(n, alias) {
			return true
		}
	}
	return false
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return strings.TrimPrefix(s, "d_")
}
