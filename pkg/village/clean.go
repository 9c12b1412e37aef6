package village

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"

	"sundarbanmap/pkg/table"
)

// Derived and output column names of the village layer.
const (
	ColVillage        = "village"
	ColVillageClean   = "village_clean"
	ColVillageCode    = "village_code"
	ColBlockName      = "block_name"
	ColSubdistricName = "subdistric_name"
	ColDistrictName   = "district_name"
	ColAreaKm2        = "area_km2"
)

// derivedFrom maps each derived column to the raw column it copies.
var derivedFrom = []struct{ dst, src string }{
	{ColVillageCode, "vlcode"},
	{ColBlockName, "block"},
	{ColSubdistricName, "subdistric"},
	{ColDistrictName, "district"},
}

// OutputColumns is the column set published for the web map, in order.
var OutputColumns = []string{
	ColVillageClean, ColVillage, ColVillageCode, ColBlockName,
	ColSubdistricName, ColDistrictName, ColAreaKm2,
}

// SortKeys orders villages by district, then sub-district, then name.
var SortKeys = []string{ColDistrictName, ColSubdistricName, ColVillageClean}

// Clean returns a copy of t with the derived village columns added.
// t must already be in EPSG:4326.
func Clean(t *table.Table) (*table.Table, error) {
	if !t.CRS.IsWGS84() {
		return nil, fmt.Errorf("village cleaning expects EPSG:4326, got %s", t.CRS)
	}

	out := t.Clone()
	out.SetColumn(ColVillageClean, func(r table.Row) any {
		return CleanName(out.Lookup(r, ColVillage, nil))
	})
	for _, d := range derivedFrom {
		out.SetColumn(d.dst, func(r table.Row) any {
			return out.Lookup(r, d.src, "")
		})
	}
	out.SetColumn(ColAreaKm2, func(r table.Row) any {
		return AreaKm2(r.Geometry)
	})
	return out, nil
}

// AreaKm2 returns the planar area of a WGS84 geometry measured in Web
// Mercator (EPSG:3857) and converted to square kilometers.
func AreaKm2(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	merc := project.Geometry(orb.Clone(g), project.WGS84.ToMercator)
	return math.Abs(planar.Area(merc)) / 1_000_000
}

// DistrictCount is the number of villages in one district.
type DistrictCount struct {
	District string
	Villages int
}

// Summary holds the statistics printed after the village layer is written.
type Summary struct {
	Districts    []DistrictCount // largest first
	TotalAreaKm2 float64
}

// Summarize counts villages per district and totals their area.
func Summarize(t *table.Table) Summary {
	var s Summary
	counts := make(map[string]int)
	for _, r := range t.Rows {
		if t.HasColumn(ColDistrictName) {
			counts[table.FormatValue(r.Properties[ColDistrictName])]++
		}
		if a, ok := r.Properties[ColAreaKm2].(float64); ok {
			s.TotalAreaKm2 += a
		}
	}
	for d, n := range counts {
		s.Districts = append(s.Districts, DistrictCount{District: d, Villages: n})
	}
	sort.Slice(s.Districts, func(i, j int) bool {
		if s.Districts[i].Villages != s.Districts[j].Villages {
			return s.Districts[i].Villages > s.Districts[j].Villages
		}
		return s.Districts[i].District < s.Districts[j].District
	})
	return s
}
