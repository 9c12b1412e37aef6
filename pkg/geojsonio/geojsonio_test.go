package geojsonio

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sundarbanmap/pkg/crs"
	"sundarbanmap/pkg/table"
)

func sampleTable() *table.Table {
	t := table.New("villages", []string{"village_clean", "district_name", "area_km2"}, crs.WGS84)
	t.Append(map[string]any{"village_clean": "Gosaba", "district_name": "South 24 Parganas", "area_km2": 1.25},
		orb.Polygon{{{88.8, 22.1}, {88.8, 22.2}, {88.9, 22.2}, {88.8, 22.1}}})
	t.Append(map[string]any{"village_clean": "Jharkhali <Bazar> & Co", "district_name": "দক্ষিণ ২৪ পরগনা", "area_km2": 0.5, "dropped": "x"},
		orb.Point{88.7, 22.0})
	t.Append(map[string]any{"village_clean": "Unknown Village", "district_name": "", "area_km2": nil}, nil)
	return t
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "villages.geojson")
	tbl := sampleTable()

	require.NoError(t, Write(path, tbl))

	fc, err := Read(path)
	require.NoError(t, err)
	require.Len(t, fc.Features, tbl.Len())

	want := append([]string(nil), tbl.Columns...)
	sort.Strings(want)
	for i, f := range fc.Features {
		var keys []string
		for k := range f.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		assert.Equal(t, want, keys, "feature %d property keys", i)
	}

	assert.Equal(t, "0", fc.Features[0].ID)
	assert.Equal(t, "Polygon", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, orb.Point{88.7, 22.0}, fc.Features[1].Geometry)
}

func TestMarshal_Format(t *testing.T) {
	data, err := Marshal(sampleTable())
	require.NoError(t, err)
	s := string(data)

	assert.True(t, strings.HasPrefix(s, "{\n  \"type\": \"FeatureCollection\",\n  \"features\": ["), "unexpected header: %.60s", s)
	assert.True(t, strings.HasSuffix(s, "}\n"))
	assert.Contains(t, s, "দক্ষিণ ২৪ পরগনা", "non-ASCII must be written literally")
	assert.Contains(t, s, "Jharkhali <Bazar> & Co", "HTML characters must not be escaped")
	assert.Contains(t, s, `"geometry": null`)
	assert.NotContains(t, s, "dropped", "undeclared properties are not serialized")

	// Properties follow the column order.
	first := strings.Index(s, `"village_clean"`)
	second := strings.Index(s, `"district_name"`)
	third := strings.Index(s, `"area_km2"`)
	assert.True(t, first < second && second < third, "property order %d %d %d", first, second, third)
}

func TestWrite_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ss.geojson")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than nothing"), 0o644))

	empty := table.New("ss", nil, crs.WGS84)
	require.NoError(t, Write(path, empty))

	fc, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestWrite_SerializationError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := Write(filepath.Join(blocker, "districts.geojson"), sampleTable())
	var se *SerializationError
	require.True(t, errors.As(err, &se), "expected SerializationError, got %v", err)
	assert.Contains(t, se.Path, "districts.geojson")
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(filepath.Join(dir, "missing.geojson"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.geojson")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Read(bad)
	assert.Error(t, err)
}

func TestReadTable_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "villages.geojson")
	require.NoError(t, Write(path, sampleTable()))

	tbl, err := ReadTable(path, "villages")
	require.NoError(t, err)

	assert.Equal(t, []string{"village_clean", "district_name", "area_km2"}, tbl.Columns, "file order must be kept")
	assert.True(t, tbl.CRS.IsWGS84())
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "Gosaba", tbl.Rows[0].Properties["village_clean"])
	assert.Nil(t, tbl.Rows[2].Geometry)
	assert.Nil(t, tbl.Rows[2].Properties["area_km2"])
}

func TestReadTable_FirstSeenKeyOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layer.geojson")
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":null,"properties":null},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[88.5,22]},"properties":{"zeta":1,"alpha":{"nested":[1,2]},"mid":"x"}},
		{"type":"Feature","geometry":null,"properties":{"mid":"y","beta":true,"zeta":2}}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tbl, err := ReadTable(path, "layer")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid", "beta"}, tbl.Columns)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "y", tbl.Rows[2].Properties["mid"])
}

func TestToTable_UnorderedKeysSorted(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Point{1, 2})
	f.Properties = geojson.Properties{"b": 1, "a": 2, "c": 3}
	fc.Append(f)

	tbl := ToTable("x", fc, []string{"c"})
	assert.Equal(t, []string{"c", "a", "b"}, tbl.Columns)
}
