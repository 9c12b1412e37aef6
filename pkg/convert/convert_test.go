package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sundarbanmap/internal/shptest"
	"sundarbanmap/pkg/config"
	"sundarbanmap/pkg/crs"
	"sundarbanmap/pkg/geojsonio"
	"sundarbanmap/pkg/reproject"
	"sundarbanmap/pkg/village"
)

func boundaryFields() []shp.Field {
	return []shp.Field{shp.StringField("name", 40), shp.NumberField("code", 6)}
}

func writeDistricts(t *testing.T, dir, prj string) {
	t.Helper()
	shptest.WritePolygons(t, dir, "Districtt", boundaryFields(), []shptest.Feature{
		{Parts: [][]shp.Point{shptest.Square(88.0, 21.5, 0.5)}, Values: []any{"South 24 Parganas", 18}},
		{Parts: [][]shp.Point{shptest.Square(88.5, 22.0, 0.5)}, Values: []any{"North 24 Parganas", 11}},
	}, prj)
}

func writeVillages(t *testing.T, dir string) {
	t.Helper()
	shptest.WritePolygons(t, dir, "village", shptest.VillageFields(), []shptest.Feature{
		{Parts: [][]shp.Point{shptest.Square(88.70, 22.10, 0.01)}, Values: []any{"rangabelia gram panchayat", 3, "Gosaba", "Gosaba", "South 24 Parganas"}},
		{Parts: [][]shp.Point{shptest.Square(88.60, 22.10, 0.01)}, Values: []any{"  hingalganj  ct", 1, "Hingalganj", "Basirhat", "North 24 Parganas"}},
		{Parts: [][]shp.Point{shptest.Square(88.65, 22.10, 0.01)}, Values: []any{nil, 2, "Basanti", "Canning", "South 24 Parganas"}},
	}, shptest.WGS84PRJ)
}

func newTestConverter(t *testing.T, cfg *config.Config) (*Converter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c, err := NewConverter(cfg, &out)
	require.NoError(t, err)
	return c, &out
}

func TestRun_NoInputs(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg := config.DefaultConfig()
	c, out := newTestConverter(t, cfg)

	report := c.Run(context.Background(), cfg.Datasets)

	assert.Equal(t, 0, report.Converted())
	assert.Equal(t, 3, report.Total())
	assert.Equal(t, 3, report.Skipped())
	_, err := os.Stat(filepath.Join(dir, "data"))
	assert.True(t, os.IsNotExist(err), "no output directory may be created")

	PrintSummary(out, report)
	assert.Contains(t, out.String(), "Conversion complete: 0/3 files converted successfully")
	assert.NotContains(t, out.String(), "Next steps:")
}

func TestRun_VillagesEndToEnd(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeDistricts(t, dir, shptest.WGS84PRJ)
	writeVillages(t, dir)

	cfg := config.DefaultConfig()
	c, out := newTestConverter(t, cfg)

	report := c.Run(context.Background(), cfg.Datasets)
	require.Equal(t, 2, report.Converted(), "results: %+v", report.Results)
	assert.Equal(t, 1, report.Skipped(), "ss.shp is absent")

	fc, err := geojsonio.Read(filepath.Join("data", "villages.geojson"))
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	var names, districts []string
	for _, f := range fc.Features {
		assert.Len(t, f.Properties, len(village.OutputColumns))
		names = append(names, f.Properties.MustString(village.ColVillageClean))
		districts = append(districts, f.Properties.MustString(village.ColDistrictName))
	}
	assert.Equal(t, []string{"North 24 Parganas", "South 24 Parganas", "South 24 Parganas"}, districts)
	assert.Equal(t, []string{"Hingalganj (Census Town)", "Unknown Village", "Rangabelia GP"}, names)

	res := report.Results[2]
	require.NotNil(t, res.Villages)
	assert.InDelta(t, 3*1.33657, res.Villages.TotalAreaKm2, 0.01)

	districtsFC, err := geojsonio.Read(filepath.Join("data", "districts.geojson"))
	require.NoError(t, err)
	require.Len(t, districtsFC.Features, 2)
	assert.Equal(t, "South 24 Parganas", districtsFC.Features[0].Properties.MustString("name"))

	PrintSummary(out, report)
	s := out.String()
	assert.Contains(t, s, "Conversion complete: 2/3 files converted successfully")
	assert.Contains(t, s, "  - data/villages.geojson")
	assert.Contains(t, s, "Villages by district:\n  South 24 Parganas: 2 villages\n  North 24 Parganas: 1 villages\n")
	assert.Contains(t, s, "Total area covered: 4.01 km²")
	assert.Contains(t, s, "Next steps:")
}

func TestRun_FailureDoesNotStopBatch(t *testing.T) {
	dir := t.TempDir()
	writeDistricts(t, dir, "") // no .prj: unknown CRS
	shptest.WritePolygons(t, dir, "ss", boundaryFields(), []shptest.Feature{
		{Parts: [][]shp.Point{shptest.Square(88.9, 21.9, 0.2)}, Values: []any{"Sagar", 1}},
	}, shptest.WGS84PRJ)

	cfg := config.DefaultConfig()
	cfg.InputDir = dir
	for i := range cfg.Datasets {
		cfg.Datasets[i].Output = filepath.Join(dir, "out", cfg.Datasets[i].Name+".geojson")
	}
	c, _ := newTestConverter(t, cfg)

	report := c.Run(context.Background(), cfg.Datasets)

	require.Len(t, report.Results, 3)
	assert.Equal(t, StatusFailed, report.Results[0].Status)
	var re *reproject.ReprojectionError
	assert.True(t, errors.As(report.Results[0].Err, &re), "expected ReprojectionError, got %v", report.Results[0].Err)
	assert.True(t, errors.Is(report.Results[0].Err, crs.ErrUnknown))

	assert.Equal(t, StatusConverted, report.Results[1].Status)
	assert.Equal(t, 1, report.Results[1].Features)
	assert.Equal(t, StatusSkipped, report.Results[2].Status)

	assert.Equal(t, 1, report.Converted())
	assert.Equal(t, 1, report.Failed())
	assert.NoFileExists(t, filepath.Join(dir, "out", "districts.geojson"))
	assert.FileExists(t, filepath.Join(dir, "out", "ss.geojson"))
}

func TestRun_ProjectedInputs(t *testing.T) {
	tests := []struct {
		name      string
		prj       string
		assumeCRS string
		x, y      float64
		wantLon   float64
		wantLat   float64
		delta     float64
	}{
		{name: "UTM_PRJ", prj: shptest.UTM45NPRJ, x: 500000, y: 2430000, wantLon: 87.0, wantLat: 21.97, delta: 0.05},
		{name: "AssumedCRS", assumeCRS: "EPSG:32645", x: 500000, y: 2430000, wantLon: 87.0, wantLat: 21.97, delta: 0.05},
		{name: "LambertConic_PRJ", prj: shptest.IndiaZoneIIbPRJ, x: 2743195.5, y: 914398.5, wantLon: 89.9971, wantLat: 26.0005, delta: 0.0005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			shptest.WritePolygons(t, dir, "ss", boundaryFields(), []shptest.Feature{
				{Parts: [][]shp.Point{shptest.Square(tt.x, tt.y, 1000)}, Values: []any{"Block", 7}},
			}, tt.prj)

			cfg := config.DefaultConfig()
			cfg.InputDir = dir
			cfg.AssumeCRS = tt.assumeCRS
			d := cfg.Datasets[1]
			d.Output = filepath.Join(dir, "ss.geojson")
			c, _ := newTestConverter(t, cfg)

			res := c.Convert(context.Background(), d)
			require.Equal(t, StatusConverted, res.Status, "error: %v", res.Err)

			fc, err := geojsonio.Read(d.Output)
			require.NoError(t, err)
			require.Len(t, fc.Features, 1)
			b := fc.Features[0].Geometry.Bound()
			assert.InDelta(t, tt.wantLon, b.Min[0], tt.delta)
			assert.InDelta(t, tt.wantLat, b.Min[1], tt.delta)
			assert.Less(t, b.Max[0]-b.Min[0], 0.02)
		})
	}
}

func TestRun_UnusablePRJ(t *testing.T) {
	tests := []struct {
		name      string
		assumeCRS string
		want      Status
	}{
		{name: "NoFallback", want: StatusFailed},
		{name: "AssumedCRS", assumeCRS: "EPSG:4326", want: StatusConverted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			shptest.WritePolygons(t, dir, "ss", boundaryFields(), []shptest.Feature{
				{Parts: [][]shp.Point{shptest.Square(88.9, 21.9, 0.2)}, Values: []any{"Sagar", 1}},
			}, `PROJCS["garbage`)

			cfg := config.DefaultConfig()
			cfg.InputDir = dir
			cfg.AssumeCRS = tt.assumeCRS
			d := cfg.Datasets[1]
			d.Output = filepath.Join(dir, "ss.geojson")
			c, _ := newTestConverter(t, cfg)

			res := c.Convert(context.Background(), d)
			require.Equal(t, tt.want, res.Status, "error: %v", res.Err)
			if tt.want == StatusFailed {
				var re *reproject.ReprojectionError
				assert.True(t, errors.As(res.Err, &re), "expected ReprojectionError, got %v", res.Err)
				assert.ErrorIs(t, res.Err, crs.ErrUnknown)
				assert.NoFileExists(t, d.Output)
				return
			}
			assert.FileExists(t, d.Output)
		})
	}
}

func TestRun_SimplifiesGeometry(t *testing.T) {
	dir := t.TempDir()
	var ring []shp.Point
	for i := 0; i <= 100; i++ {
		ring = append(ring, shp.Point{X: 88, Y: 22 + float64(i)*0.001})
	}
	ring = append(ring, shp.Point{X: 88.1, Y: 22.1}, shp.Point{X: 88.1, Y: 22}, shp.Point{X: 88, Y: 22})
	shptest.WritePolygons(t, dir, "Districtt", boundaryFields(), []shptest.Feature{
		{Parts: [][]shp.Point{ring}, Values: []any{"Dense", 1}},
	}, shptest.WGS84PRJ)

	cfg := config.DefaultConfig()
	cfg.InputDir = dir
	d := cfg.Datasets[0]
	d.Output = filepath.Join(dir, "districts.geojson")
	c, _ := newTestConverter(t, cfg)

	res := c.Convert(context.Background(), d)
	require.Equal(t, StatusConverted, res.Status, "error: %v", res.Err)

	fc, err := geojsonio.Read(d.Output)
	require.NoError(t, err)
	poly, ok := fc.Features[0].Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, poly[0], 5)
}

type fakeRecorder struct {
	reports []*Report
	err     error
}

func (f *fakeRecorder) RecordRun(_ context.Context, r *Report) error {
	f.reports = append(f.reports, r)
	return f.err
}

func TestRun_RecordsHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.InputDir = dir
	c, _ := newTestConverter(t, cfg)

	rec := &fakeRecorder{err: errors.New("disk full")}
	c.History = rec

	report := c.Run(context.Background(), cfg.Datasets)
	require.Len(t, rec.reports, 1, "a failing recorder must not break the run")
	assert.Same(t, report, rec.reports[0])
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeDistricts(t, dir, shptest.WGS84PRJ)

	cfg := config.DefaultConfig()
	cfg.InputDir = dir
	c, _ := newTestConverter(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := c.Run(ctx, cfg.Datasets)

	assert.Equal(t, 3, report.Total())
	assert.Equal(t, 3, report.Skipped())
	assert.ErrorIs(t, report.Results[0].Err, context.Canceled)
}

func TestNewConverter_InvalidAssumeCRS(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AssumeCRS = "EPSG:2154"
	_, err := NewConverter(cfg, nil)
	assert.ErrorIs(t, err, crs.ErrUnsupported)
}

func TestInputPath(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.InputDir = "/data/shp"
	c, _ := newTestConverter(t, cfg)

	assert.Equal(t, filepath.Join("/data/shp", "village.shp"), c.InputPath(Dataset{Input: "village.shp"}))
	assert.Equal(t, "/abs/ss.shp", c.InputPath(Dataset{Input: "/abs/ss.shp"}))
}

// chdir changes the working directory to dir for the duration of the test,
// restoring the previous one on cleanup (equivalent of testing.T.Chdir,
// which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
