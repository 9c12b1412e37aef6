// Package convert runs the shapefile to GeoJSON pipeline for a list of
// datasets: load, normalize to EPSG:4326, clean village attributes, simplify,
// select and sort, then serialize.
package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"sundarbanmap/pkg/config"
	"sundarbanmap/pkg/crs"
	"sundarbanmap/pkg/geojsonio"
	"sundarbanmap/pkg/reproject"
	"sundarbanmap/pkg/shapefile"
	"sundarbanmap/pkg/simplifier"
	"sundarbanmap/pkg/table"
	"sundarbanmap/pkg/village"
)

// Dataset is one input shapefile and its GeoJSON output.
type Dataset = config.Dataset

// Status is the outcome of one dataset.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped" // input not present
	StatusFailed    Status = "failed"
)

// Result describes what happened to one dataset.
type Result struct {
	Dataset  Dataset
	Input    string // resolved input path
	Status   Status
	Features int
	Columns  []string
	Err      error
	Duration time.Duration
	Villages *village.Summary // set for converted village datasets
}

// Report is the per-dataset result list of one batch run.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

// Converted returns the number of datasets written.
func (r *Report) Converted() int {
	return r.count(StatusConverted)
}

// Failed returns the number of datasets whose conversion raised an error.
func (r *Report) Failed() int {
	return r.count(StatusFailed)
}

// Skipped returns the number of datasets whose input was missing.
func (r *Report) Skipped() int {
	return r.count(StatusSkipped)
}

// Total returns the number of datasets attempted.
func (r *Report) Total() int {
	return len(r.Results)
}

func (r *Report) count(s Status) int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Status == s {
			n++
		}
	}
	return n
}

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, r *Report) error
}

// Converter runs datasets through the pipeline. Progress lines go to the
// writer; diagnostics go through slog.
type Converter struct {
	inputDir string
	assumed  crs.CRS
	out      io.Writer

	// History, when set, receives every finished batch run.
	History Recorder
}

// NewConverter creates a converter for the configuration. out receives the
// console progress lines and may be nil to discard them.
func NewConverter(cfg *config.Config, out io.Writer) (*Converter, error) {
	if out == nil {
		out = io.Discard
	}
	c := &Converter{
		inputDir: cfg.InputDir,
		assumed:  crs.Unknown,
		out:      out,
	}
	if cfg.AssumeCRS != "" {
		assumed, err := crs.FromEPSG(cfg.AssumeCRS)
		if err != nil {
			return nil, fmt.Errorf("invalid assume_crs: %w", err)
		}
		c.assumed = assumed
	}
	return c, nil
}

// InputPath resolves a dataset input against the input directory.
func (c *Converter) InputPath(d Dataset) string {
	if filepath.IsAbs(d.Input) || c.inputDir == "" {
		return d.Input
	}
	return filepath.Join(c.inputDir, d.Input)
}

// Run converts every dataset in order. A missing input is skipped and a
// failing dataset is recorded; neither stops the batch. The context is
// checked between datasets.
func (c *Converter) Run(ctx context.Context, datasets []Dataset) *Report {
	report := &Report{StartedAt: time.Now()}

	fmt.Fprintln(c.out, "Converting Sundarban shapefiles to GeoJSON...")
	fmt.Fprintln(c.out, separator)

	for _, d := range datasets {
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, Result{
				Dataset: d,
				Input:   c.InputPath(d),
				Status:  StatusSkipped,
				Err:     err,
			})
			continue
		}
		report.Results = append(report.Results, c.Convert(ctx, d))
	}
	report.FinishedAt = time.Now()

	if c.History != nil {
		if err := c.History.RecordRun(ctx, report); err != nil {
			slog.Warn("Failed to record conversion history", "error", err)
		}
	}
	return report
}

// Convert runs one dataset through the pipeline. Errors and panics are
// captured in the result.
func (c *Converter) Convert(ctx context.Context, d Dataset) (res Result) {
	start := time.Now()
	res = Result{Dataset: d, Input: c.InputPath(d)}
	defer func() {
		res.Duration = time.Since(start)
	}()

	if _, err := os.Stat(res.Input); err != nil {
		res.Status = StatusSkipped
		res.Err = err
		slog.Warn("Input not found", "dataset", d.Name, "input", res.Input)
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusFailed
			res.Err = fmt.Errorf("panic during conversion: %v", r)
			slog.Error("Conversion failed", "dataset", d.Name, "input", res.Input, "error", res.Err)
		}
	}()

	fmt.Fprintf(c.out, "Converting %s...\n", d.Name)
	tbl, err := c.process(ctx, d, res.Input)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		slog.Error("Conversion failed", "dataset", d.Name, "input", res.Input, "error", err)
		fmt.Fprintf(c.out, "Error converting %s: %v\n\n", res.Input, err)
		return res
	}

	res.Status = StatusConverted
	res.Features = tbl.Len()
	res.Columns = tbl.Columns
	if d.Kind == config.KindVillages {
		s := village.Summarize(tbl)
		res.Villages = &s
	}
	c.printResult(&res, tbl.CRS)
	slog.Debug("Dataset converted", "dataset", d.Name, "features", res.Features, "duration", time.Since(start))
	return res
}

func (c *Converter) process(ctx context.Context, d Dataset, input string) (*table.Table, error) {
	tbl, err := shapefile.Load(input)
	if err != nil {
		return nil, err
	}

	if !tbl.CRS.IsKnown() && c.assumed.IsKnown() {
		if tbl.CRSErr != nil {
			slog.Info("Dataset CRS unusable, assuming configured CRS", "dataset", d.Name, "crs", c.assumed.String(), "reason", tbl.CRSErr)
		} else {
			slog.Info("No CRS in dataset, assuming configured CRS", "dataset", d.Name, "crs", c.assumed.String())
		}
		tbl.CRS = c.assumed
		tbl.CRSErr = nil
	}
	if !tbl.CRS.IsWGS84() {
		fmt.Fprintln(c.out, "Converting to WGS84 coordinate system...")
	}
	tbl, err = reproject.Normalize(tbl)
	if err != nil {
		return nil, err
	}

	if d.Kind == config.KindVillages {
		fmt.Fprintln(c.out, "Cleaning village names...")
		tbl, err = village.Clean(tbl)
		if err != nil {
			return nil, err
		}
	}

	if d.Tolerance > 0 {
		tbl.MapGeometry(func(g orb.Geometry) orb.Geometry {
			return simplifier.Simplify(g, d.Tolerance)
		})
	}

	if d.Kind == config.KindVillages {
		tbl = tbl.Select(village.OutputColumns)
		tbl.SortBy(village.SortKeys...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := geojsonio.Write(d.Output, tbl); err != nil {
		return nil, err
	}
	return tbl, nil
}

func (c *Converter) printResult(res *Result, out crs.CRS) {
	fmt.Fprintf(c.out, "Successfully converted %s to %s\n", res.Input, res.Dataset.Output)
	fmt.Fprintf(c.out, "  - Features: %d\n", res.Features)
	fmt.Fprintf(c.out, "  - Columns: %s\n", formatColumns(res.Columns))
	fmt.Fprintf(c.out, "  - CRS: %s\n", out)
	if res.Villages != nil {
		printVillageSummary(c.out, res.Villages)
	}
	fmt.Fprintln(c.out)
}

func formatColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = "'" + c + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
