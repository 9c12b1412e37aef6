package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sundarbanmap/pkg/config"
	"sundarbanmap/pkg/convert"
	"sundarbanmap/pkg/logging"
	"sundarbanmap/pkg/simplifier"
)

func main() {
	inputPath := flag.String("input", "", "Path to input .shp file")
	outputPath := flag.String("output", "", "Path to output .geojson file")
	tolerance := flag.Float64("tolerance", simplifier.AreaTolerance, "Simplification tolerance in degrees (0 disables)")
	villages := flag.Bool("villages", false, "Apply village name cleaning, column selection and sorting")
	assumeCRS := flag.String("assume-crs", "", "CRS to use when the shapefile has no .prj, e.g. EPSG:32645")
	logLevel := flag.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "Input and output paths are required")
		os.Exit(2)
	}

	d := config.Dataset{
		Name:      strings.TrimSuffix(filepath.Base(*inputPath), filepath.Ext(*inputPath)),
		Input:     *inputPath,
		Output:    *outputPath,
		Tolerance: *tolerance,
		Kind:      config.KindBoundary,
	}
	if *villages {
		d.Kind = config.KindVillages
	}

	if err := run(d, *assumeCRS, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(d config.Dataset, assumeCRS, logLevel string) error {
	cfg := &config.Config{AssumeCRS: assumeCRS, Datasets: []config.Dataset{d}}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cleanup, err := logging.Init(&config.LogSettings{Level: logLevel})
	if err != nil {
		return err
	}
	defer cleanup()

	conv, err := convert.NewConverter(cfg, os.Stdout)
	if err != nil {
		return err
	}

	res := conv.Convert(context.Background(), d)
	if res.Status != convert.StatusConverted {
		return fmt.Errorf("%s: %s: %w", res.Input, res.Status, res.Err)
	}
	return nil
}
