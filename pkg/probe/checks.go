package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sundarbanmap/pkg/config"
)

// Checks returns the environment probes for a batch: the input directory
// exists, the inputs are present, and the output directories can be written.
// Only a missing input directory is critical; absent inputs are skipped
// datasets and unwritable outputs fail their own datasets.
// inputPath resolves a dataset's input path.
func Checks(cfg *config.Config, inputPath func(config.Dataset) string) []Probe {
	return []Probe{
		{Name: "Input directory", Check: DirExists(cfg.InputDir), Critical: true},
		{Name: "Input shapefiles", Check: InputsPresent(cfg.Datasets, inputPath)},
		{Name: "Output directories", Check: OutputsWritable(cfg.Datasets)},
	}
}

// DirExists fails when dir is missing or not a directory.
func DirExists(dir string) CheckFunc {
	return func(ctx context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}
}

// InputsPresent fails listing every dataset whose .shp or .dbf is missing.
func InputsPresent(datasets []config.Dataset, inputPath func(config.Dataset) string) CheckFunc {
	return func(ctx context.Context) error {
		var missing []string
		for _, d := range datasets {
			p := inputPath(d)
			base := strings.TrimSuffix(p, filepath.Ext(p))
			for _, ext := range []string{".shp", ".dbf"} {
				if _, err := os.Stat(base + ext); err != nil {
					missing = append(missing, base+ext)
				}
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing: %s", strings.Join(missing, ", "))
		}
		return nil
	}
}

// OutputsWritable checks that a file can be created in the nearest existing
// ancestor of every output directory. Nothing is left on disk.
func OutputsWritable(datasets []config.Dataset) CheckFunc {
	return func(ctx context.Context) error {
		dirs := make(map[string]bool)
		for _, d := range datasets {
			dirs[filepath.Dir(d.Output)] = true
		}
		sorted := make([]string, 0, len(dirs))
		for d := range dirs {
			sorted = append(sorted, d)
		}
		sort.Strings(sorted)

		var errs []error
		for _, dir := range sorted {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := writable(dir); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", dir, err))
			}
		}
		return errors.Join(errs...)
	}
}

func writable(dir string) error {
	existing := dir
	for {
		info, err := os.Stat(existing)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", existing)
			}
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return err
		}
		existing = parent
	}

	f, err := os.CreateTemp(existing, ".sundarban-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
