package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"sundarbanmap/pkg/crs"
)

// Dataset kinds.
const (
	KindBoundary = "boundary" // all attributes are published as loaded
	KindVillages = "villages" // attributes are cleaned, selected and sorted
)

// Config holds the application configuration.
type Config struct {
	InputDir  string        `yaml:"input_dir"`
	Analyze   bool          `yaml:"analyze"`
	AssumeCRS string        `yaml:"assume_crs"` // used when a dataset has no .prj, e.g. "EPSG:4326"
	Datasets  []Dataset     `yaml:"datasets"`
	Log       LogSettings   `yaml:"log"`
	History   HistoryConfig `yaml:"history"`
}

// Dataset maps one input shapefile to one GeoJSON output.
type Dataset struct {
	Name      string  `yaml:"name"`
	Input     string  `yaml:"input"`     // .shp path, relative to input_dir
	Output    string  `yaml:"output"`    // .geojson path, relative to the working directory
	Tolerance float64 `yaml:"tolerance"` // simplification tolerance in degrees
	Kind      string  `yaml:"kind"`
}

// LogSettings holds settings for the log file.
type LogSettings struct {
	Path  string `yaml:"path"` // empty logs to the console only
	Level string `yaml:"level"`
}

// HistoryConfig holds settings for the conversion history database.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	RetainDays int    `yaml:"retain_days"` // runs older than this are pruned at start; 0 keeps everything
}

// DefaultDatasets returns the three Sundarban layers.
func DefaultDatasets() []Dataset {
	return []Dataset{
		{Name: "districts", Input: "Districtt.shp", Output: "data/districts.geojson", Tolerance: 0.001, Kind: KindBoundary},
		{Name: "ss", Input: "ss.shp", Output: "data/ss.geojson", Tolerance: 0.0005, Kind: KindBoundary},
		{Name: "villages", Input: "village.shp", Output: "data/villages.geojson", Tolerance: 0.0001, Kind: KindVillages},
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		InputDir: ".",
		Analyze:  true,
		Datasets: DefaultDatasets(),
		Log: LogSettings{
			Path:  "",
			Level: "INFO",
		},
		History: HistoryConfig{
			Enabled:    false,
			Path:       "./logs/history.db",
			RetainDays: 90,
		},
	}
}

// Load loads the configuration from the given path.
// A missing file yields the defaults; nothing is written to disk.
// Environment variables override file values but are never saved.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// A datasets list in the file replaces the defaults rather than merging by index.
		cfg.Datasets = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if cfg.Datasets == nil {
			cfg.Datasets = DefaultDatasets()
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	applyEnv(cfg)
	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SUNDARBAN_INPUT_DIR"); v != "" {
		cfg.InputDir = v
	}
	if v := os.Getenv("SUNDARBAN_ASSUME_CRS"); v != "" {
		cfg.AssumeCRS = v
	}
	if v := os.Getenv("SUNDARBAN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func expandPaths(cfg *Config) {
	cfg.InputDir = os.ExpandEnv(cfg.InputDir)
	cfg.Log.Path = os.ExpandEnv(cfg.Log.Path)
	cfg.History.Path = os.ExpandEnv(cfg.History.Path)
	for i := range cfg.Datasets {
		cfg.Datasets[i].Input = os.ExpandEnv(cfg.Datasets[i].Input)
		cfg.Datasets[i].Output = os.ExpandEnv(cfg.Datasets[i].Output)
	}
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks dataset definitions and the assumed CRS.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, d := range c.Datasets {
		switch {
		case !validName.MatchString(d.Name):
			errs = append(errs, fmt.Errorf("datasets[%d]: invalid name %q", i, d.Name))
		case seen[d.Name]:
			errs = append(errs, fmt.Errorf("datasets[%d]: duplicate name %q", i, d.Name))
		}
		seen[d.Name] = true

		if !strings.EqualFold(filepath.Ext(d.Input), ".shp") {
			errs = append(errs, fmt.Errorf("dataset %s: input %q must be a .shp file", d.Name, d.Input))
		}
		if d.Output == "" {
			errs = append(errs, fmt.Errorf("dataset %s: output path is required", d.Name))
		}
		if d.Tolerance < 0 {
			errs = append(errs, fmt.Errorf("dataset %s: tolerance must be >= 0, got %v", d.Name, d.Tolerance))
		}
		if d.Kind != KindBoundary && d.Kind != KindVillages {
			errs = append(errs, fmt.Errorf("dataset %s: unknown kind %q (options: %s, %s)", d.Name, d.Kind, KindBoundary, KindVillages))
		}
	}
	if c.History.RetainDays < 0 {
		errs = append(errs, fmt.Errorf("history.retain_days must be >= 0, got %d", c.History.RetainDays))
	}
	if c.AssumeCRS != "" {
		if _, err := crs.FromEPSG(c.AssumeCRS); err != nil {
			errs = append(errs, fmt.Errorf("assume_crs: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Sundarban GeoJSON Converter Configuration
# ------------------------------------------
# Tolerances are in degrees (EPSG:4326).
# Environment overrides: SUNDARBAN_INPUT_DIR, SUNDARBAN_ASSUME_CRS, SUNDARBAN_LOG_LEVEL

`)
	data = append(header, data...)

	reKind := regexp.MustCompile(`(?m)^(\s+)kind:`)
	data = reKind.ReplaceAll(data, []byte("${1}# Options: boundary, villages\n${1}kind:"))

	reCRS := regexp.MustCompile(`(?m)^assume_crs:`)
	data = reCRS.ReplaceAll(data, []byte("# Used only for datasets without a .prj file, e.g. EPSG:4326 or EPSG:32645\nassume_crs:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
