package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "sundarban.yaml")

	write := func(t *testing.T, content string) {
		t.Helper()
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to setup test file: %v", err)
		}
	}

	tests := []struct {
		name          string
		setup         func(t *testing.T)
		validate      func(*testing.T, *Config)
		expectedError bool
	}{
		{
			name:  "MissingFile_Defaults",
			setup: func(t *testing.T) {},
			validate: func(t *testing.T, cfg *Config) {
				if len(cfg.Datasets) != 3 {
					t.Fatalf("expected 3 default datasets, got %d", len(cfg.Datasets))
				}
				if cfg.Datasets[0].Input != "Districtt.shp" || cfg.Datasets[0].Tolerance != 0.001 {
					t.Errorf("unexpected districts dataset: %+v", cfg.Datasets[0])
				}
				if cfg.Datasets[2].Kind != KindVillages {
					t.Errorf("expected villages kind, got %q", cfg.Datasets[2].Kind)
				}
				if !cfg.Analyze {
					t.Error("analyze should default to true")
				}
				if _, err := os.Stat(configPath); !os.IsNotExist(err) {
					t.Error("Load must not create the config file")
				}
			},
		},
		{
			name: "ExistingFile_Override",
			setup: func(t *testing.T) {
				write(t, "input_dir: /data/shp\nanalyze: false\nlog:\n  level: DEBUG\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.InputDir != "/data/shp" {
					t.Errorf("expected input_dir '/data/shp', got '%s'", cfg.InputDir)
				}
				if cfg.Analyze {
					t.Error("expected analyze false")
				}
				if cfg.Log.Level != "DEBUG" {
					t.Errorf("expected log level DEBUG, got '%s'", cfg.Log.Level)
				}
				if len(cfg.Datasets) != 3 {
					t.Errorf("datasets should keep defaults when omitted, got %d", len(cfg.Datasets))
				}
			},
		},
		{
			name: "Datasets_Replace_Defaults",
			setup: func(t *testing.T) {
				write(t, "datasets:\n  - name: rivers\n    input: rivers.shp\n    output: out/rivers.geojson\n    tolerance: 0.002\n    kind: boundary\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				if len(cfg.Datasets) != 1 {
					t.Fatalf("expected 1 dataset, got %d", len(cfg.Datasets))
				}
				if cfg.Datasets[0].Name != "rivers" || cfg.Datasets[0].Tolerance != 0.002 {
					t.Errorf("unexpected dataset: %+v", cfg.Datasets[0])
				}
			},
		},
		{
			name: "Env_Override",
			setup: func(t *testing.T) {
				t.Setenv("SUNDARBAN_INPUT_DIR", "/env/input")
				t.Setenv("SUNDARBAN_ASSUME_CRS", "EPSG:32645")
				t.Setenv("SUNDARBAN_LOG_LEVEL", "WARN")
				write(t, "input_dir: /file/input\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.InputDir != "/env/input" {
					t.Errorf("expected env input dir, got '%s'", cfg.InputDir)
				}
				if cfg.AssumeCRS != "EPSG:32645" {
					t.Errorf("expected assume_crs from env, got '%s'", cfg.AssumeCRS)
				}
				if cfg.Log.Level != "WARN" {
					t.Errorf("expected log level WARN, got '%s'", cfg.Log.Level)
				}
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "/env/input") {
					t.Error("environment override should NOT be persisted to config file")
				}
			},
		},
		{
			name: "Path_Env_Expansion",
			setup: func(t *testing.T) {
				t.Setenv("SUNDARBAN_HOME", "/home/sundarban")
				write(t, "history:\n  enabled: true\n  path: \"$SUNDARBAN_HOME/history.db\"\nlog:\n  path: \"${SUNDARBAN_HOME}/logs/run.log\"\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.History.Path != "/home/sundarban/history.db" {
					t.Errorf("expected expanded history path, got '%s'", cfg.History.Path)
				}
				if cfg.Log.Path != "/home/sundarban/logs/run.log" {
					t.Errorf("expected expanded log path, got '%s'", cfg.Log.Path)
				}
			},
		},
		{
			name: "Invalid_YAML",
			setup: func(t *testing.T) {
				write(t, "datasets: {not a list}")
			},
			expectedError: true,
		},
		{
			name: "Duplicate_Dataset_Name",
			setup: func(t *testing.T) {
				write(t, "datasets:\n  - {name: a, input: a.shp, output: a.geojson, kind: boundary}\n  - {name: a, input: b.shp, output: b.geojson, kind: boundary}\n")
			},
			expectedError: true,
		},
		{
			name: "Unknown_Kind",
			setup: func(t *testing.T) {
				write(t, "datasets:\n  - {name: a, input: a.shp, output: a.geojson, kind: roads}\n")
			},
			expectedError: true,
		},
		{
			name: "Negative_Tolerance",
			setup: func(t *testing.T) {
				write(t, "datasets:\n  - {name: a, input: a.shp, output: a.geojson, tolerance: -1, kind: boundary}\n")
			},
			expectedError: true,
		},
		{
			name: "Invalid_AssumeCRS",
			setup: func(t *testing.T) {
				write(t, "assume_crs: EPSG:2154\n")
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(configPath)
			tt.setup(t)

			cfg, err := Load(configPath)
			if (err != nil) != tt.expectedError {
				t.Fatalf("Load() error = %v, expectedError %v", err, tt.expectedError)
			}
			if err == nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestGenerateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "conf", "sundarban.yaml")

	if err := GenerateDefault(configPath); err != nil {
		t.Fatalf("GenerateDefault() error = %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("GenerateDefault() did not create file: %v", err)
	}
	for _, want := range []string{"# Options: boundary, villages", "input: Districtt.shp", "tolerance: 0.0001", "# Used only for datasets without a .prj file"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("generated config missing %q", want)
		}
	}

	// Running again should not fail or overwrite
	if err := os.WriteFile(configPath, []byte("analyze: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := GenerateDefault(configPath); err != nil {
		t.Errorf("GenerateDefault() second run error = %v", err)
	}
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Analyze {
		t.Error("existing file was overwritten")
	}
}
