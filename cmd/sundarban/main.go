package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sundarbanmap/pkg/config"
	"sundarbanmap/pkg/convert"
	"sundarbanmap/pkg/db"
	"sundarbanmap/pkg/logging"
	"sundarbanmap/pkg/probe"
	"sundarbanmap/pkg/store"
	"sundarbanmap/pkg/version"
)

var (
	configPath  = flag.String("config", "sundarban.yaml", "Path to the config file (defaults are used if it does not exist)")
	initConfig  = flag.Bool("init-config", false, "Generate default config file and exit")
	noAnalyze   = flag.Bool("no-analyze", false, "Skip the shapefile analysis before converting")
	showVersion = flag.Bool("version", false, "Print the version and exit")
	showHistory = flag.Int("history", 0, "Print the last N recorded conversion runs and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Version)
		return
	}

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *showHistory > 0 {
		if err := printHistory(ctx, *configPath, *showHistory); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read history: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// A finished batch always exits 0, even when datasets failed or were missing.
	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	appCfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *noAnalyze {
		appCfg.Analyze = false
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Sundarban converter started", "version", version.Version, "input_dir", appCfg.InputDir, "datasets", len(appCfg.Datasets))

	conv, err := convert.NewConverter(appCfg, os.Stdout)
	if err != nil {
		return err
	}

	probes := probe.Checks(appCfg, conv.InputPath)

	if appCfg.History.Enabled {
		hist, closeHist, err := initHistory(ctx, appCfg)
		if err != nil {
			probes = append(probes, probe.Probe{
				Name:  "History database",
				Check: func(context.Context) error { return err },
			})
		} else {
			defer closeHist()
			conv.History = hist
			probes = append(probes, probe.Probe{Name: "History database", Check: hist.Ping})
		}
	}

	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("pre-run checks failed: %w", err)
	}

	if appCfg.Analyze {
		convert.PrintInspections(os.Stdout, conv.Analyze(ctx, appCfg.Datasets))
		fmt.Println()
	}

	report := conv.Run(ctx, appCfg.Datasets)
	convert.PrintSummary(os.Stdout, report)

	slog.Info("Sundarban converter finished",
		"converted", report.Converted(),
		"failed", report.Failed(),
		"skipped", report.Skipped(),
		"duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return nil
}

func initHistory(ctx context.Context, appCfg *config.Config) (*store.SQLiteStore, func(), error) {
	dbConn, err := db.Init(appCfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	if days := appCfg.History.RetainDays; days > 0 {
		n, err := dbConn.PruneRuns(ctx, time.Duration(days)*24*time.Hour)
		if err != nil {
			slog.Warn("History pruning failed", "error", err)
		} else if n > 0 {
			slog.Info("Pruned old conversion runs", "count", n)
		}
	}

	st := store.NewSQLiteStore(dbConn)
	return st, func() { st.Close() }, nil
}

// printHistory lists recorded runs from the configured history database.
// It reads the database even when recording is disabled.
func printHistory(ctx context.Context, cfgPath string, n int) error {
	appCfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := os.Stat(appCfg.History.Path); err != nil {
		return fmt.Errorf("no history database at %s: %w", appCfg.History.Path, err)
	}

	dbConn, err := db.Init(appCfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	st := store.NewSQLiteStore(dbConn)
	defer st.Close()

	runs, err := st.RecentRuns(ctx, n)
	if err != nil {
		return err
	}
	store.PrintRuns(os.Stdout, runs)
	return nil
}
