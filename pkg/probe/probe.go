// Package probe runs environment checks before a conversion batch.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Timeout bounds each check.
var Timeout = 5 * time.Second

// CheckFunc inspects one aspect of the environment and returns nil when it is usable.
type CheckFunc func(ctx context.Context) error

// Probe is a named pre-run check. A failing Critical probe stops the batch;
// any other failure is reported and the batch runs anyway, skipping or
// failing the datasets it affects.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool {
	return r.Error == nil
}

// Run executes probes in order. Once ctx is done the remaining probes are
// not started and report ctx's error.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))
	for i, p := range probes {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Probe: p, Error: err}
			continue
		}

		start := time.Now()
		checkCtx, cancel := context.WithTimeout(ctx, Timeout)
		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{Probe: p, Error: err, Duration: time.Since(start)}
	}
	return results
}

// AnalyzeResults logs every result and returns the joined errors of the
// critical probes that failed.
func AnalyzeResults(results []Result) error {
	var critical []error

	slog.Info("Pre-run checks", "count", len(results))
	for _, r := range results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}
		msg := fmt.Sprintf("[%s] %-20s (%v)", status, r.Probe.Name, r.Duration.Round(time.Millisecond))

		switch {
		case r.Passed():
			slog.Info(msg)
		case r.Probe.Critical:
			slog.Error(msg, "error", r.Error)
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		default:
			slog.Warn(msg, "error", r.Error)
		}
	}
	return errors.Join(critical...)
}
