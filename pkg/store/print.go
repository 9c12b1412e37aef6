package store

import (
	"fmt"
	"io"
	"strings"
	"time"

	"sundarbanmap/pkg/convert"
)

// PrintRuns writes runs as returned by RecentRuns, one block per run.
func PrintRuns(w io.Writer, runs []Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No conversion runs recorded.")
		return
	}

	fmt.Fprintln(w, "Recent conversion runs:")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %d/%d converted  (%s)\n",
			r.StartedAt.UTC().Format("2006-01-02 15:04:05"), r.Converted, r.Total,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
		for _, it := range r.Items {
			switch it.Status {
			case convert.StatusConverted:
				fmt.Fprintf(w, "  - %-12s %-9s %d features -> %s\n", it.Dataset, it.Status, it.Features, it.Output)
			case convert.StatusFailed:
				fmt.Fprintf(w, "  - %-12s %-9s %s\n", it.Dataset, it.Status, it.Error)
			default:
				fmt.Fprintf(w, "  - %-12s %s\n", it.Dataset, it.Status)
			}
		}
	}
}
