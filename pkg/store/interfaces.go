package store

import (
	"context"
	"time"

	"sundarbanmap/pkg/convert"
)

// Run is one recorded batch run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Converted  int
	Total      int
	Items      []RunItem
}

// RunItem is the outcome of one dataset within a run.
type RunItem struct {
	Dataset  string
	Input    string
	Output   string
	Status   convert.Status
	Features int
	Error    string
	Duration time.Duration
}

// HistoryStore handles conversion history persistence.
type HistoryStore interface {
	RecordRun(ctx context.Context, r *convert.Report) error
	RecentRuns(ctx context.Context, n int) ([]Run, error)
}
