// Package store persists conversion runs in the history database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sundarbanmap/pkg/convert"
	"sundarbanmap/pkg/db"
)

// SQLiteStore implements HistoryStore.
type SQLiteStore struct {
	db *db.DB
}

var _ convert.Recorder = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new store.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordRun stores a finished batch run and its per-dataset results in one
// transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, r *convert.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, converted, total) VALUES (?, ?, ?, ?, ?)`,
		id, r.StartedAt.UTC().Format(db.TimeFormat), r.FinishedAt.UTC().Format(db.TimeFormat), r.Converted(), r.Total())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_items (run_id, position, dataset, input, output, status, features, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range r.Results {
		res := &r.Results[i]
		var errMsg sql.NullString
		if res.Err != nil {
			errMsg = sql.NullString{String: res.Err.Error(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, i, res.Dataset.Name, res.Input, res.Dataset.Output,
			string(res.Status), res.Features, errMsg, res.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("failed to insert run item %s: %w", res.Dataset.Name, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns up to n runs, newest first, with their items in
// dataset order.
func (s *SQLiteStore) RecentRuns(ctx context.Context, n int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, converted, total FROM runs ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Converted, &r.Total); err != nil {
			rows.Close()
			return nil, err
		}
		r.StartedAt, _ = time.Parse(db.TimeFormat, started)
		r.FinishedAt, _ = time.Parse(db.TimeFormat, finished)
		runs = append(runs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		items, err := s.runItems(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Items = items
	}
	return runs, nil
}

func (s *SQLiteStore) runItems(ctx context.Context, runID string) ([]RunItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT dataset, input, output, status, features, error, duration_ms
		 FROM run_items WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RunItem
	for rows.Next() {
		var it RunItem
		var status string
		var input, output, errMsg sql.NullString
		var features, durationMS sql.NullInt64
		if err := rows.Scan(&it.Dataset, &input, &output, &status, &features, &errMsg, &durationMS); err != nil {
			return nil, err
		}
		it.Input = input.String
		it.Output = output.String
		it.Status = convert.Status(status)
		it.Features = int(features.Int64)
		it.Error = errMsg.String
		it.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		items = append(items, it)
	}
	return items, rows.Err()
}
