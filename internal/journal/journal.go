// Package journal keeps a local history of sync runs in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"vikcal/internal/syncer"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver the journal uses.
const DriverName = "sqlite3"

// Store records sync runs in a SQLite database.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the journal database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// SQLite allows a single writer; an in-memory database also lives per connection.
	db.SetMaxOpenConns(1)

	s, err := NewStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps db and applies the journal migrations.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{
		db: sqlx.NewDb(db, DriverName),
	}
	if err := s.runMigrations(ctx); err != nil {
		return nil, fmt.Errorf("journal: running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores the report of one sync cycle with its operations.
func (s *Store) RecordRun(ctx context.Context, r *syncer.Report) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, tasks, created, updated, moved, deleted, skipped, failed, cleanup_skipped)
		VALUES (:id, :started_at, :finished_at, :tasks, :created, :updated, :moved, :deleted, :skipped, :failed, :cleanup_skipped)
	`, newRunRow(r))
	if err != nil {
		return fmt.Errorf("run %s: %w", r.RunID, err)
	}

	for i, op := range r.Operations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO operations (run_id, seq, kind, task_id, calendar_id, event_id, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.RunID, i, op.Kind, op.TaskID, op.CalendarID, op.EventID, op.Err)
		if err != nil {
			return fmt.Errorf("operation %d of run %s: %w", i, r.RunID, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to limit runs, newest first, with their operations.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*syncer.Report, error) {
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, started_at, finished_at, tasks, created, updated, moved, deleted, skipped, failed, cleanup_skipped
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*syncer.Report, len(rows))
	for i, row := range rows {
		var ops []operationRow
		err := s.db.SelectContext(ctx, &ops, `
			SELECT kind, task_id, calendar_id, event_id, error
			FROM operations
			WHERE run_id = ?
			ORDER BY seq
		`, row.ID)
		if err != nil {
			return nil, fmt.Errorf("operations of run %s: %w", row.ID, err)
		}
		res[i] = row.Convert(ops)
	}
	return res, nil
}

type runRow struct {
	ID             string
	StartedAt      int64 `db:"started_at"`
	FinishedAt     int64 `db:"finished_at"`
	Tasks          int
	Created        int
	Updated        int
	Moved          int
	Deleted        int
	Skipped        int
	Failed         int
	CleanupSkipped bool `db:"cleanup_skipped"`
}

func newRunRow(r *syncer.Report) runRow {
	return runRow{
		ID:             r.RunID,
		StartedAt:      r.StartedAt.UnixNano(),
		FinishedAt:     r.FinishedAt.UnixNano(),
		Tasks:          r.Tasks,
		Created:        r.Created,
		Updated:        r.Updated,
		Moved:          r.Moved,
		Deleted:        r.Deleted,
		Skipped:        r.Skipped,
		Failed:         r.Failed,
		CleanupSkipped: r.CleanupSkipped,
	}
}

func (r runRow) Convert(ops []operationRow) *syncer.Report {
	report := &syncer.Report{
		RunID:          r.ID,
		StartedAt:      time.Unix(0, r.StartedAt).UTC(),
		FinishedAt:     time.Unix(0, r.FinishedAt).UTC(),
		Tasks:          r.Tasks,
		Created:        r.Created,
		Updated:        r.Updated,
		Moved:          r.Moved,
		Deleted:        r.Deleted,
		Skipped:        r.Skipped,
		Failed:         r.Failed,
		CleanupSkipped: r.CleanupSkipped,
	}
	for _, op := range ops {
		report.Operations = append(report.Operations, syncer.Operation{
			Kind:       op.Kind,
			TaskID:     op.TaskID,
			CalendarID: op.CalendarID,
			EventID:    op.EventID,
			Err:        op.Error,
		})
	}
	return report
}

type operationRow struct {
	Kind       string
	TaskID     string `db:"task_id"`
	CalendarID string `db:"calendar_id"`
	EventID    string `db:"event_id"`
	Error      string
}
