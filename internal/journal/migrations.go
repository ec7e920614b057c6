package journal

import "context"

func (s *Store) runMigrations(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id VARCHAR NOT NULL PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		tasks INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		moved INTEGER NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		cleanup_skipped BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at)`,
	`CREATE TABLE IF NOT EXISTS operations (
		run_id VARCHAR NOT NULL,
		seq INTEGER NOT NULL,
		kind VARCHAR NOT NULL,
		task_id VARCHAR NOT NULL DEFAULT "",
		calendar_id VARCHAR NOT NULL DEFAULT "",
		event_id VARCHAR NOT NULL DEFAULT "",
		error TEXT NOT NULL DEFAULT "",
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs (id)
	)`,
}
