package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/policy/engine"
)

// timeLayout is the canonical timestamp encoding in the database.
const timeLayout = time.RFC3339Nano

// Store persists runs in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the history database at path and
// initializes the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %q: %w", path, err)
	}
	// A local tool has exactly one writer.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		logger: logger.With("component", "history"),
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Debug("history database opened", "path", path)
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("unsupported history schema version %d (expected %d)", version, SchemaVersion)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists one run and its violation snapshot in a single
// transaction.
func (s *Store) Record(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, command, profiles,
			evaluated, skipped, fixed, errors, warnings, infos, outcome
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Command,
		strings.Join(run.Profiles, ","),
		run.Evaluated, run.Skipped, run.Fixed,
		run.Errors, run.Warnings, run.Infos,
		run.Outcome,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for _, v := range run.Violations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO violations (run_id, policy_id, path, message, severity, detail)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, v.PolicyID, v.Path, v.Message, string(v.Severity), v.Detail,
		)
		if err != nil {
			return fmt.Errorf("failed to insert violation for run %s: %w", run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}

	s.logger.Debug("run recorded", "id", run.ID, "violations", len(run.Violations))
	return nil
}

// List returns the most recent runs, newest first, without their
// violation snapshots. limit <= 0 means all runs.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, finished_at, command, profiles,
		       evaluated, skipped, fixed, errors, warnings, infos, outcome
		FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run with its violation snapshot.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, command, profiles,
		       evaluated, skipped, fixed, errors, warnings, infos, outcome
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %q not found", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT policy_id, path, message, severity, detail
		FROM violations WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load violations for run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v engine.Violation
		var severity string
		if err := rows.Scan(&v.PolicyID, &v.Path, &v.Message, &severity, &v.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		v.Severity = descriptor.Severity(severity)
		run.Violations = append(run.Violations, v)
	}
	return run, rows.Err()
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// RunsOlderThan returns runs that started before cutoff, oldest first,
// with their violation snapshots.
func (s *Store) RunsOlderThan(ctx context.Context, cutoff time.Time) ([]*Run, error) {
	return s.selectWhere(ctx,
		"started_at < ?", cutoff.UTC().Format(timeLayout))
}

// RunsExceeding returns the oldest runs beyond the max count, with
// their violation snapshots.
func (s *Store) RunsExceeding(ctx context.Context, max int64) ([]*Run, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	excess := count - max
	if excess <= 0 {
		return nil, nil
	}
	return s.selectWhere(ctx,
		"id IN (SELECT id FROM runs ORDER BY started_at ASC LIMIT ?)", excess)
}

// DeleteOlderThan removes runs that started before cutoff, returning
// the deleted runs with their violation snapshots. Callers that need
// the runs to survive a failed side effect should select with
// RunsOlderThan, perform the side effect, then DeleteRuns.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]*Run, error) {
	runs, err := s.RunsOlderThan(ctx, cutoff)
	if err != nil || len(runs) == 0 {
		return runs, err
	}
	return runs, s.DeleteRuns(ctx, runs)
}

// DeleteExceeding removes the oldest runs beyond the max count,
// returning the deleted runs.
func (s *Store) DeleteExceeding(ctx context.Context, max int64) ([]*Run, error) {
	runs, err := s.RunsExceeding(ctx, max)
	if err != nil || len(runs) == 0 {
		return runs, err
	}
	return runs, s.DeleteRuns(ctx, runs)
}

// selectWhere loads matching runs oldest first and snapshots their
// violations. Done outside any transaction: the store holds a single
// connection.
func (s *Store) selectWhere(ctx context.Context, where string, arg any) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, command, profiles,
		       evaluated, skipped, fixed, errors, warnings, infos, outcome
		FROM runs WHERE `+where+` ORDER BY started_at ASC`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select runs: %w", err)
	}

	var selected []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		selected = append(selected, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, run := range selected {
		full, err := s.Get(ctx, run.ID)
		if err != nil {
			return nil, err
		}
		run.Violations = full.Violations
	}
	return selected, nil
}

// DeleteRuns removes the given runs and their violations in one
// transaction.
func (s *Store) DeleteRuns(ctx context.Context, runs []*Run) error {
	if len(runs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	for _, run := range runs {
		if _, err := tx.ExecContext(ctx, "DELETE FROM violations WHERE run_id = ?", run.ID); err != nil {
			return fmt.Errorf("failed to delete violations for run %s: %w", run.ID, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", run.ID); err != nil {
			return fmt.Errorf("failed to delete run %s: %w", run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deletions: %w", err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var startedAt, finishedAt, profiles string
	err := row.Scan(
		&run.ID, &startedAt, &finishedAt, &run.Command, &profiles,
		&run.Evaluated, &run.Skipped, &run.Fixed,
		&run.Errors, &run.Warnings, &run.Infos, &run.Outcome,
	)
	if err != nil {
		return nil, err
	}

	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("corrupt started_at for run %s: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return nil, fmt.Errorf("corrupt finished_at for run %s: %w", run.ID, err)
	}
	if profiles != "" {
		run.Profiles = strings.Split(profiles, ",")
	}
	return &run, nil
}
