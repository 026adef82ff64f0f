package backfill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fortuna/totals/internal/store"
)

const runColumns = `run_id, season, source_path, status, dry_run, matches_imported,
	last_error, created_at, started_at, completed_at`

// Repository handles persistence for import runs.
type Repository struct {
	db *store.Database
}

// NewRepository constructs a Repository.
func NewRepository(db *store.Database) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new run row and returns the stored record.
func (r *Repository) CreateRun(ctx context.Context, spec JobSpec, status RunStatus) (*Run, error) {
	query := `
		INSERT INTO backfill_runs (run_id, season, source_path, status, dry_run, started_at)
		VALUES ($1, $2, $3, $4::varchar, $5, CASE WHEN $4::varchar = 'running' THEN NOW() END)
		RETURNING ` + runColumns

	row := r.db.DB().QueryRowContext(ctx, query,
		uuid.NewString(), spec.Season, spec.SourcePath, string(status), spec.DryRun,
	)

	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// Finish records the terminal state of a run.
func (r *Repository) Finish(ctx context.Context, runID string, imported int, runErr error) error {
	query := `
		UPDATE backfill_runs
		SET status = $2,
			matches_imported = $3,
			last_error = $4,
			completed_at = NOW()
		WHERE run_id = $1
	`

	status := RunStatusCompleted
	var errText sql.NullString
	if runErr != nil {
		status = RunStatusFailed
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	if _, err := r.db.DB().ExecContext(ctx, query, runID, string(status), imported, errText); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// UpdateProgress stores the running match count.
func (r *Repository) UpdateProgress(ctx context.Context, runID string, processed int) error {
	query := `UPDATE backfill_runs SET matches_imported = $2 WHERE run_id = $1`

	if _, err := r.db.DB().ExecContext(ctx, query, runID, processed); err != nil {
		return fmt.Errorf("update run progress: %w", err)
	}
	return nil
}

// ResetStuckRuns moves running imports back to queued (used during service restarts).
func (r *Repository) ResetStuckRuns(ctx context.Context) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE backfill_runs
		SET status = 'queued',
			started_at = NULL
		WHERE status = 'running'
	`)
	if err != nil {
		return fmt.Errorf("reset stuck runs: %w", err)
	}
	return nil
}

// MarkNextRunRunning atomically claims the next queued run.
func (r *Repository) MarkNextRunRunning(ctx context.Context) (*Run, error) {
	query := `
		WITH next_run AS (
			SELECT run_id
			FROM backfill_runs
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE backfill_runs
		SET status = 'running',
			started_at = NOW()
		FROM next_run
		WHERE backfill_runs.run_id = next_run.run_id
		RETURNING backfill_runs.run_id, backfill_runs.season, backfill_runs.source_path,
			backfill_runs.status, backfill_runs.dry_run, backfill_runs.matches_imported,
			backfill_runs.last_error, backfill_runs.created_at, backfill_runs.started_at,
			backfill_runs.completed_at
	`

	row := r.db.DB().QueryRowContext(ctx, query)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetActiveRun returns the currently running import, if any.
func (r *Repository) GetActiveRun(ctx context.Context) (*Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM backfill_runs
		WHERE status = 'running'
		ORDER BY started_at DESC
		LIMIT 1
	`

	row := r.db.DB().QueryRowContext(ctx, query)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active run: %w", err)
	}
	return run, nil
}

// ListRecentRuns returns the most recent runs.
func (r *Repository) ListRecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM backfill_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
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

func scanRun(scanner interface {
	Scan(dest ...interface{}) error
}) (*Run, error) {
	run := &Run{}
	err := scanner.Scan(
		&run.RunID,
		&run.Season,
		&run.SourcePath,
		&run.Status,
		&run.DryRun,
		&run.MatchesImported,
		&run.LastError,
		&run.CreatedAt,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
