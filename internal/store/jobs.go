package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"queuectl/internal/model"
)

// Enqueue inserts a new pending job. A duplicate id is rejected with
// ErrDuplicateJob and the existing row is left untouched.
func (s *Store) Enqueue(ctx context.Context, j model.Job) error {
	now := time.Now().UTC()

	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = now
	}
	if j.State == "" {
		j.State = model.StatePending
	}
	if j.RetryLimit == 0 {
		j.RetryLimit = s.IntConfig(ctx, "max_retries", 3)
	}

	var nextRun any
	if !j.NextRunAt.IsZero() {
		nextRun = fmtTime(j.NextRunAt)
	}

	_, err := s.DB.ExecContext(ctx, `
INSERT INTO jobs (id, command, state, attempts, retry_limit, created_at, updated_at, next_run_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, j.ID, j.Command, j.State, j.Attempts, j.RetryLimit,
		fmtTime(j.CreatedAt), fmtTime(j.UpdatedAt), nextRun,
	)
	if isDuplicate(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, j.ID)
	}
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

// ClaimOne atomically claims the oldest eligible pending job and moves
// it to processing. It returns (nil, nil) when there is no eligible
// job, when another worker won the race for the selected row, or when
// the database reports transient lock contention. The caller polls
// again later in all three cases.
func (s *Store) ClaimOne(ctx context.Context, now time.Time) (*model.Job, error) {
	// SERIALIZABLE gives the select + conditional update the row
	// stability the claim protocol needs in SQLite.
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		if isBusy(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `
		SELECT id
		FROM jobs
		WHERE state = 'pending'
		  AND (next_run_at IS NULL OR next_run_at <= ?)
		ORDER BY created_at ASC
		LIMIT 1
	`, fmtTime(now)).Scan(&id)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if isBusy(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select pending job: %w", err)
	}

	// The claim step. The state guard catches a concurrent claimer
	// that got to the same row first.
	res, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET state = 'processing', updated_at = ?
		WHERE id = ? AND state = 'pending'
	`, fmtTime(now), id)
	if err != nil {
		if isBusy(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim update: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows != 1 {
		return nil, nil
	}

	j, err := scanJob(tx.QueryRowContext(ctx, `
		SELECT id, command, state, attempts, retry_limit,
		       created_at, updated_at, next_run_at
		FROM jobs
		WHERE id = ?
	`, id))
	if err != nil {
		return nil, fmt.Errorf("reload job after claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("tx commit: %w", err)
	}

	return j, nil
}

// Complete marks a job completed. Outcome writes are unconditional:
// the caller holds the claim, so no state guard is needed and a
// guard would only turn a lost outcome into a silent no-op.
func (s *Store) Complete(ctx context.Context, id string, now time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE jobs SET state = 'completed', updated_at = ?
		WHERE id = ?
	`, fmtTime(now), id)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// ScheduleRetry returns a failed job to pending with the incremented
// attempt count and its next eligibility time.
func (s *Store) ScheduleRetry(ctx context.Context, id string, attempts int, nextRunAt, now time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE jobs
		SET state = 'pending', attempts = ?, next_run_at = ?, updated_at = ?
		WHERE id = ?
	`, attempts, fmtTime(nextRunAt), fmtTime(now), id)
	if err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}
	return nil
}

// MarkDead moves a job whose retries are exhausted into the DLQ state.
// Dead rows are never deleted; they stay for inspection and manual
// resurrection.
func (s *Store) MarkDead(ctx context.Context, id string, attempts int, now time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE jobs
		SET state = 'dead', attempts = ?, next_run_at = NULL, updated_at = ?
		WHERE id = ?
	`, attempts, fmtTime(now), id)
	if err != nil {
		return fmt.Errorf("mark dead: %w", err)
	}
	return nil
}

// Resurrect moves a dead job back to pending with attempts reset and
// eligibility cleared. It mutates nothing and reports ErrNotDead when
// the job does not exist or is not dead.
func (s *Store) Resurrect(ctx context.Context, id string, now time.Time) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE jobs
		SET state = 'pending', attempts = 0, next_run_at = NULL, updated_at = ?
		WHERE id = ? AND state = 'dead'
	`, fmtTime(now), id)
	if err != nil {
		return fmt.Errorf("resurrect: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotDead, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (*model.Job, error) {
	var (
		j         model.Job
		createdAt string
		updatedAt string
		nextRunAt sql.NullString
	)
	err := r.Scan(
		&j.ID,
		&j.Command,
		&j.State,
		&j.Attempts,
		&j.RetryLimit,
		&createdAt,
		&updatedAt,
		&nextRunAt,
	)
	if err != nil {
		return nil, err
	}
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	if nextRunAt.Valid {
		j.NextRunAt = parseTime(nextRunAt.String)
	}
	return &j, nil
}
