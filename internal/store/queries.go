package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"queuectl/internal/model"
)

var jobColumns = []string{
	"id", "command", "state", "attempts", "retry_limit",
	"created_at", "updated_at", "next_run_at",
}

// ListJobs returns jobs ordered by creation time, optionally filtered
// by state. An empty state lists everything.
func (s *Store) ListJobs(ctx context.Context, state string) ([]model.Job, error) {
	q := sq.Select(jobColumns...).From("jobs").OrderBy("created_at ASC")
	if state != "" {
		q = q.Where(sq.Eq{"state": state})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *j)
	}
	return result, rows.Err()
}

// FindJob looks up a single job by id.
func (s *Store) FindJob(ctx context.Context, id string) (*model.Job, error) {
	query, args, err := sq.Select(jobColumns...).From("jobs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}

	j, err := scanJob(s.DB.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	return j, nil
}

// CountByState returns the number of jobs in each state. States with
// no jobs are present with a zero count.
func (s *Store) CountByState(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, st := range model.States {
		counts[st] = 0
	}

	query, args, err := sq.Select("state", "COUNT(*)").From("jobs").GroupBy("state").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

// ListDead returns the DLQ: dead jobs ordered by creation time.
func (s *Store) ListDead(ctx context.Context) ([]model.Job, error) {
	return s.ListJobs(ctx, model.StateDead)
}

// ResetQueue deletes every job. Development convenience only.
func (s *Store) ResetQueue(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM jobs;`)
	return err
}
