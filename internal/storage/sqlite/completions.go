package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"tracker/internal/models"
	"tracker/internal/storage"
)

// InsertCompletion stores one completion event of an existing task.
func (s *Store) InsertCompletion(ctx context.Context, event models.CompletionEvent) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO task_completions(id, task_id, completed_at) VALUES(?, ?, ?)`,
		event.ID, event.TaskID, formatTime(event.CompletedAt))
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return storage.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

// DeleteCompletionsBetween removes events in [start, end) and returns how
// many were removed.
func (s *Store) DeleteCompletionsBetween(ctx context.Context, taskID string, start, end time.Time) (int64, error) {
	query := `DELETE FROM task_completions WHERE completed_at >= ? AND completed_at < ?`
	args := []any{formatTime(start), formatTime(end)}
	if taskID != "" {
		query += ` AND task_id = ?`
		args = append(args, taskID)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete completions: %w", err)
	}
	return res.RowsAffected()
}

// ListCompletionsBetween returns events in [start, end) oldest first.
func (s *Store) ListCompletionsBetween(ctx context.Context, taskID string, start, end time.Time) ([]models.CompletionEvent, error) {
	query := `SELECT id, task_id, completed_at FROM task_completions WHERE completed_at >= ? AND completed_at < ?`
	args := []any{formatTime(start), formatTime(end)}
	if taskID != "" {
		query += ` AND task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY completed_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	events := make([]models.CompletionEvent, 0)
	for rows.Next() {
		var (
			ev models.CompletionEvent
			at string
		)
		if err := rows.Scan(&ev.ID, &ev.TaskID, &at); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		if ev.CompletedAt, err = parseTime(at); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// LatestCompletion returns the newest event time of a task, nil when it has none.
func (s *Store) LatestCompletion(ctx context.Context, taskID string) (*time.Time, error) {
	var last sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(completed_at) FROM task_completions WHERE task_id = ?`, taskID).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("latest completion: %w", err)
	}
	return parseNullTime(last)
}

// ListTasksWithCompletions joins every task with whether it has an event in
// [start, end) and its latest event overall, in one query.
func (s *Store) ListTasksWithCompletions(ctx context.Context, start, end time.Time) ([]models.TaskWithStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+`,
        EXISTS(SELECT 1 FROM task_completions c
            WHERE c.task_id = t.id AND c.completed_at >= ? AND c.completed_at < ?),
        (SELECT MAX(c.completed_at) FROM task_completions c WHERE c.task_id = t.id)
        FROM tasks t ORDER BY t.created_at, t.rowid`, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("list tasks with completions: %w", err)
	}
	defer rows.Close()

	out := make([]models.TaskWithStatus, 0)
	for rows.Next() {
		var (
			done bool
			last sql.NullString
		)
		t, err := scanTask(rows, &done, &last)
		if err != nil {
			return nil, err
		}
		row := models.TaskWithStatus{Task: t, CompletedToday: done}
		if row.LastCompletedAt, err = parseNullTime(last); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
