package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tracker/internal/models"
	"tracker/internal/storage"
)

const taskColumns = `t.id, t.text, t.frequency, t.completed, t.duration_seconds, t.timer_status,
        t.timer_started_at, t.project_id, t.created_at, t.updated_at`

// ListTasks returns every task in insertion order.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks t ORDER BY t.created_at, t.rowid`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, storage.ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// InsertTask stores a new task, assigning its id and timestamps.
func (s *Store) InsertTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.TimerStatus == "" {
		task.TimerStatus = models.TimerNotStarted
	}
	freq, err := encodeFrequency(task.Frequency)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `INSERT INTO tasks(id, text, frequency, completed, duration_seconds, timer_status,
        timer_started_at, project_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Text, freq, task.Completed, nullableInt(task.DurationSeconds), string(task.TimerStatus),
		nullableTime(task.TimerStartedAt), nullableString(task.ProjectID), formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	task.CreatedAt = now
	task.UpdatedAt = now
	return nil
}

// UpdateTask writes every mutable column of task.
func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	freq, err := encodeFrequency(task.Frequency)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET text = ?, frequency = ?, completed = ?, duration_seconds = ?,
        timer_status = ?, timer_started_at = ?, project_id = ?, updated_at = ? WHERE id = ?`,
		task.Text, freq, task.Completed, nullableInt(task.DurationSeconds), string(task.TimerStatus),
		nullableTime(task.TimerStartedAt), nullableString(task.ProjectID), formatTime(now), task.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrTaskNotFound
	}
	task.UpdatedAt = now
	return nil
}

// DeleteTask removes a task; its completions go with it.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrTaskNotFound
	}
	return nil
}

func encodeFrequency(f models.Frequency) (any, error) {
	if f == nil {
		return nil, nil
	}
	raw, err := models.EncodeFrequency(f)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTask reads the taskColumns followed by any extra destinations.
func scanTask(row scanner, extra ...any) (models.Task, error) {
	var (
		t         models.Task
		freq      sql.NullString
		duration  sql.NullInt64
		status    string
		startedAt sql.NullString
		projectID sql.NullString
		createdAt string
		updatedAt string
	)
	dest := append([]any{&t.ID, &t.Text, &freq, &t.Completed, &duration, &status,
		&startedAt, &projectID, &createdAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, err
		}
		return models.Task{}, fmt.Errorf("scan task: %w", err)
	}

	if freq.Valid {
		f, err := models.DecodeFrequency([]byte(freq.String))
		if err != nil {
			return models.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		t.Frequency = f
	}
	if duration.Valid {
		d := int(duration.Int64)
		t.DurationSeconds = &d
	}
	t.TimerStatus = models.TimerStatus(status)
	if projectID.Valid {
		p := projectID.String
		t.ProjectID = &p
	}

	var err error
	if t.TimerStartedAt, err = parseNullTime(startedAt); err != nil {
		return models.Task{}, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Task{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Task{}, err
	}
	return t, nil
}
