package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"tracker/internal/models"
	"tracker/internal/storage"
)

// ListProjects retrieves all projects ordered by creation date.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color, created_at, updated_at FROM projects ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject persists a new project with optional color.
func (s *Store) CreateProject(ctx context.Context, name, color string) (models.Project, error) {
	if color == "" {
		color = storage.PaletteColor()
	}
	now := formatTime(s.now())
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `INSERT INTO projects(id, name, color, created_at, updated_at) VALUES(?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(name), color, now, now)
	if isUniqueViolation(err) {
		return models.Project{}, storage.ErrProjectExists
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, color, created_at, updated_at FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, storage.ErrProjectNotFound
	}
	if err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// UpdateProject renames a project and optionally changes its color.
func (s *Store) UpdateProject(ctx context.Context, id, name, color string) (models.Project, error) {
	if color == "" {
		color = storage.PaletteColor()
	}

	res, err := s.db.ExecContext(ctx, `UPDATE projects SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(name), color, formatTime(s.now()), id)
	if isUniqueViolation(err) {
		return models.Project{}, storage.ErrProjectExists
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Project{}, err
	}
	if affected == 0 {
		return models.Project{}, storage.ErrProjectNotFound
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes a project. Tasks keep their project_id.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrProjectNotFound
	}
	return nil
}

// CountProjectTasks returns how many tasks reference the project.
func (s *Store) CountProjectTasks(ctx context.Context, projectID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE project_id = ?`, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count project tasks: %w", err)
	}
	return n, nil
}

func scanProject(row scanner) (models.Project, error) {
	var (
		p                    models.Project
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Color, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Project{}, err
		}
		return models.Project{}, fmt.Errorf("scan project: %w", err)
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Project{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
