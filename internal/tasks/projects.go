package tasks

import (
	"context"
	"strings"

	"tracker/internal/apperr"
	"tracker/internal/models"
	"tracker/internal/schedule"
)

// ListProjects returns every project, oldest first.
func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.store.ListProjects(ctx)
}

// CreateProject adds a project. An empty color picks one from the palette.
func (s *Service) CreateProject(ctx context.Context, name, color string) (models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, ErrProjectNameEmpty
	}
	return s.store.CreateProject(ctx, name, strings.TrimSpace(color))
}

// UpdateProject renames or recolors a project.
func (s *Service) UpdateProject(ctx context.Context, id, name, color string) (models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, ErrProjectNameEmpty
	}
	return s.store.UpdateProject(ctx, id, name, strings.TrimSpace(color))
}

// DeleteProject refuses to remove a project that tasks still point at.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if _, err := s.store.GetProject(ctx, id); err != nil {
		return err
	}
	n, err := s.store.CountProjectTasks(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Integrity("project still has %d task(s)", n)
	}
	return s.store.DeleteProject(ctx, id)
}

// ProjectTasks is the today view restricted to one project.
func (s *Service) ProjectTasks(ctx context.Context, id string, q schedule.DayQuery) (DayList, error) {
	if _, err := s.store.GetProject(ctx, id); err != nil {
		return DayList{}, err
	}
	return s.ListToday(ctx, q, id)
}
