package storage

import (
	"context"
	"math/rand/v2"
	"time"

	"tracker/internal/apperr"
	"tracker/internal/models"
)

var (
	ErrTaskNotFound    = apperr.NotFound("task not found")
	ErrProjectNotFound = apperr.NotFound("project not found")
	ErrProjectExists   = apperr.Validation("project name already exists")
)

// Store defines the persistence operations of the tracker. Range queries are
// half-open [start, end) over completed_at; a taskID of "" matches every task.
type Store interface {
	// Task operations
	GetTask(ctx context.Context, id string) (models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	InsertTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error

	// Completion operations
	InsertCompletion(ctx context.Context, event models.CompletionEvent) error
	DeleteCompletionsBetween(ctx context.Context, taskID string, start, end time.Time) (int64, error)
	ListCompletionsBetween(ctx context.Context, taskID string, start, end time.Time) ([]models.CompletionEvent, error)
	ListTasksWithCompletions(ctx context.Context, start, end time.Time) ([]models.TaskWithStatus, error)
	LatestCompletion(ctx context.Context, taskID string) (*time.Time, error)

	// Project operations
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id string) (models.Project, error)
	CreateProject(ctx context.Context, name, color string) (models.Project, error)
	UpdateProject(ctx context.Context, id, name, color string) (models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	CountProjectTasks(ctx context.Context, projectID string) (int, error)
}

var palette = []string{
	"#2563eb", // blue-600
	"#7c3aed", // violet-600
	"#dc2626", // red-600
	"#059669", // green-600
	"#ea580c", // orange-600
	"#d97706", // amber-600
	"#0ea5e9", // sky-500
}

// PaletteColor returns a random project color.
func PaletteColor() string {
	return palette[rand.IntN(len(palette))]
}
