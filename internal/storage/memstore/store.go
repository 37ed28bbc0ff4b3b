package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracker/internal/models"
	"tracker/internal/storage"
)

// Store keeps tasks, completions and projects in memory.
type Store struct {
	mu          sync.RWMutex
	tasks       map[string]models.Task
	completions map[string]models.CompletionEvent
	projects    map[string]models.Project
	order       map[string]int
	seq         int
	now         func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store. A nil clock means time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		tasks:       make(map[string]models.Task),
		completions: make(map[string]models.CompletionEvent),
		projects:    make(map[string]models.Project),
		order:       make(map[string]int),
		now:         now,
	}
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, storage.ErrTaskNotFound
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedTasks(), nil
}

func (s *Store) InsertTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[task.ID] = *task
	s.seq++
	s.order[task.ID] = s.seq
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[task.ID]
	if !ok {
		return storage.ErrTaskNotFound
	}
	task.CreatedAt = current.CreatedAt
	task.UpdatedAt = s.now().UTC()
	s.tasks[task.ID] = *task
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return storage.ErrTaskNotFound
	}
	delete(s.tasks, id)
	delete(s.order, id)
	for cid, ev := range s.completions {
		if ev.TaskID == id {
			delete(s.completions, cid)
		}
	}
	return nil
}

func (s *Store) InsertCompletion(ctx context.Context, event models.CompletionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[event.TaskID]; !ok {
		return storage.ErrTaskNotFound
	}
	s.completions[event.ID] = event
	return nil
}

func (s *Store) DeleteCompletionsBetween(ctx context.Context, taskID string, start, end time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, ev := range s.completions {
		if matches(ev, taskID, start, end) {
			delete(s.completions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) ListCompletionsBetween(ctx context.Context, taskID string, start, end time.Time) ([]models.CompletionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CompletionEvent, 0)
	for _, ev := range s.completions {
		if matches(ev, taskID, start, end) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (s *Store) LatestCompletion(ctx context.Context, taskID string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last *time.Time
	for _, ev := range s.completions {
		if ev.TaskID == taskID && (last == nil || ev.CompletedAt.After(*last)) {
			at := ev.CompletedAt
			last = &at
		}
	}
	return last, nil
}

func (s *Store) ListTasksWithCompletions(ctx context.Context, start, end time.Time) ([]models.TaskWithStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := s.sortedTasks()
	out := make([]models.TaskWithStatus, 0, len(tasks))
	for _, t := range tasks {
		row := models.TaskWithStatus{Task: t}
		for _, ev := range s.completions {
			if ev.TaskID != t.ID {
				continue
			}
			if matches(ev, t.ID, start, end) {
				row.CompletedToday = true
			}
			if row.LastCompletedAt == nil || ev.CompletedAt.After(*row.LastCompletedAt) {
				at := ev.CompletedAt
				row.LastCompletedAt = &at
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return models.Project{}, storage.ErrProjectNotFound
	}
	return p, nil
}

func (s *Store) CreateProject(ctx context.Context, name, color string) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if s.nameTaken(name, "") {
		return models.Project{}, storage.ErrProjectExists
	}
	if color == "" {
		color = storage.PaletteColor()
	}
	now := s.now().UTC()
	p := models.Project{ID: uuid.NewString(), Name: name, Color: color, CreatedAt: now, UpdatedAt: now}
	s.projects[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProject(ctx context.Context, id, name, color string) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return models.Project{}, storage.ErrProjectNotFound
	}
	name = strings.TrimSpace(name)
	if s.nameTaken(name, id) {
		return models.Project{}, storage.ErrProjectExists
	}
	if color == "" {
		color = storage.PaletteColor()
	}
	p.Name = name
	p.Color = color
	p.UpdatedAt = s.now().UTC()
	s.projects[id] = p
	return p, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return storage.ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *Store) CountProjectTasks(ctx context.Context, projectID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.tasks {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

func (s *Store) sortedTasks() []models.Task {
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] < s.order[out[j].ID] })
	return out
}

func (s *Store) nameTaken(name, exceptID string) bool {
	for id, p := range s.projects {
		if id != exceptID && p.Name == name {
			return true
		}
	}
	return false
}

func matches(ev models.CompletionEvent, taskID string, start, end time.Time) bool {
	if taskID != "" && ev.TaskID != taskID {
		return false
	}
	return !ev.CompletedAt.Before(start) && ev.CompletedAt.Before(end)
}
