package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracker/internal/apperr"
	"tracker/internal/models"
	"tracker/internal/schedule"
)

// Store is the slice of the persistence layer the tracker needs. A taskID of
// "" in the range queries means every task.
type Store interface {
	InsertCompletion(ctx context.Context, event models.CompletionEvent) error
	DeleteCompletionsBetween(ctx context.Context, taskID string, start, end time.Time) (int64, error)
	ListCompletionsBetween(ctx context.Context, taskID string, start, end time.Time) ([]models.CompletionEvent, error)
	ListTasksWithCompletions(ctx context.Context, start, end time.Time) ([]models.TaskWithStatus, error)
}

// Tracker records completion events and derives per-day status, streaks and
// completion rates from them.
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker builds a tracker. A nil clock means time.Now.
func NewTracker(store Store, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: store, now: now}
}

// MarkComplete records a completion at `at`, replacing any event already
// stored for the task inside day so one day never holds two completions.
func (t *Tracker) MarkComplete(ctx context.Context, taskID string, at time.Time, day schedule.DayRange) (models.CompletionEvent, error) {
	if _, err := t.store.DeleteCompletionsBetween(ctx, taskID, day.Start, day.End); err != nil {
		return models.CompletionEvent{}, fmt.Errorf("replace completion: %w", err)
	}
	event := models.CompletionEvent{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		CompletedAt: at.UTC(),
	}
	if err := t.store.InsertCompletion(ctx, event); err != nil {
		return models.CompletionEvent{}, err
	}
	return event, nil
}

// MarkIncomplete removes the task's events inside day and reports whether any
// were removed.
func (t *Tracker) MarkIncomplete(ctx context.Context, taskID string, day schedule.DayRange) (bool, error) {
	removed, err := t.store.DeleteCompletionsBetween(ctx, taskID, day.Start, day.End)
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// IsCompletedToday reports whether the task has an event inside day.
func (t *Tracker) IsCompletedToday(ctx context.Context, taskID string, day schedule.DayRange) (bool, error) {
	events, err := t.store.ListCompletionsBetween(ctx, taskID, day.Start, day.End)
	if err != nil {
		return false, err
	}
	return len(events) > 0, nil
}

// Completions lists events of every task inside [start, end).
func (t *Tracker) Completions(ctx context.Context, start, end time.Time) ([]models.CompletionEvent, error) {
	return t.store.ListCompletionsBetween(ctx, "", start, end)
}

// TasksWithStatus joins every task with its completion state for day and keeps
// the tasks whose frequency is active on activeOn. Recurring tasks are done
// when they have an event in day; one-time tasks carry their own flag.
func (t *Tracker) TasksWithStatus(ctx context.Context, day schedule.DayRange, activeOn time.Time) ([]models.TaskWithStatus, error) {
	rows, err := t.store.ListTasksWithCompletions(ctx, day.Start, day.End)
	if err != nil {
		return nil, err
	}
	out := make([]models.TaskWithStatus, 0, len(rows))
	for _, row := range rows {
		if !schedule.IsActiveOnDate(row.Task.Frequency, activeOn) {
			continue
		}
		if !row.Task.Recurring() {
			row.CompletedToday = row.Task.Completed
		}
		out = append(out, row)
	}
	return out, nil
}

// Streak counts consecutive UTC days with a completion, walking back from
// today. A today without a completion yet does not break the chain.
func (t *Tracker) Streak(ctx context.Context, taskID string) (int, error) {
	now := t.now().UTC()
	today := startOfUTCDay(now)
	events, err := t.store.ListCompletionsBetween(ctx, taskID, time.Time{}, today.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}
	return streak(completionDates(events), today), nil
}

// MaxStatsWindow is the widest stats window accepted, in days.
const MaxStatsWindow = 366

// Stats summarizes the trailing window of windowDays days ending now.
func (t *Tracker) Stats(ctx context.Context, taskID string, windowDays int) (Stats, error) {
	if windowDays < 1 || windowDays > MaxStatsWindow {
		return Stats{}, apperr.Validation("days must be between 1 and %d", MaxStatsWindow)
	}
	now := t.now().UTC()
	from := now.AddDate(0, 0, -windowDays)
	events, err := t.store.ListCompletionsBetween(ctx, taskID, from, now)
	if err != nil {
		return Stats{}, err
	}
	current, err := t.Streak(ctx, taskID)
	if err != nil {
		return Stats{}, err
	}
	completed := len(completionDates(events))
	return Stats{
		TotalDays:      windowDays,
		CompletedDays:  completed,
		CompletionRate: completionRate(completed, windowDays),
		Streak:         current,
	}, nil
}
