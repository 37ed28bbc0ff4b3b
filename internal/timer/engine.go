package timer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tracker/internal/apperr"
	"tracker/internal/models"
	"tracker/internal/schedule"
)

// StaleAfter is how long past its expiry a running timer may still
// auto-complete its task. Older timers are reset instead.
const StaleAfter = time.Hour

var (
	ErrNoDurationSet   = apperr.Conflict("task has no timer duration set")
	ErrTimerNotRunning = apperr.Conflict("timer is not running")
)

// Store is the task persistence the engine reads and writes.
type Store interface {
	GetTask(ctx context.Context, id string) (models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
}

// Completer records a completion event for a recurring task.
type Completer interface {
	MarkComplete(ctx context.Context, taskID string, at time.Time, day schedule.DayRange) (models.CompletionEvent, error)
}

// Snapshot is the timer state computed at one instant.
type Snapshot struct {
	Status           models.TimerStatus `json:"status"`
	DurationSeconds  int                `json:"durationSeconds"`
	StartedAt        *time.Time         `json:"startedAt,omitempty"`
	ElapsedSeconds   int                `json:"elapsedSeconds"`
	RemainingSeconds int                `json:"remainingSeconds"`
	IsExpired        bool               `json:"isExpired"`
	AutoCompleted    bool               `json:"autoCompleted"`
}

// Engine drives the per-task countdown. Nothing ticks in the background:
// expiry is evaluated whenever Status is called.
type Engine struct {
	store     Store
	completer Completer
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngine wires the engine. A nil clock means time.Now.
func NewEngine(store Store, completer Completer, logger *slog.Logger, now func() time.Time) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{store: store, completer: completer, logger: logger, now: now}
}

// Start runs the timer. Resuming a paused timer keeps the original start
// instant, so time spent paused still counts as elapsed.
func (e *Engine) Start(ctx context.Context, taskID string) (models.Task, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if task.DurationSeconds == nil || *task.DurationSeconds <= 0 {
		return models.Task{}, ErrNoDurationSet
	}
	if task.TimerStartedAt == nil {
		startedAt := e.now().UTC()
		task.TimerStartedAt = &startedAt
	}
	task.TimerStatus = models.TimerRunning
	if err := e.store.UpdateTask(ctx, &task); err != nil {
		return models.Task{}, fmt.Errorf("start timer: %w", err)
	}
	return task, nil
}

// Pause marks a running timer as paused.
func (e *Engine) Pause(ctx context.Context, taskID string) (models.Task, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if task.TimerStatus != models.TimerRunning {
		return models.Task{}, ErrTimerNotRunning
	}
	task.TimerStatus = models.TimerPaused
	if err := e.store.UpdateTask(ctx, &task); err != nil {
		return models.Task{}, fmt.Errorf("pause timer: %w", err)
	}
	return task, nil
}

// Stop returns the timer to not_started from any state.
func (e *Engine) Stop(ctx context.Context, taskID string) (models.Task, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	Reset(&task)
	if err := e.store.UpdateTask(ctx, &task); err != nil {
		return models.Task{}, fmt.Errorf("stop timer: %w", err)
	}
	return task, nil
}

// Status computes the snapshot and applies expiry. A running timer that
// expired at most StaleAfter ago completes its task: recurring tasks get a
// completion event for the client's day in q, one-time tasks are flagged
// completed. A timer that expired longer ago is reset without completing.
func (e *Engine) Status(ctx context.Context, taskID string, q schedule.DayQuery) (Snapshot, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return Snapshot{}, err
	}
	now := e.now().UTC()
	snap := Compute(task, now)
	if !snap.IsExpired {
		return snap, nil
	}

	overdue := time.Duration(snap.ElapsedSeconds-snap.DurationSeconds) * time.Second
	if overdue > StaleAfter {
		Reset(&task)
		if err := e.store.UpdateTask(ctx, &task); err != nil {
			return Snapshot{}, fmt.Errorf("reset stale timer: %w", err)
		}
		e.logger.Info("stale timer reset", slog.String("task_id", task.ID), slog.Duration("overdue", overdue))
		return Compute(task, now), nil
	}

	if task.Recurring() {
		day, err := schedule.ResolveDayRange(schedule.DayQuery{
			Date:          schedule.LocalDate(now, q),
			OffsetMinutes: q.OffsetMinutes,
			Zone:          q.Zone,
		}, now)
		if err != nil {
			return Snapshot{}, err
		}
		if _, err := e.completer.MarkComplete(ctx, task.ID, now, day); err != nil {
			return Snapshot{}, fmt.Errorf("auto-complete task: %w", err)
		}
	} else {
		task.Completed = true
		task.TimerStatus = models.TimerCompleted
		task.TimerStartedAt = nil
		if err := e.store.UpdateTask(ctx, &task); err != nil {
			return Snapshot{}, fmt.Errorf("auto-complete task: %w", err)
		}
		snap.Status = models.TimerCompleted
	}
	snap.AutoCompleted = true
	e.logger.Info("timer expired, task completed", slog.String("task_id", task.ID), slog.Duration("overdue", overdue))
	return snap, nil
}

// Compute derives the snapshot of task at now without side effects.
func Compute(task models.Task, now time.Time) Snapshot {
	snap := Snapshot{
		Status:    task.TimerStatus,
		StartedAt: task.TimerStartedAt,
	}
	if snap.Status == "" {
		snap.Status = models.TimerNotStarted
	}
	if task.DurationSeconds != nil {
		snap.DurationSeconds = *task.DurationSeconds
	}
	if task.TimerStartedAt != nil {
		elapsed := int(now.Sub(*task.TimerStartedAt) / time.Second)
		if elapsed > 0 {
			snap.ElapsedSeconds = elapsed
		}
	}
	snap.RemainingSeconds = snap.DurationSeconds - snap.ElapsedSeconds
	if snap.RemainingSeconds < 0 {
		snap.RemainingSeconds = 0
	}
	snap.IsExpired = task.DurationSeconds != nil && snap.RemainingSeconds == 0 && snap.Status == models.TimerRunning
	return snap
}

// Reset clears the timer and reports whether anything changed.
func Reset(task *models.Task) bool {
	changed := task.HasActiveTimer() || task.TimerStartedAt != nil
	task.TimerStatus = models.TimerNotStarted
	task.TimerStartedAt = nil
	return changed
}
