package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tracker/internal/apperr"
	"tracker/internal/completion"
	"tracker/internal/models"
	"tracker/internal/schedule"
	"tracker/internal/storage"
	"tracker/internal/timer"
)

// DefaultStatsWindow is the stats window used when the caller gives none.
const DefaultStatsWindow = 30

var (
	ErrTextRequired        = apperr.Validation("text is required")
	ErrInvalidDuration     = apperr.Validation("durationSeconds must be a positive integer")
	ErrNothingToUndo       = apperr.NotFound("no completion found for this day")
	ErrRangeRequired       = apperr.Validation("startDate and endDate are required")
	ErrRangeOrder          = apperr.Validation("endDate must not be before startDate")
	ErrProjectNameEmpty    = apperr.Validation("project name is required")
	ErrCompletedAtOutOfDay = apperr.Validation("completedAt must fall within date")
)

// Options tune a Service. Zero values pick the defaults.
type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
	// Location is the server zone used when a request carries no timezone.
	Location        *time.Location
	StatsWindowDays int
}

// Service answers every task, completion, timer and project operation.
type Service struct {
	store       storage.Store
	tracker     *completion.Tracker
	timers      *timer.Engine
	logger      *slog.Logger
	now         func() time.Time
	loc         *time.Location
	statsWindow int
}

// New composes the service on top of store.
func New(store storage.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.StatsWindowDays <= 0 {
		opts.StatsWindowDays = DefaultStatsWindow
	}
	tracker := completion.NewTracker(store, opts.Now)
	return &Service{
		store:       store,
		tracker:     tracker,
		timers:      timer.NewEngine(store, tracker, opts.Logger, opts.Now),
		logger:      opts.Logger,
		now:         opts.Now,
		loc:         opts.Location,
		statsWindow: opts.StatsWindowDays,
	}
}

// CreateInput holds the fields of a new task. A nil Frequency makes a
// one-time task.
type CreateInput struct {
	Text            string
	Frequency       models.Frequency
	DurationSeconds *int
	ProjectID       *string
}

// Patch is a partial task update. Nil fields are left alone.
type Patch struct {
	Text *string
	// SetFrequency replaces the frequency with Frequency, nil included.
	SetFrequency bool
	Frequency    models.Frequency
	Completed    *bool
	// DurationSeconds of 0 clears the timer duration.
	DurationSeconds *int
	// ProjectID of "" detaches the task from its project.
	ProjectID *string
}

// ResetResult reports how many tasks lost a completion in ResetDay.
type ResetResult struct {
	Date  string `json:"date"`
	Reset int    `json:"reset"`
}

// ListToday returns the tasks active on the day named by q, joined with their
// completion state. A non-empty projectID keeps only that project's tasks.
func (s *Service) ListToday(ctx context.Context, q schedule.DayQuery, projectID string) (DayList, error) {
	now := s.now()
	q = s.withZone(q)
	day, err := s.dayOf(now, q)
	if err != nil {
		return DayList{}, err
	}
	activeOn, err := schedule.ParseDate(day.Date)
	if err != nil {
		return DayList{}, err
	}
	rows, err := s.tracker.TasksWithStatus(ctx, day, activeOn)
	if err != nil {
		return DayList{}, fmt.Errorf("list tasks: %w", err)
	}

	loc := schedule.Location(q)
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		if projectID != "" && (row.Task.ProjectID == nil || *row.Task.ProjectID != projectID) {
			continue
		}
		v, err := newView(row, now, loc)
		if err != nil {
			return DayList{}, err
		}
		views = append(views, v)
	}
	return DayList{Date: day.Date, Range: day, Tasks: views}, nil
}

// Get returns one task with its status for the day named by q.
func (s *Service) Get(ctx context.Context, id string, q schedule.DayQuery) (View, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, task, q)
}

// Create validates and stores a new task.
func (s *Service) Create(ctx context.Context, in CreateInput) (View, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return View{}, ErrTextRequired
	}
	if err := schedule.ValidateFrequency(in.Frequency); err != nil {
		return View{}, err
	}
	if in.DurationSeconds != nil && *in.DurationSeconds <= 0 {
		return View{}, ErrInvalidDuration
	}

	task := models.Task{
		Text:            text,
		Frequency:       in.Frequency,
		DurationSeconds: in.DurationSeconds,
		TimerStatus:     models.TimerNotStarted,
		ProjectID:       nonEmpty(in.ProjectID),
	}
	if err := s.store.InsertTask(ctx, &task); err != nil {
		return View{}, fmt.Errorf("create task: %w", err)
	}
	s.logger.Debug("task created", slog.String("task_id", task.ID), slog.Bool("recurring", task.Recurring()))
	return s.view(ctx, task, schedule.DayQuery{})
}

// Update applies a patch. Setting completed to true resets a running or
// paused timer.
func (s *Service) Update(ctx context.Context, id string, p Patch) (View, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return View{}, err
	}
	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return View{}, ErrTextRequired
		}
		task.Text = text
	}
	if p.SetFrequency {
		if err := schedule.ValidateFrequency(p.Frequency); err != nil {
			return View{}, err
		}
		task.Frequency = p.Frequency
	}
	if p.DurationSeconds != nil {
		switch d := *p.DurationSeconds; {
		case d < 0:
			return View{}, ErrInvalidDuration
		case d == 0:
			task.DurationSeconds = nil
		default:
			task.DurationSeconds = &d
		}
	}
	if p.ProjectID != nil {
		task.ProjectID = nonEmpty(p.ProjectID)
	}
	if p.Completed != nil {
		task.Completed = *p.Completed
		if *p.Completed && task.HasActiveTimer() {
			timer.Reset(&task)
		}
	}
	if err := s.store.UpdateTask(ctx, &task); err != nil {
		return View{}, fmt.Errorf("update task: %w", err)
	}
	return s.view(ctx, task, schedule.DayQuery{})
}

// Delete removes a task and its completion history.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTask(ctx, id)
}

// Complete marks the task done. Recurring tasks get a completion event at
// `at` (now when nil) replacing any other event of the same day; one-time
// tasks get their completed flag set. Active timers are reset either way.
// With an explicit date and no `at`, the event lands at now when now is on
// that day and at the start of the day otherwise. An `at` outside an explicit
// date is rejected.
func (s *Service) Complete(ctx context.Context, id string, at *time.Time, q schedule.DayQuery) (View, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return View{}, err
	}
	instant := s.now()
	if at != nil {
		instant = *at
	}
	q = s.withZone(q)

	dirty := false
	if task.Recurring() {
		day, err := s.dayOf(instant, q)
		if err != nil {
			return View{}, err
		}
		if !day.Contains(instant) {
			if at != nil {
				return View{}, ErrCompletedAtOutOfDay
			}
			instant = day.Start
		}
		if _, err := s.tracker.MarkComplete(ctx, task.ID, instant, day); err != nil {
			return View{}, fmt.Errorf("complete task: %w", err)
		}
	} else if !task.Completed {
		task.Completed = true
		dirty = true
	}
	if task.HasActiveTimer() {
		timer.Reset(&task)
		dirty = true
	}
	if dirty {
		if err := s.store.UpdateTask(ctx, &task); err != nil {
			return View{}, fmt.Errorf("complete task: %w", err)
		}
	}
	return s.view(ctx, task, q)
}

// Uncomplete undoes the completion of the day named by q. It fails with
// ErrNothingToUndo when there is nothing to remove.
func (s *Service) Uncomplete(ctx context.Context, id string, q schedule.DayQuery) (View, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return View{}, err
	}
	q = s.withZone(q)

	dirty := false
	if task.Recurring() {
		day, err := s.dayOf(s.now(), q)
		if err != nil {
			return View{}, err
		}
		removed, err := s.tracker.MarkIncomplete(ctx, task.ID, day)
		if err != nil {
			return View{}, fmt.Errorf("uncomplete task: %w", err)
		}
		if !removed {
			return View{}, ErrNothingToUndo
		}
	} else {
		if !task.Completed {
			return View{}, ErrNothingToUndo
		}
		task.Completed = false
		dirty = true
	}
	if task.HasActiveTimer() {
		timer.Reset(&task)
		dirty = true
	}
	if dirty {
		if err := s.store.UpdateTask(ctx, &task); err != nil {
			return View{}, fmt.Errorf("uncomplete task: %w", err)
		}
	}
	return s.view(ctx, task, q)
}

// Stats summarizes the task over the last days days, or the configured
// window when days is nil.
func (s *Service) Stats(ctx context.Context, id string, days *int) (completion.Stats, error) {
	if _, err := s.store.GetTask(ctx, id); err != nil {
		return completion.Stats{}, err
	}
	window := s.statsWindow
	if days != nil {
		window = *days
	}
	return s.tracker.Stats(ctx, id, window)
}

// CompletionsToday lists every completion event inside the day named by q.
func (s *Service) CompletionsToday(ctx context.Context, q schedule.DayQuery) ([]models.CompletionEvent, schedule.DayRange, error) {
	day, err := s.dayOf(s.now(), s.withZone(q))
	if err != nil {
		return nil, schedule.DayRange{}, err
	}
	events, err := s.tracker.Completions(ctx, day.Start, day.End)
	if err != nil {
		return nil, schedule.DayRange{}, fmt.Errorf("list completions: %w", err)
	}
	return events, day, nil
}

// CompletionsRange lists completion events from the start of startDate to the
// end of endDate, both local dates in the zone of q.
func (s *Service) CompletionsRange(ctx context.Context, startDate, endDate string, q schedule.DayQuery) ([]models.CompletionEvent, schedule.DayRange, error) {
	if startDate == "" || endDate == "" {
		return nil, schedule.DayRange{}, ErrRangeRequired
	}
	q = s.withZone(q)
	now := s.now()
	q.Date = startDate
	first, err := schedule.ResolveDayRange(q, now)
	if err != nil {
		return nil, schedule.DayRange{}, err
	}
	q.Date = endDate
	last, err := schedule.ResolveDayRange(q, now)
	if err != nil {
		return nil, schedule.DayRange{}, err
	}
	if last.Start.Before(first.Start) {
		return nil, schedule.DayRange{}, ErrRangeOrder
	}
	span := schedule.DayRange{Date: startDate, Start: first.Start, End: last.End}
	events, err := s.tracker.Completions(ctx, span.Start, span.End)
	if err != nil {
		return nil, schedule.DayRange{}, fmt.Errorf("list completions: %w", err)
	}
	return events, span, nil
}

// ResetDay removes the completions of the day named by q from every task, one
// task at a time. Failures are logged and joined; the tasks already reset
// stay reset.
func (s *Service) ResetDay(ctx context.Context, q schedule.DayQuery) (ResetResult, error) {
	day, err := s.dayOf(s.now(), s.withZone(q))
	if err != nil {
		return ResetResult{}, err
	}
	all, err := s.store.ListTasks(ctx)
	if err != nil {
		return ResetResult{}, fmt.Errorf("list tasks: %w", err)
	}

	result := ResetResult{Date: day.Date}
	var errs []error
	for _, task := range all {
		removed, err := s.tracker.MarkIncomplete(ctx, task.ID, day)
		if err != nil {
			s.logger.Warn("reset day failed for task", slog.String("task_id", task.ID), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		if removed {
			result.Reset++
		}
	}
	return result, errors.Join(errs...)
}

// StartTimer starts or resumes the task's timer.
func (s *Service) StartTimer(ctx context.Context, id string) (View, error) {
	task, err := s.timers.Start(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, task, schedule.DayQuery{})
}

// PauseTimer pauses a running timer.
func (s *Service) PauseTimer(ctx context.Context, id string) (View, error) {
	task, err := s.timers.Pause(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, task, schedule.DayQuery{})
}

// StopTimer resets the timer to not_started.
func (s *Service) StopTimer(ctx context.Context, id string) (View, error) {
	task, err := s.timers.Stop(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, task, schedule.DayQuery{})
}

// TimerStatus computes the timer snapshot, completing or resetting an
// expired timer. q names the client's zone for the completion day.
func (s *Service) TimerStatus(ctx context.Context, id string, q schedule.DayQuery) (timer.Snapshot, error) {
	return s.timers.Status(ctx, id, s.withZone(q))
}

// view joins a single task with its completion state for the day named by q.
func (s *Service) view(ctx context.Context, task models.Task, q schedule.DayQuery) (View, error) {
	now := s.now()
	q = s.withZone(q)
	day, err := s.dayOf(now, q)
	if err != nil {
		return View{}, err
	}
	row := models.TaskWithStatus{Task: task, CompletedToday: task.Completed}
	if task.Recurring() {
		events, err := s.store.ListCompletionsBetween(ctx, task.ID, day.Start, day.End)
		if err != nil {
			return View{}, fmt.Errorf("load completions: %w", err)
		}
		row.CompletedToday = len(events) > 0
		if row.LastCompletedAt, err = s.store.LatestCompletion(ctx, task.ID); err != nil {
			return View{}, fmt.Errorf("load completions: %w", err)
		}
	}
	return newView(row, now, schedule.Location(q))
}

// withZone makes a query without any timezone context use the server zone.
func (s *Service) withZone(q schedule.DayQuery) schedule.DayQuery {
	if q.Zone == "" && q.OffsetMinutes == nil {
		q.Zone = s.loc.String()
	}
	return q
}

// dayOf resolves q to a UTC interval. Without an explicit date the local
// date of instant is used.
func (s *Service) dayOf(instant time.Time, q schedule.DayQuery) (schedule.DayRange, error) {
	if q.Date == "" {
		q.Date = schedule.LocalDate(instant, q)
	}
	return schedule.ResolveDayRange(q, instant)
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
