package models

import "time"

// Project groups tasks under a name and a color.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TimerStatus is the state of a task's countdown timer.
type TimerStatus string

const (
	TimerNotStarted TimerStatus = "not_started"
	TimerRunning    TimerStatus = "running"
	TimerPaused     TimerStatus = "paused"
	TimerCompleted  TimerStatus = "completed"
)

// Valid reports whether s is one of the known timer states.
func (s TimerStatus) Valid() bool {
	switch s {
	case TimerNotStarted, TimerRunning, TimerPaused, TimerCompleted:
		return true
	}
	return false
}

// Task is a one-time task when Frequency is nil and a recurring one otherwise.
// Completed is only meaningful for one-time tasks; recurring tasks derive
// completion from their CompletionEvent history.
type Task struct {
	ID              string
	Text            string
	Frequency       Frequency
	Completed       bool
	DurationSeconds *int
	TimerStatus     TimerStatus
	TimerStartedAt  *time.Time
	ProjectID       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Recurring reports whether the task has a schedule.
func (t Task) Recurring() bool {
	return t.Frequency != nil
}

// HasActiveTimer reports whether the timer is in any state besides not_started.
func (t Task) HasActiveTimer() bool {
	return t.TimerStatus != "" && t.TimerStatus != TimerNotStarted
}

// CompletionEvent records one completion of a recurring task.
type CompletionEvent struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"taskId"`
	CompletedAt time.Time `json:"completedAt"`
}

// TaskWithStatus is a task joined with its completion state for one day.
type TaskWithStatus struct {
	Task            Task
	CompletedToday  bool
	LastCompletedAt *time.Time
}
