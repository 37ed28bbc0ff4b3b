package tasks

import (
	"encoding/json"
	"time"

	"tracker/internal/models"
	"tracker/internal/schedule"
)

// View is the client representation of a task joined with its status for
// one day.
type View struct {
	ID              string             `json:"id"`
	Text            string             `json:"text"`
	Frequency       json.RawMessage    `json:"frequency"`
	Completed       bool               `json:"completed"`
	CompletedToday  bool               `json:"completedToday"`
	LastCompletedAt *time.Time         `json:"lastCompletedAt,omitempty"`
	DurationSeconds *int               `json:"durationSeconds,omitempty"`
	TimerStatus     models.TimerStatus `json:"timerStatus"`
	TimerStartedAt  *time.Time         `json:"timerStartedAt,omitempty"`
	ProjectID       *string            `json:"projectId,omitempty"`
	NextReminderAt  *time.Time         `json:"nextReminderAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// DayList is the today view: the resolved day and the tasks active on it.
type DayList struct {
	Date  string
	Range schedule.DayRange
	Tasks []View
}

func newView(row models.TaskWithStatus, now time.Time, loc *time.Location) (View, error) {
	task := row.Task
	freq, err := models.EncodeFrequency(task.Frequency)
	if err != nil {
		return View{}, err
	}
	status := task.TimerStatus
	if status == "" {
		status = models.TimerNotStarted
	}
	return View{
		ID:              task.ID,
		Text:            task.Text,
		Frequency:       freq,
		Completed:       task.Completed,
		CompletedToday:  row.CompletedToday,
		LastCompletedAt: row.LastCompletedAt,
		DurationSeconds: task.DurationSeconds,
		TimerStatus:     status,
		TimerStartedAt:  task.TimerStartedAt,
		ProjectID:       task.ProjectID,
		NextReminderAt:  schedule.NextReminder(task.Frequency, now.In(loc)),
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
	}, nil
}
