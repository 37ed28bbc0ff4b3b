package completion

import (
	"math"
	"time"

	"tracker/internal/models"
)

// Stats is the completion summary of one task over a trailing window.
type Stats struct {
	TotalDays      int `json:"totalDays"`
	CompletedDays  int `json:"completedDays"`
	CompletionRate int `json:"completionRate"`
	Streak         int `json:"streak"`
}

func completionDates(events []models.CompletionEvent) map[string]struct{} {
	dates := make(map[string]struct{}, len(events))
	for _, ev := range events {
		dates[ev.CompletedAt.UTC().Format(time.DateOnly)] = struct{}{}
	}
	return dates
}

func streak(dates map[string]struct{}, today time.Time) int {
	day := today
	if _, ok := dates[day.Format(time.DateOnly)]; !ok {
		day = day.AddDate(0, 0, -1)
	}
	count := 0
	for {
		if _, ok := dates[day.Format(time.DateOnly)]; !ok {
			return count
		}
		count++
		day = day.AddDate(0, 0, -1)
	}
}

func completionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func startOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
