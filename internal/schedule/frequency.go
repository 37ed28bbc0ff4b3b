package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"tracker/internal/apperr"
	"tracker/internal/models"
)

var hintParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// IsActiveOnDate reports whether a task with frequency f should be shown and
// completable on date. One-time tasks, daily tasks, quota based rules and
// unknown rules are always active; quotas are not checked against history.
func IsActiveOnDate(f models.Frequency, date time.Time) bool {
	switch v := f.(type) {
	case nil:
		return true
	case models.Daily:
		return true
	case models.SpecificDays:
		return v.Has(date.Weekday())
	case models.TimesPerWeek, models.TimesPerMonth:
		return true
	default:
		return true
	}
}

// ValidateFrequency checks the parameters of a frequency supplied by a client.
func ValidateFrequency(f models.Frequency) error {
	if f == nil {
		return nil
	}
	switch v := f.(type) {
	case models.Daily:
	case models.SpecificDays:
		if len(v.Days) == 0 {
			return apperr.Validation("specific_days frequency requires at least one day")
		}
	case models.TimesPerWeek:
		if v.Count < 1 || v.Count > 7 {
			return apperr.Validation("times_per_week count must be between 1 and 7")
		}
	case models.TimesPerMonth:
		if v.Count < 1 || v.Count > 31 {
			return apperr.Validation("times_per_month count must be between 1 and 31")
		}
	default:
		return apperr.Validation("unknown frequency type %q", string(f.Type()))
	}
	if hint := f.TimeHint(); hint != "" {
		if _, _, err := parseHint(hint); err != nil {
			return apperr.Validation("%s", err.Error())
		}
	}
	return nil
}

// NextReminder returns the first instant strictly after `after` at which the
// frequency's time hint fires, evaluated in after's location. It returns nil
// for one-time tasks and for frequencies without a hint.
func NextReminder(f models.Frequency, after time.Time) *time.Time {
	if f == nil || f.TimeHint() == "" {
		return nil
	}
	expr, err := reminderExpr(f)
	if err != nil {
		return nil
	}
	sched, err := hintParser.Parse(expr)
	if err != nil {
		return nil
	}
	next := sched.Next(after)
	if next.IsZero() {
		return nil
	}
	next = next.UTC()
	return &next
}

func reminderExpr(f models.Frequency) (string, error) {
	hour, minute, err := parseHint(f.TimeHint())
	if err != nil {
		return "", err
	}
	dow := "*"
	if v, ok := f.(models.SpecificDays); ok {
		if len(v.Days) == 0 {
			return "", fmt.Errorf("no days configured")
		}
		days := make([]int, 0, len(v.Days))
		for _, d := range v.Days {
			days = append(days, int(d))
		}
		sort.Ints(days)
		parts := make([]string, 0, len(days))
		for _, d := range days {
			parts = append(parts, strconv.Itoa(d))
		}
		dow = strings.Join(parts, ",")
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, dow), nil
}

func parseHint(hint string) (int, int, error) {
	parts := strings.Split(hint, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", hint)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", hint)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", hint)
	}
	return hour, minute, nil
}
