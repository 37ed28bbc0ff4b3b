package schedule

import (
	"regexp"
	"time"

	"tracker/internal/apperr"
)

// DateLayout is the client-facing calendar date format.
const DateLayout = "2006-01-02"

const maxOffsetMinutes = 14 * 60

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var (
	ErrInvalidDateFormat = apperr.Validation("date must be in YYYY-MM-DD format")
	ErrInvalidOffset     = apperr.Validation("timezoneOffset must be between -840 and 840 minutes")
)

// DayQuery names one calendar day as the client sees it. OffsetMinutes follows
// the JavaScript getTimezoneOffset convention: minutes to add to local time to
// get UTC, positive west of Greenwich. Zone, when set, wins over OffsetMinutes.
type DayQuery struct {
	Date          string
	OffsetMinutes *int
	Zone          string
}

// DayRange is the half-open UTC interval [Start, End) covering one local day.
type DayRange struct {
	Date  string
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r DayRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// ResolveDayRange turns a client day into a UTC interval. When q.Date is empty
// the calendar date of now is used, so callers pass now in the server's zone.
// Unknown zone names fall back to UTC. Every path yields End = Start + 24h.
func ResolveDayRange(q DayQuery, now time.Time) (DayRange, error) {
	date := q.Date
	if date == "" {
		date = now.Format(DateLayout)
	}
	day, err := ParseDate(date)
	if err != nil {
		return DayRange{}, err
	}

	offset, err := offsetAtMidnight(q, day)
	if err != nil {
		return DayRange{}, err
	}
	start := day.Add(time.Duration(offset) * time.Minute)
	return DayRange{Date: date, Start: start, End: start.Add(24 * time.Hour)}, nil
}

// ParseDate parses YYYY-MM-DD as midnight UTC.
func ParseDate(value string) (time.Time, error) {
	if !datePattern.MatchString(value) {
		return time.Time{}, ErrInvalidDateFormat
	}
	day, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return day, nil
}

// LocalDate returns the calendar date of instant t as seen by the client.
func LocalDate(t time.Time, q DayQuery) string {
	return LocalTime(t, q).Format(DateLayout)
}

// LocalTime expresses t in the client's zone.
func LocalTime(t time.Time, q DayQuery) time.Time {
	return t.In(Location(q))
}

// Location returns the client's zone: the named zone when it loads, a fixed
// zone built from the offset otherwise, and UTC when nothing is given.
func Location(q DayQuery) *time.Location {
	if q.Zone != "" {
		if loc, err := time.LoadLocation(q.Zone); err == nil {
			return loc
		}
		return time.UTC
	}
	if q.OffsetMinutes != nil {
		return time.FixedZone("", -*q.OffsetMinutes*60)
	}
	return time.UTC
}

// offsetAtMidnight returns the JS-style offset in minutes in effect at local
// midnight of day.
func offsetAtMidnight(q DayQuery, day time.Time) (int, error) {
	if q.Zone != "" {
		loc, err := time.LoadLocation(q.Zone)
		if err != nil {
			return 0, nil
		}
		midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		_, seconds := midnight.Zone()
		return -seconds / 60, nil
	}
	if q.OffsetMinutes != nil {
		if *q.OffsetMinutes < -maxOffsetMinutes || *q.OffsetMinutes > maxOffsetMinutes {
			return 0, ErrInvalidOffset
		}
		return *q.OffsetMinutes, nil
	}
	return 0, nil
}
