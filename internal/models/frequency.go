package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FrequencyType names a recurrence rule.
type FrequencyType string

const (
	FrequencyDaily         FrequencyType = "daily"
	FrequencySpecificDays  FrequencyType = "specific_days"
	FrequencyTimesPerWeek  FrequencyType = "times_per_week"
	FrequencyTimesPerMonth FrequencyType = "times_per_month"
)

// Frequency is the recurrence rule of a recurring task. The concrete types are
// Daily, SpecificDays, TimesPerWeek, TimesPerMonth and UnknownFrequency.
type Frequency interface {
	Type() FrequencyType
	// TimeHint is the optional HH:MM local time used for reminders.
	TimeHint() string
	isFrequency()
}

// Daily recurs every day.
type Daily struct {
	Time string
}

// SpecificDays recurs on the listed weekdays.
type SpecificDays struct {
	Days []time.Weekday
	Time string
}

// TimesPerWeek asks for Count completions per week.
type TimesPerWeek struct {
	Count int
	Time  string
}

// TimesPerMonth asks for Count completions per month.
type TimesPerMonth struct {
	Count int
	Time  string
}

// UnknownFrequency keeps a stored rule whose type this build does not know.
type UnknownFrequency struct {
	Kind string
	Data json.RawMessage
	Time string
}

func (Daily) Type() FrequencyType              { return FrequencyDaily }
func (SpecificDays) Type() FrequencyType       { return FrequencySpecificDays }
func (TimesPerWeek) Type() FrequencyType       { return FrequencyTimesPerWeek }
func (TimesPerMonth) Type() FrequencyType      { return FrequencyTimesPerMonth }
func (f UnknownFrequency) Type() FrequencyType { return FrequencyType(f.Kind) }

func (f Daily) TimeHint() string            { return f.Time }
func (f SpecificDays) TimeHint() string     { return f.Time }
func (f TimesPerWeek) TimeHint() string     { return f.Time }
func (f TimesPerMonth) TimeHint() string    { return f.Time }
func (f UnknownFrequency) TimeHint() string { return f.Time }

func (Daily) isFrequency()            {}
func (SpecificDays) isFrequency()     {}
func (TimesPerWeek) isFrequency()     {}
func (TimesPerMonth) isFrequency()    {}
func (UnknownFrequency) isFrequency() {}

// Has reports whether day is one of the configured weekdays.
func (f SpecificDays) Has(day time.Weekday) bool {
	for _, d := range f.Days {
		if d == day {
			return true
		}
	}
	return false
}

type frequencyJSON struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	Time string          `json:"time,omitempty"`
}

type frequencyData struct {
	Days  []Weekday `json:"days,omitempty"`
	Count *int      `json:"count,omitempty"`
}

// EncodeFrequency renders f as {type, data, time}. A nil frequency encodes as null.
func EncodeFrequency(f Frequency) ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	out := frequencyJSON{Type: string(f.Type()), Time: f.TimeHint()}
	var data frequencyData
	switch v := f.(type) {
	case Daily:
	case SpecificDays:
		data.Days = make([]Weekday, 0, len(v.Days))
		for _, d := range v.Days {
			data.Days = append(data.Days, Weekday(d))
		}
	case TimesPerWeek:
		data.Count = &v.Count
	case TimesPerMonth:
		data.Count = &v.Count
	case UnknownFrequency:
		out.Data = v.Data
	}
	if out.Data == nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode frequency data: %w", err)
		}
		out.Data = raw
	}
	return json.Marshal(out)
}

// DecodeFrequency parses the {type, data, time} form. Empty input and null
// decode to a nil frequency. Unrecognized types decode to UnknownFrequency so
// stored rows written by other versions stay readable.
func DecodeFrequency(raw []byte) (Frequency, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var in frequencyJSON
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return nil, fmt.Errorf("invalid frequency: %w", err)
	}
	var data frequencyData
	if len(in.Data) > 0 && !bytes.Equal(in.Data, []byte("null")) {
		if err := json.Unmarshal(in.Data, &data); err != nil && isKnownType(in.Type) {
			return nil, fmt.Errorf("invalid frequency data: %w", err)
		}
	}

	switch FrequencyType(in.Type) {
	case FrequencyDaily:
		return Daily{Time: in.Time}, nil
	case FrequencySpecificDays:
		days := make([]time.Weekday, 0, len(data.Days))
		for _, d := range data.Days {
			days = append(days, time.Weekday(d))
		}
		return SpecificDays{Days: days, Time: in.Time}, nil
	case FrequencyTimesPerWeek:
		return TimesPerWeek{Count: derefInt(data.Count), Time: in.Time}, nil
	case FrequencyTimesPerMonth:
		return TimesPerMonth{Count: derefInt(data.Count), Time: in.Time}, nil
	default:
		return UnknownFrequency{Kind: in.Type, Data: in.Data, Time: in.Time}, nil
	}
}

func isKnownType(t string) bool {
	switch FrequencyType(t) {
	case FrequencyDaily, FrequencySpecificDays, FrequencyTimesPerWeek, FrequencyTimesPerMonth:
		return true
	}
	return false
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// Weekday is a time.Weekday that encodes as a lowercase English name and
// decodes from a name, a three letter abbreviation, or 0..6 with Sunday=0.
type Weekday time.Weekday

var weekdayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func (d Weekday) MarshalJSON() ([]byte, error) {
	if d < 0 || int(d) >= len(weekdayNames) {
		return nil, fmt.Errorf("weekday out of range: %d", int(d))
	}
	return json.Marshal(weekdayNames[d])
}

func (d *Weekday) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		parsed, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		*d = Weekday(parsed)
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("weekday must be a name or a number: %s", string(raw))
	}
	if n < 0 || n > 6 {
		return fmt.Errorf("weekday out of range: %d", n)
	}
	*d = Weekday(n)
	return nil
}

// ParseWeekday accepts "monday", "Mon", or "1".
func ParseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday out of range: %d", n)
		}
		return time.Weekday(n), nil
	}
	for i, name := range weekdayNames {
		if v == name || (len(v) == 3 && strings.HasPrefix(name, v)) {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", value)
}
