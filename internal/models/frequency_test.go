package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrequency(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Frequency
	}{
		{"null", `null`, nil},
		{"empty", ``, nil},
		{"daily", `{"type":"daily","data":{}}`, Daily{}},
		{"daily with time", `{"type":"daily","time":"06:45"}`, Daily{Time: "06:45"}},
		{"days by name", `{"type":"specific_days","data":{"days":["monday","Fri"]}}`, SpecificDays{Days: []time.Weekday{time.Monday, time.Friday}}},
		{"days by number", `{"type":"specific_days","data":{"days":[0,6]}}`, SpecificDays{Days: []time.Weekday{time.Sunday, time.Saturday}}},
		{"weekly", `{"type":"times_per_week","data":{"count":3}}`, TimesPerWeek{Count: 3}},
		{"monthly", `{"type":"times_per_month","data":{"count":10},"time":"20:00"}`, TimesPerMonth{Count: 10, Time: "20:00"}},
		{"unknown", `{"type":"fortnightly","data":{"anchor":"2025-01-01"}}`, UnknownFrequency{Kind: "fortnightly", Data: json.RawMessage(`{"anchor":"2025-01-01"}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFrequency([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFrequencyErrors(t *testing.T) {
	for _, in := range []string{
		`{"type":`,
		`{"type":"specific_days","data":{"days":["someday"]}}`,
		`{"type":"specific_days","data":{"days":[7]}}`,
		`{"type":"times_per_week","data":{"count":"three"}}`,
	} {
		_, err := DecodeFrequency([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestEncodeFrequency(t *testing.T) {
	raw, err := EncodeFrequency(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	raw, err = EncodeFrequency(SpecificDays{Days: []time.Weekday{time.Tuesday, time.Sunday}, Time: "08:00"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"specific_days","data":{"days":["tuesday","sunday"]},"time":"08:00"}`, string(raw))

	raw, err = EncodeFrequency(TimesPerWeek{Count: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"times_per_week","data":{"count":2}}`, string(raw))

	raw, err = EncodeFrequency(Daily{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"daily","data":{}}`, string(raw))

	unknown := UnknownFrequency{Kind: "fortnightly", Data: json.RawMessage(`{"anchor":"x"}`)}
	raw, err = EncodeFrequency(unknown)
	require.NoError(t, err)
	back, err := DecodeFrequency(raw)
	require.NoError(t, err)
	assert.Equal(t, unknown, back)
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{
		"sunday": time.Sunday,
		"Mon":    time.Monday,
		" WED ":  time.Wednesday,
		"6":      time.Saturday,
	} {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "mo", "7", "-1", "caturday"} {
		_, err := ParseWeekday(in)
		assert.Error(t, err, in)
	}
}

func TestTaskHelpers(t *testing.T) {
	assert.False(t, Task{}.Recurring())
	assert.True(t, Task{Frequency: Daily{}}.Recurring())

	assert.False(t, Task{}.HasActiveTimer())
	assert.False(t, Task{TimerStatus: TimerNotStarted}.HasActiveTimer())
	assert.True(t, Task{TimerStatus: TimerPaused}.HasActiveTimer())
	assert.True(t, Task{TimerStatus: TimerCompleted}.HasActiveTimer())

	assert.True(t, TimerRunning.Valid())
	assert.False(t, TimerStatus("ticking").Valid())
}
