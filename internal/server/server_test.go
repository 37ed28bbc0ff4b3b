package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/storage/memstore"
	"tracker/internal/tasks"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Date    string          `json:"date"`
	Range   *dayRangeView   `json:"range"`
}

type testServer struct {
	t   *testing.T
	now time.Time
	srv *Server
}

// 2025-01-15 is a Wednesday.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{t: t, now: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return ts.now }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := tasks.New(memstore.New(clock), tasks.Options{Logger: logger, Now: clock, Location: time.UTC})
	ts.srv = New(service, logger)
	return ts
}

func (ts *testServer) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(rec, req)

	var env envelope
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type taskJSON struct {
	ID              string          `json:"id"`
	Text            string          `json:"text"`
	Frequency       json.RawMessage `json:"frequency"`
	Completed       bool            `json:"completed"`
	CompletedToday  bool            `json:"completedToday"`
	DurationSeconds *int            `json:"durationSeconds"`
	TimerStatus     string          `json:"timerStatus"`
	ProjectID       *string         `json:"projectId"`
}

func (ts *testServer) createTask(body map[string]any) taskJSON {
	ts.t.Helper()
	rec, env := ts.do(http.MethodPost, "/api/tasks", body)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[taskJSON](ts.t, env.Data)
}

func TestHealthAndRequestID(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, rec.Body.String())

	rec, env := ts.do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)

	daily := ts.createTask(map[string]any{"text": "Meditate", "frequency": map[string]any{"type": "daily"}})
	oneTime := ts.createTask(map[string]any{"text": "Pay rent"})
	assert.JSONEq(t, "null", string(oneTime.Frequency))
	ts.createTask(map[string]any{
		"text":      "Hike",
		"frequency": map[string]any{"type": "specific_days", "data": map[string]any{"days": []string{"sat"}}},
	})

	t.Run("list today", func(t *testing.T) {
		rec, env := ts.do(http.MethodGet, "/api/tasks", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2025-01-15", env.Date)
		require.NotNil(t, env.Range)
		assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), env.Range.Start)
		assert.Len(t, decode[[]taskJSON](t, env.Data), 2)

		_, env = ts.do(http.MethodGet, "/api/tasks?date=2025-01-18&timezoneOffset=0", nil)
		assert.Len(t, decode[[]taskJSON](t, env.Data), 3)
	})

	t.Run("complete and undo", func(t *testing.T) {
		rec, env := ts.do(http.MethodPost, "/api/tasks/"+daily.ID+"/complete", map[string]any{})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, decode[taskJSON](t, env.Data).CompletedToday)

		_, env = ts.do(http.MethodGet, "/api/tasks/completions/today", nil)
		assert.Len(t, decode[[]json.RawMessage](t, env.Data), 1)

		rec, env = ts.do(http.MethodDelete, "/api/tasks/"+daily.ID+"/complete", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decode[taskJSON](t, env.Data).CompletedToday)

		rec, env = ts.do(http.MethodDelete, "/api/tasks/"+daily.ID+"/complete", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", env.Error)
		assert.NotEmpty(t, env.Message)
	})

	t.Run("complete at an explicit instant", func(t *testing.T) {
		rec, _ := ts.do(http.MethodPost, "/api/tasks/"+daily.ID+"/complete", map[string]any{
			"completedAt":    "2025-01-14T20:00:00Z",
			"timezoneOffset": 0,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec, env := ts.do(http.MethodPost, "/api/tasks/completions/range", map[string]any{
			"startDate": "2025-01-14",
			"endDate":   "2025-01-14",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, decode[[]json.RawMessage](t, env.Data), 1)

		rec, env = ts.do(http.MethodGet, "/api/tasks/completions/range?startDate=2025-01-15&endDate=2025-01-14", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", env.Error)
	})

	t.Run("update", func(t *testing.T) {
		rec, env := ts.do(http.MethodPut, "/api/tasks/"+daily.ID, map[string]any{"text": "Meditate 10m", "frequency": nil})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[taskJSON](t, env.Data)
		assert.Equal(t, "Meditate 10m", got.Text)
		assert.JSONEq(t, "null", string(got.Frequency))

		rec, env = ts.do(http.MethodPut, "/api/tasks/"+oneTime.ID, map[string]any{"completed": true})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[taskJSON](t, env.Data).Completed)
	})

	t.Run("stats", func(t *testing.T) {
		rec, env := ts.do(http.MethodGet, "/api/tasks/"+daily.ID+"/stats?days=7", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"totalDays":7,"completedDays":1,"completionRate":14,"streak":1}`, string(env.Data))

		rec, _ = ts.do(http.MethodGet, "/api/tasks/"+daily.ID+"/stats?days=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reset day", func(t *testing.T) {
		rec, env := ts.do(http.MethodPost, "/api/tasks/reset-day", map[string]any{"date": "2025-01-14"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"date":"2025-01-14","reset":1}`, string(env.Data))
	})

	t.Run("delete", func(t *testing.T) {
		rec, _ := ts.do(http.MethodDelete, "/api/tasks/"+daily.ID, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		rec, env := ts.do(http.MethodGet, "/api/tasks/"+daily.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "task not found", env.Message)
	})
}

func TestValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	daily := ts.createTask(map[string]any{"text": "Meditate", "frequency": map[string]any{"type": "daily"}})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"empty text", http.MethodPost, "/api/tasks", map[string]any{"text": ""}},
		{"no days", http.MethodPost, "/api/tasks", map[string]any{"text": "x", "frequency": map[string]any{"type": "specific_days", "data": map[string]any{"days": []string{}}}}},
		{"unknown frequency", http.MethodPost, "/api/tasks", map[string]any{"text": "x", "frequency": map[string]any{"type": "hourly"}}},
		{"bad weekday", http.MethodPost, "/api/tasks", map[string]any{"text": "x", "frequency": map[string]any{"type": "specific_days", "data": map[string]any{"days": []string{"funday"}}}}},
		{"malformed body", http.MethodPost, "/api/tasks", "not an object"},
		{"bad date", http.MethodGet, "/api/tasks?date=2025-1-5", nil},
		{"bad offset", http.MethodGet, "/api/tasks?timezoneOffset=abc", nil},
		{"offset out of range", http.MethodGet, "/api/tasks?timezoneOffset=2000", nil},
		{"stats window above a year", http.MethodGet, "/api/tasks/" + daily.ID + "/stats?days=367", nil},
		{"completedAt outside date", http.MethodPost, "/api/tasks/" + daily.ID + "/complete", map[string]any{"date": "2025-01-14", "completedAt": "2025-01-15T12:00:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, "validation_error", env.Error)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestTimerEndpoints(t *testing.T) {
	ts := newTestServer(t)
	plain := ts.createTask(map[string]any{"text": "No timer"})
	timed := ts.createTask(map[string]any{"text": "Meditate", "durationSeconds": 300})

	rec, env := ts.do(http.MethodPost, "/api/tasks/"+plain.ID+"/timer/start", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "state_conflict", env.Error)

	rec, env = ts.do(http.MethodPost, "/api/tasks/"+timed.ID+"/timer/pause", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "state_conflict", env.Error)

	rec, env = ts.do(http.MethodPost, "/api/tasks/"+timed.ID+"/timer/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", decode[taskJSON](t, env.Data).TimerStatus)

	ts.now = ts.now.Add(120 * time.Second)
	rec, env = ts.do(http.MethodGet, "/api/tasks/"+timed.ID+"/timer/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"status": "running",
		"durationSeconds": 300,
		"startedAt": "2025-01-15T12:00:00Z",
		"elapsedSeconds": 120,
		"remainingSeconds": 180,
		"isExpired": false,
		"autoCompleted": false
	}`, string(env.Data))

	ts.now = ts.now.Add(200 * time.Second)
	_, env = ts.do(http.MethodGet, "/api/tasks/"+timed.ID+"/timer/status", nil)
	snap := decode[map[string]any](t, env.Data)
	assert.Equal(t, true, snap["autoCompleted"])
	assert.Equal(t, "completed", snap["status"])

	_, env = ts.do(http.MethodGet, "/api/tasks/"+timed.ID, nil)
	got := decode[taskJSON](t, env.Data)
	assert.True(t, got.Completed)
	assert.Equal(t, "completed", got.TimerStatus)

	rec, env = ts.do(http.MethodPost, "/api/tasks/"+timed.ID+"/timer/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_started", decode[taskJSON](t, env.Data).TimerStatus)
}

func TestProjectEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(http.MethodPost, "/api/projects", map[string]any{"name": "Home", "color": "#123456"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode[map[string]any](t, env.Data)
	id := project["id"].(string)

	rec, env = ts.do(http.MethodPost, "/api/projects", map[string]any{"name": "Home"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error)

	rec, _ = ts.do(http.MethodPut, "/api/projects/"+id, map[string]any{"name": "House", "color": "#654321"})
	assert.Equal(t, http.StatusOK, rec.Code)

	task := ts.createTask(map[string]any{"text": "Fix sink", "projectId": id})
	ts.createTask(map[string]any{"text": "Elsewhere"})

	rec, env = ts.do(http.MethodGet, "/api/projects/"+id+"/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]taskJSON](t, env.Data)
	require.Len(t, listed, 1)
	assert.Equal(t, task.ID, listed[0].ID)

	rec, env = ts.do(http.MethodDelete, "/api/projects/"+id, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "integrity_error", env.Error)

	ts.do(http.MethodDelete, "/api/tasks/"+task.ID, nil)
	rec, _ = ts.do(http.MethodDelete, "/api/projects/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, env = ts.do(http.MethodGet, "/api/projects", nil)
	assert.JSONEq(t, "[]", string(env.Data))

	rec, _ = ts.do(http.MethodGet, "/api/projects/"+id+"/tasks", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
