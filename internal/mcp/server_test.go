package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/models"
	"tracker/internal/storage/memstore"
	"tracker/internal/tasks"
)

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T) (*MCPServer, *tasks.Service) {
	t.Helper()
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := tasks.New(memstore.New(clock), tasks.Options{Logger: logger, Now: clock, Location: time.UTC})
	return NewMCPServer(service, logger, "test"), service
}

func call(t *testing.T, h handler, args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestTools(t *testing.T) {
	ctx := context.Background()
	s, service := newTestServer(t)
	require.NotNil(t, s.build())

	daily, err := service.Create(ctx, tasks.CreateInput{Text: "Meditate", Frequency: models.Daily{}})
	require.NoError(t, err)
	secs := 60
	timed, err := service.Create(ctx, tasks.CreateInput{Text: "Plank", DurationSeconds: &secs})
	require.NoError(t, err)

	t.Run("tasks_today", func(t *testing.T) {
		out, isErr := call(t, s.handleTasksToday, map[string]any{"timezone_offset": float64(0)})
		require.False(t, isErr, out)
		var got struct {
			Date  string       `json:"date"`
			Tasks []tasks.View `json:"tasks"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "2025-01-15", got.Date)
		assert.Len(t, got.Tasks, 2)
	})

	t.Run("complete then uncomplete", func(t *testing.T) {
		out, isErr := call(t, s.handleComplete, map[string]any{"task_id": daily.ID})
		require.False(t, isErr, out)
		assert.Contains(t, out, `"completedToday": true`)

		out, isErr = call(t, s.handleUncomplete, map[string]any{"task_id": daily.ID})
		require.False(t, isErr, out)
		assert.Contains(t, out, `"completedToday": false`)

		out, isErr = call(t, s.handleUncomplete, map[string]any{"task_id": daily.ID})
		assert.True(t, isErr)
		assert.Equal(t, tasks.ErrNothingToUndo.Message, out)
	})

	t.Run("stats", func(t *testing.T) {
		out, isErr := call(t, s.handleStats, map[string]any{"task_id": daily.ID, "days": float64(7)})
		require.False(t, isErr, out)
		assert.Contains(t, out, `"totalDays": 7`)

		out, isErr = call(t, s.handleStats, map[string]any{"task_id": "missing"})
		assert.True(t, isErr)
		assert.Equal(t, "task not found", out)
	})

	t.Run("timer_status", func(t *testing.T) {
		out, isErr := call(t, s.handleTimerStatus, map[string]any{"task_id": timed.ID, "action": "start"})
		require.False(t, isErr, out)
		assert.Contains(t, out, `"status": "running"`)
		assert.Contains(t, out, `"remainingSeconds": 60`)

		out, isErr = call(t, s.handleTimerStatus, map[string]any{"task_id": daily.ID, "action": "start"})
		assert.True(t, isErr)
		assert.NotEmpty(t, out)

		out, isErr = call(t, s.handleTimerStatus, map[string]any{"task_id": timed.ID, "action": "rewind"})
		assert.True(t, isErr)
		assert.Contains(t, out, "rewind")
	})
}
