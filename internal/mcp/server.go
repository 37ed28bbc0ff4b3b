package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tracker/internal/apperr"
	"tracker/internal/completion"
	"tracker/internal/schedule"
	"tracker/internal/tasks"
)

// MCPServer exposes the tracker as Model Context Protocol tools.
type MCPServer struct {
	service *tasks.Service
	logger  *slog.Logger
	version string
}

// NewMCPServer creates a new MCP server instance.
func NewMCPServer(service *tasks.Service, logger *slog.Logger, version string) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPServer{service: service, logger: logger, version: version}
}

// Run serves the tools on stdio until stdin closes.
func (s *MCPServer) Run() error {
	s.logger.Info("MCP server starting on stdio")
	return server.ServeStdio(s.build())
}

func (s *MCPServer) build() *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"tracker",
		s.version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	return mcpServer
}

func dayOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("date",
			mcp.Description("Local date as YYYY-MM-DD, defaults to today"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA timezone name such as Europe/Berlin"),
		),
		mcp.WithNumber("timezone_offset",
			mcp.Description("Minutes to add to local time to get UTC, positive west of Greenwich"),
			mcp.Min(-840),
			mcp.Max(840),
		),
	}
}

func taskTool(name, description string, extra ...mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task ID"),
		),
	}
	return mcp.NewTool(name, append(opts, extra...)...)
}

// registerTools registers all available MCP tools.
func (s *MCPServer) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("tasks_today",
		append([]mcp.ToolOption{
			mcp.WithDescription("List the tasks due on a day with their completion status"),
			mcp.WithString("project_id",
				mcp.Description("Only list tasks of this project"),
			),
		}, dayOptions()...)...,
	), s.handleTasksToday)

	mcpServer.AddTool(taskTool("task_complete", "Mark a task as done for a day", dayOptions()...), s.handleComplete)

	mcpServer.AddTool(taskTool("task_uncomplete", "Undo the completion of a task for a day", dayOptions()...), s.handleUncomplete)

	mcpServer.AddTool(taskTool("task_stats", "Show the streak and completion rate of a task",
		mcp.WithNumber("days",
			mcp.Description("Window size in days, defaults to the server setting"),
			mcp.Min(1),
			mcp.Max(completion.MaxStatsWindow),
		),
	), s.handleStats)

	mcpServer.AddTool(taskTool("timer_status", "Show the countdown timer of a task. An expired timer completes the task.",
		append(dayOptions()[1:], mcp.WithString("action",
			mcp.Description("Optionally change the timer before reading it"),
			mcp.Enum("start", "pause", "stop"),
		))...,
	), s.handleTimerStatus)
}

func dayQuery(request mcp.CallToolRequest) schedule.DayQuery {
	q := schedule.DayQuery{
		Date: mcp.ParseString(request, "date", ""),
		Zone: mcp.ParseString(request, "timezone", ""),
	}
	if _, ok := request.GetArguments()["timezone_offset"]; ok {
		offset := int(mcp.ParseFloat64(request, "timezone_offset", 0))
		q.OffsetMinutes = &offset
	}
	return q
}

func (s *MCPServer) handleTasksToday(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.service.ListToday(ctx, dayQuery(request), mcp.ParseString(request, "project_id", ""))
	if err != nil {
		return s.toolError("tasks_today", err), nil
	}
	return s.jsonResult(map[string]any{"date": list.Date, "tasks": list.Tasks})
}

func (s *MCPServer) handleComplete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.service.Complete(ctx, mcp.ParseString(request, "task_id", ""), nil, dayQuery(request))
	if err != nil {
		return s.toolError("task_complete", err), nil
	}
	return s.jsonResult(view)
}

func (s *MCPServer) handleUncomplete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.service.Uncomplete(ctx, mcp.ParseString(request, "task_id", ""), dayQuery(request))
	if err != nil {
		return s.toolError("task_uncomplete", err), nil
	}
	return s.jsonResult(view)
}

func (s *MCPServer) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var days *int
	if d := int(mcp.ParseFloat64(request, "days", 0)); d > 0 {
		days = &d
	}
	stats, err := s.service.Stats(ctx, mcp.ParseString(request, "task_id", ""), days)
	if err != nil {
		return s.toolError("task_stats", err), nil
	}
	return s.jsonResult(stats)
}

func (s *MCPServer) handleTimerStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := mcp.ParseString(request, "task_id", "")

	var err error
	switch action := mcp.ParseString(request, "action", ""); action {
	case "":
	case "start":
		_, err = s.service.StartTimer(ctx, taskID)
	case "pause":
		_, err = s.service.PauseTimer(ctx, taskID)
	case "stop":
		_, err = s.service.StopTimer(ctx, taskID)
	default:
		err = apperr.Validation("unknown timer action %q", action)
	}
	if err != nil {
		return s.toolError("timer_status", err), nil
	}

	snap, err := s.service.TimerStatus(ctx, taskID, dayQuery(request))
	if err != nil {
		return s.toolError("timer_status", err), nil
	}
	return s.jsonResult(snap)
}

func (s *MCPServer) toolError(tool string, err error) *mcp.CallToolResult {
	if apperr.KindOf(err) == apperr.KindInternal {
		s.logger.Error("tool failed", slog.String("tool", tool), slog.String("error", err.Error()))
	}
	return mcp.NewToolResultError(apperr.Message(err))
}

func (s *MCPServer) jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
