package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tracker/internal/apperr"
	"tracker/internal/tasks"
)

// Server provides HTTP handlers for the task tracker backend.
type Server struct {
	engine  *gin.Engine
	service *tasks.Service
	logger  *slog.Logger
}

// New constructs the HTTP server with routes and middleware configured.
func New(service *tasks.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))

	srv := &Server{
		engine:  router,
		service: service,
		logger:  logger,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		projects := api.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.PUT(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.GET(":id/tasks", s.handleListProjectTasks)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.GET("/completions/today", s.handleCompletionsToday)
			tasks.POST("/completions/today", s.handleCompletionsToday)
			tasks.GET("/completions/range", s.handleCompletionsRange)
			tasks.POST("/completions/range", s.handleCompletionsRange)
			tasks.POST("/reset-day", s.handleResetDay)

			tasks.GET("/:id", s.handleGetTask)
			tasks.PUT("/:id", s.handleUpdateTask)
			tasks.DELETE("/:id", s.handleDeleteTask)
			tasks.POST("/:id/complete", s.handleCompleteTask)
			tasks.DELETE("/:id/complete", s.handleUncompleteTask)
			tasks.GET("/:id/stats", s.handleTaskStats)

			tasks.POST("/:id/timer/start", s.handleTimerStart)
			tasks.POST("/:id/timer/pause", s.handleTimerPause)
			tasks.POST("/:id/timer/stop", s.handleTimerStop)
			tasks.GET("/:id/timer/status", s.handleTimerStatus)
		}
	}

	s.engine.NoRoute(func(c *gin.Context) {
		s.respondError(c, apperr.NotFound("endpoint not found"))
	})
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"status": "ok"})
}

// bindJSON decodes the request body. An empty body leaves req untouched.
func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid request body: %s", err.Error())
	}
	return nil
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindStateConflict, apperr.KindIntegrity:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the error and returns the failure envelope.
func (s *Server) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	attrs := []any{
		slog.String("path", c.Request.URL.Path),
		slog.String("request_id", c.GetString(requestIDKey)),
		slog.String("error", err.Error()),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Debug("request rejected", attrs...)
	}
	c.JSON(status, gin.H{"success": false, "error": kind, "message": apperr.Message(err)})
}

// respondSuccess wraps a payload in the success envelope.
func respondSuccess(c *gin.Context, status int, payload any) {
	c.JSON(status, gin.H{"success": true, "data": payload})
}
