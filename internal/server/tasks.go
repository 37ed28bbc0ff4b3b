package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tracker/internal/apperr"
	"tracker/internal/models"
	"tracker/internal/tasks"
)

type createTaskRequest struct {
	Text            string          `json:"text"`
	Frequency       json.RawMessage `json:"frequency"`
	DurationSeconds *int            `json:"durationSeconds"`
	ProjectID       *string         `json:"projectId"`
}

type updateTaskRequest struct {
	Text            *string         `json:"text"`
	Frequency       json.RawMessage `json:"frequency"`
	Completed       *bool           `json:"completed"`
	DurationSeconds *int            `json:"durationSeconds"`
	ProjectID       *string         `json:"projectId"`
}

type completeRequest struct {
	dayContext
	CompletedAt *time.Time `json:"completedAt"`
}

type dayRangeView struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func decodeFrequency(raw json.RawMessage) (models.Frequency, error) {
	f, err := models.DecodeFrequency(raw)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	return f, nil
}

// handleListTasks returns the tasks active on the requested day.
func (s *Server) handleListTasks(c *gin.Context) {
	day, err := queryDayContext(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	list, err := s.service.ListToday(c.Request.Context(), day.query(), c.Query("projectId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondDayList(c, list)
}

func respondDayList(c *gin.Context, list tasks.DayList) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    list.Tasks,
		"date":    list.Date,
		"range":   dayRangeView{Start: list.Range.Start, End: list.Range.End},
	})
}

// handleGetTask returns a single task with its status for the requested day.
func (s *Server) handleGetTask(c *gin.Context) {
	day, err := queryDayContext(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	view, err := s.service.Get(c.Request.Context(), c.Param("id"), day.query())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// handleCreateTask inserts a new one-time or recurring task.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	freq, err := decodeFrequency(req.Frequency)
	if err != nil {
		s.respondError(c, err)
		return
	}

	view, err := s.service.Create(c.Request.Context(), tasks.CreateInput{
		Text:            req.Text,
		Frequency:       freq,
		DurationSeconds: req.DurationSeconds,
		ProjectID:       req.ProjectID,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, view)
}

// handleUpdateTask applies a partial update. A frequency of null turns the
// task into a one-time task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	patch := tasks.Patch{
		Text:            req.Text,
		Completed:       req.Completed,
		DurationSeconds: req.DurationSeconds,
		ProjectID:       req.ProjectID,
	}
	if len(req.Frequency) > 0 {
		freq, err := decodeFrequency(req.Frequency)
		if err != nil {
			s.respondError(c, err)
			return
		}
		patch.SetFrequency = true
		patch.Frequency = freq
	}

	view, err := s.service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// handleDeleteTask removes a task and its history.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleCompleteTask marks the task done for the day of completedAt.
func (s *Server) handleCompleteTask(c *gin.Context) {
	var req completeRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	qs, err := queryDayContext(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	day := req.dayContext.merge(qs)

	view, err := s.service.Complete(c.Request.Context(), c.Param("id"), req.CompletedAt, day.query())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// handleUncompleteTask removes the completion of the requested day.
func (s *Server) handleUncompleteTask(c *gin.Context) {
	day, err := queryDayContext(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	view, err := s.service.Uncomplete(c.Request.Context(), c.Param("id"), day.query())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// handleTaskStats returns streak and completion rate over ?days.
func (s *Server) handleTaskStats(c *gin.Context) {
	days, err := queryInt(c, "days")
	if err != nil {
		s.respondError(c, err)
		return
	}
	stats, err := s.service.Stats(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}
