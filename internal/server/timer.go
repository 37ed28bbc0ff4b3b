package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tracker/internal/tasks"
)

// handleTimerStart starts or resumes the countdown.
func (s *Server) handleTimerStart(c *gin.Context) {
	s.timerAction(c, s.service.StartTimer)
}

// handleTimerPause pauses a running countdown.
func (s *Server) handleTimerPause(c *gin.Context) {
	s.timerAction(c, s.service.PauseTimer)
}

// handleTimerStop resets the countdown.
func (s *Server) handleTimerStop(c *gin.Context) {
	s.timerAction(c, s.service.StopTimer)
}

func (s *Server) timerAction(c *gin.Context, action func(context.Context, string) (tasks.View, error)) {
	view, err := action(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// handleTimerStatus returns the countdown snapshot. Polling it is what
// completes expired timers.
func (s *Server) handleTimerStatus(c *gin.Context) {
	day, err := queryDayContext(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	snap, err := s.service.TimerStatus(c.Request.Context(), c.Param("id"), day.query())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, snap)
}
