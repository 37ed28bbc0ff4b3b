package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type rangeRequest struct {
	dayContext
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// requestDayContext merges the JSON body of POST requests with the query
// string; body fields win.
func requestDayContext(c *gin.Context, body *dayContext) (dayContext, error) {
	qs, err := queryDayContext(c)
	if err != nil {
		return dayContext{}, err
	}
	if body == nil {
		return qs, nil
	}
	return body.merge(qs), nil
}

// handleCompletionsToday lists every completion of the requested day.
func (s *Server) handleCompletionsToday(c *gin.Context) {
	var body dayContext
	if c.Request.Method == http.MethodPost {
		if err := bindJSON(c, &body); err != nil {
			s.respondError(c, err)
			return
		}
	}
	day, err := requestDayContext(c, &body)
	if err != nil {
		s.respondError(c, err)
		return
	}

	events, span, err := s.service.CompletionsToday(c.Request.Context(), day.query())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
		"date":    span.Date,
		"range":   dayRangeView{Start: span.Start, End: span.End},
	})
}

// handleCompletionsRange lists completions between two local dates inclusive.
func (s *Server) handleCompletionsRange(c *gin.Context) {
	var body rangeRequest
	if c.Request.Method == http.MethodPost {
		if err := bindJSON(c, &body); err != nil {
			s.respondError(c, err)
			return
		}
	}
	if body.StartDate == "" {
		body.StartDate = c.Query("startDate")
	}
	if body.EndDate == "" {
		body.EndDate = c.Query("endDate")
	}
	day, err := requestDayContext(c, &body.dayContext)
	if err != nil {
		s.respondError(c, err)
		return
	}

	events, span, err := s.service.CompletionsRange(c.Request.Context(), body.StartDate, body.EndDate, day.query())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
		"range":   dayRangeView{Start: span.Start, End: span.End},
	})
}

// handleResetDay clears the completions of one day across all tasks.
func (s *Server) handleResetDay(c *gin.Context) {
	var body dayContext
	if err := bindJSON(c, &body); err != nil {
		s.respondError(c, err)
		return
	}
	day, err := requestDayContext(c, &body)
	if err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.service.ResetDay(c.Request.Context(), day.query())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}
