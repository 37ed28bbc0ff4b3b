package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tracker/internal/apperr"
	"tracker/internal/schedule"
)

// dayContext is the date and timezone a client sends with day-scoped
// requests, either in the query string or in a JSON body.
type dayContext struct {
	Date           string `json:"date"`
	TimezoneOffset *int   `json:"timezoneOffset"`
	Timezone       string `json:"timezone"`
}

func (d dayContext) query() schedule.DayQuery {
	return schedule.DayQuery{
		Date:          strings.TrimSpace(d.Date),
		OffsetMinutes: d.TimezoneOffset,
		Zone:          strings.TrimSpace(d.Timezone),
	}
}

// queryDayContext reads date, timezoneOffset and timezone from the URL.
func queryDayContext(c *gin.Context) (dayContext, error) {
	d := dayContext{Date: c.Query("date"), Timezone: c.Query("timezone")}
	if raw := c.Query("timezoneOffset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return dayContext{}, apperr.Validation("timezoneOffset must be an integer")
		}
		d.TimezoneOffset = &offset
	}
	return d, nil
}

// merge fills the empty fields of d from other.
func (d dayContext) merge(other dayContext) dayContext {
	if d.Date == "" {
		d.Date = other.Date
	}
	if d.TimezoneOffset == nil {
		d.TimezoneOffset = other.TimezoneOffset
	}
	if d.Timezone == "" {
		d.Timezone = other.Timezone
	}
	return d
}

func queryInt(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be an integer", name)
	}
	return &v, nil
}
