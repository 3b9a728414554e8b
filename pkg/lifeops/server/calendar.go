package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/calendar/v3"

	"github.com/jr0d/lifeops/pkg/lifeops/google"
)

type calendarQuery struct {
	CalendarID string `form:"calendar_id,default=primary"`
}

type eventsQuery struct {
	CalendarID string `form:"calendar_id,default=primary"`
	TimeMin    string `form:"time_min"`
	TimeMax    string `form:"time_max"`
	MaxResults int64  `form:"max_results,default=100"`
}

func (s *LifeOpsServer) calendar(c *gin.Context) (*calendar.Service, bool) {
	svc, err := s.Google.Calendar(c.Request.Context(), credentialFrom(c).TokenSource())
	if err != nil {
		s.downstreamError(c, err)
		return nil, false
	}
	return svc, true
}

func (s *LifeOpsServer) ListEvents(c *gin.Context) {
	var q eventsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.calendar(c)
	if !ok {
		return
	}
	call := svc.Events.List(q.CalendarID).
		MaxResults(q.MaxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(c.Request.Context())
	if q.TimeMin != "" {
		call = call.TimeMin(q.TimeMin)
	}
	if q.TimeMax != "" {
		call = call.TimeMax(q.TimeMax)
	}
	events, err := call.Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	items := events.Items
	if items == nil {
		items = []*calendar.Event{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *LifeOpsServer) CreateEvent(c *gin.Context) {
	var q calendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	var body google.CalendarEventCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.calendar(c)
	if !ok {
		return
	}
	event, err := svc.Events.Insert(q.CalendarID, body.Event()).Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *LifeOpsServer) UpdateEvent(c *gin.Context) {
	var q calendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	var body google.CalendarEventUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.calendar(c)
	if !ok {
		return
	}
	event, err := svc.Events.Patch(q.CalendarID, c.Param("event_id"), body.Event()).Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *LifeOpsServer) DeleteEvent(c *gin.Context) {
	var q calendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.calendar(c)
	if !ok {
		return
	}
	if err := svc.Events.Delete(q.CalendarID, c.Param("event_id")).Context(c.Request.Context()).Do(); err != nil {
		s.downstreamError(c, err)
		return
	}
	deleted(c)
}
