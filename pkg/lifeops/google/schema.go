package google

import (
	"errors"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/tasks/v1"
)

const (
	TaskNeedsAction = "needsAction"
	TaskCompleted   = "completed"
)

// EventDateTime is either an all-day {"date": "YYYY-MM-DD"} or a timed
// {"dateTime": "...", "timeZone": "..."} value.
type EventDateTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

func (d *EventDateTime) toAPI() *calendar.EventDateTime {
	if d == nil {
		return nil
	}
	return &calendar.EventDateTime{Date: d.Date, DateTime: d.DateTime, TimeZone: d.TimeZone}
}

type CalendarEventCreate struct {
	Summary string         `json:"summary" binding:"required"`
	Start   *EventDateTime `json:"start" binding:"required"`
	End     *EventDateTime `json:"end" binding:"required"`
}

func (e *CalendarEventCreate) Event() *calendar.Event {
	return &calendar.Event{Summary: e.Summary, Start: e.Start.toAPI(), End: e.End.toAPI()}
}

type CalendarEventUpdate struct {
	Summary *string        `json:"summary"`
	Start   *EventDateTime `json:"start"`
	End     *EventDateTime `json:"end"`
}

func (e *CalendarEventUpdate) Event() *calendar.Event {
	ev := &calendar.Event{Start: e.Start.toAPI(), End: e.End.toAPI()}
	if e.Summary != nil {
		ev.Summary = *e.Summary
		if ev.Summary == "" {
			ev.ForceSendFields = append(ev.ForceSendFields, "Summary")
		}
	}
	return ev
}

type TaskCreate struct {
	Title string `json:"title" binding:"required"`
	Notes string `json:"notes"`
	// Due is an RFC 3339 timestamp.
	Due string `json:"due"`
}

func (t *TaskCreate) Task() *tasks.Task {
	return &tasks.Task{Title: t.Title, Notes: t.Notes, Due: t.Due}
}

type TaskUpdate struct {
	Title     *string `json:"title"`
	Notes     *string `json:"notes"`
	Due       *string `json:"due"`
	Status    *string `json:"status" binding:"omitempty,oneof=needsAction completed"`
	Completed *string `json:"completed"`
}

func (t *TaskUpdate) Task() *tasks.Task {
	task := &tasks.Task{Completed: t.Completed}
	set := func(dst *string, src *string, field string) {
		if src == nil {
			return
		}
		*dst = *src
		if *src == "" {
			task.ForceSendFields = append(task.ForceSendFields, field)
		}
	}
	set(&task.Title, t.Title, "Title")
	set(&task.Notes, t.Notes, "Notes")
	set(&task.Due, t.Due, "Due")
	set(&task.Status, t.Status, "Status")
	return task
}

// ErrorMessage extracts the provider's message from a Google API error.
func ErrorMessage(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return gerr.Message
	}
	return err.Error()
}
