package google

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestCalendarEventCreate_Event(t *testing.T) {
	in := &CalendarEventCreate{
		Summary: "dentist",
		Start:   &EventDateTime{DateTime: "2025-01-01T10:00:00+01:00", TimeZone: "Europe/Berlin"},
		End:     &EventDateTime{Date: "2025-01-02"},
	}
	body := marshal(t, in.Event())
	assert.Equal(t, "dentist", body["summary"])
	assert.Equal(t, map[string]interface{}{"dateTime": "2025-01-01T10:00:00+01:00", "timeZone": "Europe/Berlin"}, body["start"])
	assert.Equal(t, map[string]interface{}{"date": "2025-01-02"}, body["end"])
}

func TestCalendarEventUpdate_OnlySetFields(t *testing.T) {
	summary := "moved"
	body := marshal(t, (&CalendarEventUpdate{Summary: &summary}).Event())
	assert.Equal(t, map[string]interface{}{"summary": "moved"}, body)

	empty := ""
	body = marshal(t, (&CalendarEventUpdate{Summary: &empty}).Event())
	assert.Equal(t, map[string]interface{}{"summary": ""}, body)

	body = marshal(t, (&CalendarEventUpdate{End: &EventDateTime{Date: "2025-01-03"}}).Event())
	assert.NotContains(t, body, "summary")
	assert.Contains(t, body, "end")
}

func TestTaskUpdate_Task(t *testing.T) {
	status, completed, notes := TaskCompleted, "2025-01-01T00:00:00Z", ""
	body := marshal(t, (&TaskUpdate{Status: &status, Completed: &completed, Notes: &notes}).Task())
	assert.Equal(t, map[string]interface{}{
		"status":    "completed",
		"completed": "2025-01-01T00:00:00Z",
		"notes":     "",
	}, body)
}

func TestErrorMessage_PlainError(t *testing.T) {
	assert.Equal(t, "boom", ErrorMessage(errors.New("boom")))
}
