package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifeOpsServer_APIRequiresCredential(t *testing.T) {
	e := newTestEnv(t)

	routes := []struct{ method, target, body string }{
		{http.MethodGet, "/api/calendar/events", ""},
		{http.MethodPost, "/api/calendar/events", `{"summary":"x","start":{"date":"2025-01-01"},"end":{"date":"2025-01-02"}}`},
		{http.MethodPatch, "/api/calendar/events/e1", `{}`},
		{http.MethodDelete, "/api/calendar/events/e1", ""},
		{http.MethodGet, "/api/tasks/lists", ""},
		{http.MethodGet, "/api/tasks/list-1", ""},
		{http.MethodPost, "/api/tasks/list-1", `{"title":"x"}`},
		{http.MethodPatch, "/api/tasks/list-1/t1", `{}`},
		{http.MethodDelete, "/api/tasks/list-1/t1", ""},
		{http.MethodGet, "/api/sheets/s1", ""},
		{http.MethodPost, "/api/sheets", `{}`},
		{http.MethodGet, "/api/sheets/s1/values/A1:B2", ""},
		{http.MethodPut, "/api/sheets/s1/values/A1:B2", `{"values":[[1]]}`},
		{http.MethodPost, "/api/sheets/s1/values/A1:append", `{"values":[[1]]}`},
		{http.MethodGet, "/api/drive/files", ""},
		{http.MethodPost, "/api/drive/files", `{"name":"x"}`},
		{http.MethodGet, "/api/drive/files/f1", ""},
		{http.MethodPatch, "/api/drive/files/f1", `{"name":"y"}`},
		{http.MethodDelete, "/api/drive/files/f1", ""},
		{http.MethodGet, "/api/docs/d1", ""},
		{http.MethodPost, "/api/docs", `{"title":"x"}`},
		{http.MethodPost, "/api/docs/d1/batchUpdate", `{"requests":[]}`},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.target, func(t *testing.T) {
			w := e.do(r.method, r.target, r.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"detail":"Not authenticated"}`, w.Body.String())
		})
	}
	assert.Empty(t, e.api.Calls())
}

func TestLifeOpsServer_ListEvents(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)
	e.api.respond(http.StatusOK, `{"items":[{"id":"e1","summary":"standup"}]}`)

	w := e.do(http.MethodGet, "/api/calendar/events?time_min=2025-01-01T00:00:00Z&max_results=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"e1","summary":"standup"}]`, w.Body.String())

	calls := e.api.Calls()
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, http.MethodGet, call.Method)
	assert.True(t, strings.HasSuffix(call.Path, "/calendars/primary/events"), call.Path)
	assert.Equal(t, "Bearer "+e.accessToken(t), call.Auth)
	assert.Equal(t, "2025-01-01T00:00:00Z", call.Query.Get("timeMin"))
	assert.Equal(t, "5", call.Query.Get("maxResults"))
	assert.Equal(t, "true", call.Query.Get("singleEvents"))
	assert.Equal(t, "startTime", call.Query.Get("orderBy"))
	assert.Empty(t, call.Query.Get("timeMax"))
}

func TestLifeOpsServer_ListEventsEmpty(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)
	e.api.respond(http.StatusOK, `{}`)

	w := e.do(http.MethodGet, "/api/calendar/events?calendar_id=work", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.True(t, strings.HasSuffix(e.api.Calls()[0].Path, "/calendars/work/events"))
	assert.Equal(t, "100", e.api.Calls()[0].Query.Get("maxResults"))
}

func TestLifeOpsServer_ListEventsBadQuery(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)

	w := e.do(http.MethodGet, "/api/calendar/events?max_results=lots", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, e.api.Calls())
}

func TestLifeOpsServer_CreateEvent(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)
	e.api.respond(http.StatusOK, `{"id":"e1","summary":"dentist"}`)

	w := e.do(http.MethodPost, "/api/calendar/events",
		`{"summary":"dentist","start":{"dateTime":"2025-01-01T10:00:00Z"},"end":{"dateTime":"2025-01-01T11:00:00Z"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"e1","summary":"dentist"}`, w.Body.String())

	call := e.api.Calls()[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "dentist", call.Body["summary"])
	assert.Equal(t, map[string]interface{}{"dateTime": "2025-01-01T10:00:00Z"}, call.Body["start"])
}

func TestLifeOpsServer_CreateEventValidation(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)

	for _, body := range []string{
		`{"start":{"date":"2025-01-01"},"end":{"date":"2025-01-02"}}`,
		`{"summary":"no dates"}`,
		`not json`,
	} {
		w := e.do(http.MethodPost, "/api/calendar/events", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), `"detail"`)
	}
	assert.Empty(t, e.api.Calls())
}

func TestLifeOpsServer_UpdateAndDeleteEvent(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)

	w := e.do(http.MethodPatch, "/api/calendar/events/e1?calendar_id=work", `{"summary":"moved"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodDelete, "/api/calendar/events/e1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	calls := e.api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.True(t, strings.HasSuffix(calls[0].Path, "/calendars/work/events/e1"), calls[0].Path)
	assert.Equal(t, map[string]interface{}{"summary": "moved"}, calls[0].Body)
	assert.Equal(t, http.MethodDelete, calls[1].Method)
	assert.True(t, strings.HasSuffix(calls[1].Path, "/calendars/primary/events/e1"), calls[1].Path)
}

func TestLifeOpsServer_Tasks(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)
	e.api.respond(http.StatusOK, `{"items":[{"id":"t1","title":"milk","status":"needsAction"}]}`)

	w := e.do(http.MethodGet, "/api/tasks/list-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"t1","title":"milk","status":"needsAction"}]`, w.Body.String())
	list := e.api.Calls()[0]
	assert.Contains(t, list.Path, "/lists/list-1/tasks")
	assert.Equal(t, "true", list.Query.Get("showCompleted"))
	assert.Equal(t, "true", list.Query.Get("showHidden"))
	assert.Equal(t, "100", list.Query.Get("maxResults"))

	e.api.respond(http.StatusOK, `{"id":"t2","title":"eggs"}`)
	w = e.do(http.MethodPost, "/api/tasks/list-1", `{"title":"eggs","due":"2025-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)
	create := e.api.Calls()[1]
	assert.Equal(t, http.MethodPost, create.Method)
	assert.Equal(t, map[string]interface{}{"title": "eggs", "due": "2025-01-01T00:00:00Z"}, create.Body)

	w = e.do(http.MethodPatch, "/api/tasks/list-1/t2", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	patch := e.api.Calls()[2]
	assert.Equal(t, http.MethodPatch, patch.Method)
	assert.Contains(t, patch.Path, "/lists/list-1/tasks/t2")
	assert.Equal(t, map[string]interface{}{"status": "completed"}, patch.Body)
}

func TestLifeOpsServer_TaskValidation(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)

	w := e.do(http.MethodPatch, "/api/tasks/list-1/t1", `{"status":"done"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(http.MethodPost, "/api/tasks/list-1", `{"notes":"no title"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, e.api.Calls())
}

func TestLifeOpsServer_TaskLists(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)
	e.api.respond(http.StatusOK, `{"items":[{"id":"l1","title":"My Tasks"}]}`)

	w := e.do(http.MethodGet, "/api/tasks/lists", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"l1","title":"My Tasks"}]`, w.Body.String())
	assert.True(t, strings.HasSuffix(e.api.Calls()[0].Path, "/users/@me/lists"), e.api.Calls()[0].Path)
}

func TestLifeOpsServer_Sheets(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)

	w := e.do(http.MethodGet, "/api/sheets/s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sheets.properties.title", e.api.Calls()[0].Query.Get("fields"))

	w = e.do(http.MethodPut, "/api/sheets/s1/values/Sheet1!A1:B1", `{"values":[["a","b"]]}`)
	require.Equal(t, http.StatusOK, w.Code)
	update := e.api.Calls()[1]
	assert.Equal(t, http.MethodPut, update.Method)
	assert.Equal(t, "RAW", update.Query.Get("valueInputOption"))
	assert.Equal(t, []interface{}{[]interface{}{"a", "b"}}, update.Body["values"])

	e.api.respond(http.StatusOK, `{"spreadsheetId":"s1","updates":{"updatedRows":1}}`)
	w = e.do(http.MethodPost, "/api/sheets/s1/values/Sheet1!A1:append?value_input_option=USER_ENTERED", `{"values":[["c"]]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"spreadsheetId":"s1","updates":{"updatedRows":1}}`, w.Body.String())
	appendCall := e.api.Calls()[2]
	assert.Equal(t, http.MethodPost, appendCall.Method)
	assert.True(t, strings.HasSuffix(appendCall.Path, ":append"), appendCall.Path)
	assert.Contains(t, appendCall.Path, "Sheet1!A1")
	assert.Equal(t, "USER_ENTERED", appendCall.Query.Get("valueInputOption"))
	assert.Equal(t, "INSERT_ROWS", appendCall.Query.Get("insertDataOption"))
}

func TestLifeOpsServer_SheetsRangeWithEncodedSlash(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)

	w := e.do(http.MethodGet, "/api/sheets/s1/values/My%2FSheet!A1:B2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, e.api.Calls()[0].Path, "/values/My/Sheet!A1:B2")

	w = e.do(http.MethodPost, "/api/sheets/s1/values/My%2FSheet!A1:append", `{"values":[["c"]]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	appendCall := e.api.Calls()[1]
	assert.Equal(t, http.MethodPost, appendCall.Method)
	assert.Contains(t, appendCall.Path, "/values/My/Sheet!A1:append")
}

func TestLifeOpsServer_SheetsPostWithoutAppend(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)

	w := e.do(http.MethodPost, "/api/sheets/s1/values/A1", `{"values":[[1]]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, e.api.Calls())
}

func TestLifeOpsServer_Drive(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)
	e.api.respond(http.StatusOK, `{"files":[{"id":"f1","name":"notes.txt"}]}`)

	w := e.do(http.MethodGet, "/api/drive/files?q=trashed%3Dfalse&page_size=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"f1","name":"notes.txt"}]`, w.Body.String())
	list := e.api.Calls()[0]
	assert.Equal(t, "trashed=false", list.Query.Get("q"))
	assert.Equal(t, "10", list.Query.Get("pageSize"))
	assert.Equal(t, "modifiedTime desc", list.Query.Get("orderBy"))
	assert.Equal(t, listFileFields, list.Query.Get("fields"))

	e.api.respond(http.StatusOK, `{"id":"f2","name":"new"}`)
	w = e.do(http.MethodPost, "/api/drive/files", `{"name":"new","mimeType":"application/vnd.google-apps.folder"}`)
	require.Equal(t, http.StatusOK, w.Code)
	create := e.api.Calls()[1]
	assert.Equal(t, createdFileFields, create.Query.Get("fields"))
	assert.Equal(t, "new", create.Body["name"])

	w = e.do(http.MethodGet, "/api/drive/files/f2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, getFileFields, e.api.Calls()[2].Query.Get("fields"))

	w = e.do(http.MethodDelete, "/api/drive/files/f2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestLifeOpsServer_Docs(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)
	e.api.respond(http.StatusOK, `{"documentId":"d1","title":"Plan"}`)

	w := e.do(http.MethodPost, "/api/docs", `{"title":"Plan"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"documentId":"d1","title":"Plan"}`, w.Body.String())

	e.api.respond(http.StatusOK, `{"documentId":"d1","replies":[{}]}`)
	w = e.do(http.MethodPost, "/api/docs/d1/batchUpdate",
		`{"requests":[{"insertText":{"location":{"index":1},"text":"hello"}}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	batch := e.api.Calls()[1]
	assert.True(t, strings.HasSuffix(batch.Path, "/documents/d1:batchUpdate"), batch.Path)
	require.Len(t, batch.Body["requests"], 1)
}

func TestLifeOpsServer_DownstreamError(t *testing.T) {
	e := newTestEnv(t)
	e.authenticate(t)
	e.api.respond(http.StatusNotFound, `{"error":{"code":404,"message":"Requested entity was not found."}}`)

	w := e.do(http.MethodGet, "/api/docs/missing", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Requested entity was not found."}`, w.Body.String())
}
