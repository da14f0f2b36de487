package calendar_tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundialhq/sundial/internal/google"
	"github.com/sundialhq/sundial/internal/server"
	"github.com/sundialhq/sundial/internal/tokenstore"
)

// newToolContext builds a ServerContext whose gateway talks to the given
// fake Calendar API, with a single authorized user "u1".
func newToolContext(t *testing.T, handler http.Handler) *server.ServerContext {
	t.Helper()

	sc, err := server.NewServerContext(context.Background(), &google.ClientConfig{ClientID: "id", ClientSecret: "secret"}, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	require.NoError(t, sc.Store().Put("u1", &tokenstore.Record{UserID: "u1", AccessToken: "tok-u1"}))

	if handler != nil {
		ts := httptest.NewServer(handler)
		t.Cleanup(ts.Close)
		sc.Gateway().SetEndpoint(ts.URL + "/")
	}
	return sc
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &envelope))
	return envelope
}

func TestFreeBusyMissingRange(t *testing.T) {
	sc := newToolContext(t, nil)

	result, err := handleFreeBusy(context.Background(), callRequest(map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	envelope := decodeResult(t, result)
	assert.Equal(t, "invalid_input", envelope["error"])
	fieldErrors := envelope["fieldErrors"].(map[string]any)
	assert.Contains(t, fieldErrors, "timeMinISO")
	assert.Contains(t, fieldErrors, "timeMaxISO")
}

func TestFreeBusyDefaultsToPrimary(t *testing.T) {
	var gotBody map[string]any
	sc := newToolContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"timeMin": "2025-08-11T08:00:00Z", "timeMax": "2025-08-11T18:00:00Z", "calendars": {"primary": {"busy": [{"start": "2025-08-11T09:00:00Z", "end": "2025-08-11T10:00:00Z"}]}}}`)
	}))

	result, err := handleFreeBusy(context.Background(), callRequest(map[string]any{
		"timeMinISO": "2025-08-11T08:00:00Z",
		"timeMaxISO": "2025-08-11T18:00:00Z",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	items := gotBody["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, map[string]any{"id": "primary"}, items[0])

	envelope := decodeResult(t, result)
	assert.Equal(t, true, envelope["success"])
	busy := envelope["busy"].([]any)
	require.Len(t, busy, 1)
	assert.Equal(t, "primary", busy[0].(map[string]any)["calendarId"])
}

func TestFreeBusyRejectsBadCalendarIDs(t *testing.T) {
	sc := newToolContext(t, nil)

	result, err := handleFreeBusy(context.Background(), callRequest(map[string]any{
		"timeMinISO":  "2025-08-11T08:00:00Z",
		"timeMaxISO":  "2025-08-11T18:00:00Z",
		"calendarIds": []any{"primary", 42},
	}), sc)
	require.NoError(t, err)

	envelope := decodeResult(t, result)
	assert.Equal(t, "invalid_input", envelope["error"])
	fieldErrors := envelope["fieldErrors"].(map[string]any)
	assert.Contains(t, fieldErrors, "calendarIds")
}

func TestFreeBusyRejectsNonArrayCalendarIDs(t *testing.T) {
	sc := newToolContext(t, nil)

	result, err := handleFreeBusy(context.Background(), callRequest(map[string]any{
		"timeMinISO":  "2025-08-11T08:00:00Z",
		"timeMaxISO":  "2025-08-11T18:00:00Z",
		"calendarIds": "primary",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	envelope := decodeResult(t, result)
	assert.Equal(t, "invalid_input", envelope["error"])
	fieldErrors := envelope["fieldErrors"].(map[string]any)
	assert.Contains(t, fieldErrors, "calendarIds")
}

func TestFreeBusyPassesTimeZone(t *testing.T) {
	var gotBody map[string]any
	sc := newToolContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"calendars": {"primary": {"busy": []}}}`)
	}))

	result, err := handleFreeBusy(context.Background(), callRequest(map[string]any{
		"timeMinISO": "2025-08-11T08:00:00Z",
		"timeMaxISO": "2025-08-11T18:00:00Z",
		"timeZone":   "America/Los_Angeles",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "America/Los_Angeles", gotBody["timeZone"])
}

func TestCreateEventHappyPath(t *testing.T) {
	sc := newToolContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "evt1",
			"summary": "Standup",
			"start": {"dateTime": "2025-08-11T09:00:00Z"},
			"end": {"dateTime": "2025-08-11T09:15:00Z"},
			"conferenceData": {"entryPoints": [{"entryPointType": "video", "uri": "https://meet.google.com/abc-defg-hij"}]}
		}`)
	}))

	result, err := handleCreateEvent(context.Background(), callRequest(map[string]any{
		"summary":   "Standup",
		"startISO":  "2025-08-11T09:00:00Z",
		"endISO":    "2025-08-11T09:15:00Z",
		"addMeet":   true,
		"attendees": []any{map[string]any{"email": "alice@example.com"}, map[string]any{"email": "bob@example.com", "optional": true}},
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	envelope := decodeResult(t, result)
	assert.Contains(t, envelope["message"], "Standup")
	assert.Contains(t, envelope["message"], "Google Meet")
	event := envelope["event"].(map[string]any)
	assert.Equal(t, "evt1", event["id"])
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", event["meetLink"])
}

func TestCreateEventValidation(t *testing.T) {
	sc := newToolContext(t, nil)

	tests := []struct {
		name      string
		args      map[string]any
		wantField string
	}{
		{
			name:      "missing summary",
			args:      map[string]any{"startISO": "2025-08-11T09:00:00Z", "endISO": "2025-08-11T10:00:00Z"},
			wantField: "summary",
		},
		{
			name:      "missing start",
			args:      map[string]any{"summary": "x", "endISO": "2025-08-11T10:00:00Z"},
			wantField: "startISO",
		},
		{
			name:      "malformed start",
			args:      map[string]any{"summary": "x", "startISO": "tomorrow at 9", "endISO": "2025-08-11T10:00:00Z"},
			wantField: "startISO",
		},
		{
			name:      "bad sendUpdates",
			args:      map[string]any{"summary": "x", "startISO": "2025-08-11T09:00:00Z", "endISO": "2025-08-11T10:00:00Z", "sendUpdates": "everyone"},
			wantField: "sendUpdates",
		},
		{
			name:      "attendee without email",
			args:      map[string]any{"summary": "x", "startISO": "2025-08-11T09:00:00Z", "endISO": "2025-08-11T10:00:00Z", "attendees": []any{map[string]any{"optional": true}}},
			wantField: "attendees",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleCreateEvent(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)

			envelope := decodeResult(t, result)
			assert.Equal(t, "invalid_input", envelope["error"])
			fieldErrors := envelope["fieldErrors"].(map[string]any)
			assert.Contains(t, fieldErrors, tt.wantField)
		})
	}
}

func TestCreateEventAcceptsFractionalSeconds(t *testing.T) {
	sc := newToolContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "evt2", "summary": "Sync", "start": {"dateTime": "2025-08-11T09:00:00Z"}, "end": {"dateTime": "2025-08-11T09:30:00Z"}}`)
	}))

	result, err := handleCreateEvent(context.Background(), callRequest(map[string]any{
		"summary":  "Sync",
		"startISO": "2025-08-11T09:00:00.000Z",
		"endISO":   "2025-08-11T09:30:00.000Z",
	}), sc)
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestListEventsPassesQueryAndLimit(t *testing.T) {
	var gotQuery map[string][]string
	sc := newToolContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items": [
			{"id": "e1", "summary": "Standup", "start": {"dateTime": "2025-08-11T09:00:00Z"}, "end": {"dateTime": "2025-08-11T09:15:00Z"}},
			{"id": "e2", "summary": "Review", "start": {"dateTime": "2025-08-11T11:00:00Z"}, "end": {"dateTime": "2025-08-11T12:00:00Z"}}
		]}`)
	}))

	result, err := handleListEvents(context.Background(), callRequest(map[string]any{
		"timeMinISO": "2025-08-11T00:00:00Z",
		"timeMaxISO": "2025-08-12T00:00:00Z",
		"query":      "standup",
		"maxResults": float64(25),
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, []string{"standup"}, gotQuery["q"])
	assert.Equal(t, []string{"25"}, gotQuery["maxResults"])

	envelope := decodeResult(t, result)
	assert.Equal(t, float64(2), envelope["count"])
	events := envelope["events"].([]any)
	require.Len(t, events, 2)
	assert.Equal(t, "Standup", events[0].(map[string]any)["summary"])
}

func TestUpdateEventRequiresEventID(t *testing.T) {
	sc := newToolContext(t, nil)

	result, err := handleUpdateEvent(context.Background(), callRequest(map[string]any{
		"summary": "Renamed",
	}), sc)
	require.NoError(t, err)

	envelope := decodeResult(t, result)
	assert.Equal(t, "invalid_input", envelope["error"])
	fieldErrors := envelope["fieldErrors"].(map[string]any)
	assert.Contains(t, fieldErrors, "eventId")
}

func TestUpdateEventClearsAttendeesOnEmptyArray(t *testing.T) {
	var putBody map[string]any
	sc := newToolContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"id": "evt1", "summary": "Sync", "attendees": [{"email": "old@example.com"}], "start": {"dateTime": "2025-08-11T09:00:00Z"}, "end": {"dateTime": "2025-08-11T10:00:00Z"}}`)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &putBody))
			io.WriteString(w, `{"id": "evt1", "summary": "Sync", "start": {"dateTime": "2025-08-11T09:00:00Z"}, "end": {"dateTime": "2025-08-11T10:00:00Z"}}`)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))

	result, err := handleUpdateEvent(context.Background(), callRequest(map[string]any{
		"eventId":   "evt1",
		"attendees": []any{},
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	attendees, present := putBody["attendees"]
	if present {
		assert.Empty(t, attendees)
	}
}

func TestDeleteEventHappyPath(t *testing.T) {
	var gotMethod string
	sc := newToolContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))

	result, err := handleDeleteEvent(context.Background(), callRequest(map[string]any{
		"eventId": "evt1",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, http.MethodDelete, gotMethod)
	envelope := decodeResult(t, result)
	assert.Equal(t, "evt1", envelope["eventId"])
	assert.Equal(t, "primary", envelope["calendarId"])
}

func TestHandlersReportAmbiguousUser(t *testing.T) {
	sc := newToolContext(t, nil)
	require.NoError(t, sc.Store().Put("u2", &tokenstore.Record{UserID: "u2", AccessToken: "tok-u2"}))

	result, err := handleListEvents(context.Background(), callRequest(map[string]any{
		"timeMinISO": "2025-08-11T00:00:00Z",
		"timeMaxISO": "2025-08-12T00:00:00Z",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	envelope := decodeResult(t, result)
	assert.Equal(t, "ambiguous_user", envelope["error"])
	assert.ElementsMatch(t, []any{"u1", "u2"}, envelope["availableUsers"].([]any))
}

func TestHandlersReportUnknownUser(t *testing.T) {
	sc := newToolContext(t, nil)

	result, err := handleDeleteEvent(context.Background(), callRequest(map[string]any{
		"eventId": "evt1",
		"userId":  "ghost",
	}), sc)
	require.NoError(t, err)

	envelope := decodeResult(t, result)
	assert.Equal(t, "user_not_found", envelope["error"])
	assert.Contains(t, envelope["message"], "ghost")
}

func TestHandlersWrapRemoteErrors(t *testing.T) {
	sc := newToolContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error": {"code": 403, "message": "insufficient permissions"}}`)
	}))

	result, err := handleListEvents(context.Background(), callRequest(map[string]any{
		"timeMinISO": "2025-08-11T00:00:00Z",
		"timeMaxISO": "2025-08-12T00:00:00Z",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	envelope := decodeResult(t, result)
	assert.Equal(t, "remote_error", envelope["error"])
}
