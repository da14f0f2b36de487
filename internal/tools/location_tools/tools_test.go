package location_tools

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
)

func newToolContext(t *testing.T, handler http.Handler) *server.ServerContext {
	t.Helper()

	sc, err := server.NewServerContext(context.Background(), &google.ClientConfig{ClientID: "id", ClientSecret: "secret"}, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	if handler != nil {
		ts := httptest.NewServer(handler)
		t.Cleanup(ts.Close)
		sc.Location().SetBaseURL(ts.URL)
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

func TestDetectLocation(t *testing.T) {
	sc := newToolContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/81.2.69.142/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"ip": "81.2.69.142",
			"city": "London",
			"region": "England",
			"country_name": "United Kingdom",
			"timezone": "Europe/London",
			"latitude": 51.5074,
			"longitude": -0.1278,
			"utc_offset": "+0000"
		}`)
	}))

	result, err := handleDetectLocation(context.Background(), callRequest(map[string]any{
		"ipAddress": "81.2.69.142",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	envelope := decodeResult(t, result)
	assert.Equal(t, "London, England, United Kingdom", envelope["formatted"])
	loc := envelope["location"].(map[string]any)
	assert.Equal(t, "Europe/London", loc["timezone"])
	assert.NotEmpty(t, envelope["localTime"])
}

func TestDetectLocationReservedIP(t *testing.T) {
	sc := newToolContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"error": true, "reason": "Reserved IP Address"}`)
	}))

	result, err := handleDetectLocation(context.Background(), callRequest(map[string]any{
		"ipAddress": "10.0.0.1",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	envelope := decodeResult(t, result)
	assert.Equal(t, "remote_error", envelope["error"])
	assert.Contains(t, envelope["message"], "Reserved IP Address")
}

func TestConvertTimezone(t *testing.T) {
	sc := newToolContext(t, nil)

	result, err := handleConvertTimezone(context.Background(), callRequest(map[string]any{
		"time":         "3:00 PM",
		"date":         "2025-01-15",
		"fromTimezone": "America/New_York",
		"toTimezone":   "Europe/London",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	envelope := decodeResult(t, result)
	converted := envelope["converted"].(map[string]any)
	assert.Equal(t, "Jan 15, 2025, 8:00 PM", converted["time"])
	assert.Equal(t, "Europe/London", converted["timezone"])
	assert.Contains(t, envelope["message"], "Europe/London")
}

func TestConvertTimezoneMissingFields(t *testing.T) {
	sc := newToolContext(t, nil)

	result, err := handleConvertTimezone(context.Background(), callRequest(map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	envelope := decodeResult(t, result)
	assert.Equal(t, "invalid_input", envelope["error"])
	fieldErrors := envelope["fieldErrors"].(map[string]any)
	assert.Contains(t, fieldErrors, "time")
	assert.Contains(t, fieldErrors, "fromTimezone")
	assert.Contains(t, fieldErrors, "toTimezone")
}

func TestConvertTimezoneUnknownZone(t *testing.T) {
	sc := newToolContext(t, nil)

	result, err := handleConvertTimezone(context.Background(), callRequest(map[string]any{
		"time":         "15:00",
		"fromTimezone": "Mars/Olympus_Mons",
		"toTimezone":   "Europe/Berlin",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	envelope := decodeResult(t, result)
	assert.Equal(t, "invalid_input", envelope["error"])
	assert.Contains(t, envelope["message"], "Mars/Olympus_Mons")
}
