package location

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c := NewClient()
	c.SetBaseURL(ts.URL)
	return c
}

func TestLookupOwnIP(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"ip": "203.0.113.7",
			"city": "Berlin",
			"region": "Berlin",
			"country_name": "Germany",
			"timezone": "Europe/Berlin",
			"latitude": 52.52,
			"longitude": 13.405,
			"utc_offset": "+0100"
		}`)
	}))

	loc, err := c.Lookup(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "/json/", gotPath)
	assert.Equal(t, "203.0.113.7", loc.IP)
	assert.Equal(t, "Europe/Berlin", loc.Timezone)
	assert.Equal(t, "Berlin, Berlin, Germany", loc.Formatted())
}

func TestLookupExplicitIP(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ip": "198.51.100.4", "city": "Lisbon", "region": "Lisbon", "country_name": "Portugal", "timezone": "Europe/Lisbon"}`)
	}))

	loc, err := c.Lookup(context.Background(), "198.51.100.4")
	require.NoError(t, err)
	assert.Equal(t, "/198.51.100.4/json/", gotPath)
	assert.Equal(t, "Lisbon", loc.City)
}

func TestLookupAPIReportedError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"error": true, "reason": "Reserved IP Address"}`)
	}))

	_, err := c.Lookup(context.Background(), "10.0.0.1")

	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "Reserved IP Address", lookupErr.Reason)
}

func TestLookupHTTPError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))

	_, err := c.Lookup(context.Background(), "")
	assert.ErrorContains(t, err, "location API error")
}

func TestLocationLocalTime(t *testing.T) {
	loc := &Location{Timezone: "Europe/Berlin"}
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Jan 15, 2025, 1:00 PM", loc.LocalTime(now))

	// Unknown zone falls back to UTC rather than failing.
	loc = &Location{Timezone: "Nowhere/Else"}
	assert.Equal(t, "Jan 15, 2025, 12:00 PM", loc.LocalTime(now))
}
