package location

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sundialhq/sundial/internal/logging"
)

// defaultBaseURL is the ipapi.co endpoint. The free tier allows 1000
// requests per day, plenty for a per-conversation lookup.
const defaultBaseURL = "https://ipapi.co"

// Location is the resolved geolocation for an IP address.
type Location struct {
	IP        string  `json:"ip"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	UTCOffset string  `json:"utcOffset,omitempty"`
}

// Formatted returns the human-readable "City, Region, Country" form.
func (l *Location) Formatted() string {
	return fmt.Sprintf("%s, %s, %s", l.City, l.Region, l.Country)
}

// LocalTime formats the current time in the location's zone. Falls back to
// UTC when the reported zone name is unknown to the zone database.
func (l *Location) LocalTime(now time.Time) string {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format("Jan 2, 2006, 3:04 PM")
}

// LookupError reports a failure signaled by the geolocation API itself, such
// as a reserved or invalid IP address.
type LookupError struct {
	Reason string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("location lookup failed: %s", e.Reason)
}

// ipapiResponse mirrors the fields of an ipapi.co JSON answer this package
// consumes. Errors arrive in-band with HTTP 200.
type ipapiResponse struct {
	IP          string  `json:"ip"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	CountryName string  `json:"country_name"`
	Timezone    string  `json:"timezone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	UTCOffset   string  `json:"utc_offset"`

	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Client queries the ipapi.co geolocation API.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient creates a geolocation client.
func NewClient() *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetTimeout(10 * time.Second).
			SetHeader("User-Agent", "sundial"),
		logger: slog.Default(),
	}
}

// SetLogger sets a custom logger for the client.
func (c *Client) SetLogger(logger *slog.Logger) { c.logger = logger }

// SetBaseURL points the client at an alternative API endpoint. Tests use
// this to run lookups against a local server.
func (c *Client) SetBaseURL(baseURL string) { c.http.SetBaseURL(baseURL) }

// Lookup resolves the location of ipAddress, or of the caller's own public
// IP when ipAddress is empty.
func (c *Client) Lookup(ctx context.Context, ipAddress string) (*Location, error) {
	path := "/json/"
	req := c.http.R().SetContext(ctx).SetResult(&ipapiResponse{})
	if ipAddress != "" {
		path = "/{ip}/json/"
		req = req.SetPathParam("ip", ipAddress)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("location API request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("location API error: %s", resp.Status())
	}

	data, ok := resp.Result().(*ipapiResponse)
	if !ok || data == nil {
		return nil, fmt.Errorf("location API returned an unexpected response")
	}
	if data.Error {
		reason := data.Reason
		if reason == "" {
			reason = "unknown error"
		}
		return nil, &LookupError{Reason: reason}
	}

	c.logger.Debug("location resolved",
		logging.Operation("lookup"),
		slog.String("timezone", data.Timezone),
	)

	return &Location{
		IP:        data.IP,
		City:      data.City,
		Region:    data.Region,
		Country:   data.CountryName,
		Timezone:  data.Timezone,
		Latitude:  data.Latitude,
		Longitude: data.Longitude,
		UTCOffset: data.UTCOffset,
	}, nil
}
