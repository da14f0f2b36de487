package calendar

import (
	"regexp"

	calendar "google.golang.org/api/calendar/v3"
)

// Attendee identifies an event guest.
type Attendee struct {
	Email    string `json:"email"`
	Optional bool   `json:"optional,omitempty"`
}

// AttendeeStatus is an attendee plus their current response.
type AttendeeStatus struct {
	Email          string `json:"email"`
	ResponseStatus string `json:"responseStatus,omitempty"` // needsAction, declined, tentative, accepted
	Optional       bool   `json:"optional,omitempty"`
}

// EventInput carries the fields for creating an event. Start and End are
// RFC3339 timestamps; fractional seconds are stripped before transmission.
type EventInput struct {
	CalendarID  string
	Summary     string
	Description string
	Location    string
	Start       string
	End         string
	TimeZone    string
	Attendees   []Attendee

	// AddMeet requests a Google Meet conference on the event.
	AddMeet bool

	// SendUpdates is the notification policy: all, externalOnly or none.
	// Empty means all.
	SendUpdates string
}

// EventPatch carries a partial update for an existing event. Zero-valued
// fields keep the event's current value; a nil Attendees slice keeps the
// current guest list.
type EventPatch struct {
	CalendarID  string
	EventID     string
	Summary     string
	Description string
	Location    string
	Start       string
	End         string
	TimeZone    string
	Attendees   []Attendee
	SendUpdates string
}

// EventSummary is the flattened view of an event returned to callers.
type EventSummary struct {
	ID          string           `json:"id"`
	Summary     string           `json:"summary,omitempty"`
	Description string           `json:"description,omitempty"`
	Location    string           `json:"location,omitempty"`
	Start       string           `json:"start,omitempty"`
	End         string           `json:"end,omitempty"`
	Status      string           `json:"status,omitempty"`
	HTMLLink    string           `json:"htmlLink,omitempty"`
	MeetLink    string           `json:"meetLink,omitempty"`
	Attendees   []AttendeeStatus `json:"attendees,omitempty"`
}

// ListEventsInput carries the parameters for listing events.
type ListEventsInput struct {
	CalendarID string
	TimeMin    string
	TimeMax    string
	Query      string
	MaxResults int64
}

// FreeBusyInput carries the parameters for an availability query. TimeZone,
// when set, asks the service to express busy intervals in that zone.
type FreeBusyInput struct {
	TimeMin     string
	TimeMax     string
	CalendarIDs []string
	TimeZone    string
}

// BusyInterval is one busy block on one calendar.
type BusyInterval struct {
	CalendarID string `json:"calendarId"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// CalendarError reports a per-calendar failure inside an otherwise
// successful freebusy response, typically an unknown calendar id.
type CalendarError struct {
	CalendarID string `json:"calendarId"`
	Reason     string `json:"reason"`
}

// FreeBusyResult is the flattened availability answer: all busy blocks
// across the queried calendars, sorted by start time.
type FreeBusyResult struct {
	TimeMin string          `json:"timeMin"`
	TimeMax string          `json:"timeMax"`
	Busy    []BusyInterval  `json:"busy"`
	Errors  []CalendarError `json:"errors,omitempty"`
}

// DeleteEventInput carries the parameters for deleting an event.
type DeleteEventInput struct {
	CalendarID  string
	EventID     string
	SendUpdates string
}

// fractionalSeconds matches a fractional-second component directly before
// the zone designator of an RFC3339 timestamp.
var fractionalSeconds = regexp.MustCompile(`\.\d+(Z|[+-]\d{2}:?\d{2})$`)

// NormalizeTimestamp strips fractional seconds from an RFC3339 timestamp
// ("2025-08-11T09:00:00.000Z" becomes "2025-08-11T09:00:00Z"). The Calendar
// API rejects some fractional forms agents commonly emit. Timestamps without
// a fractional part pass through unchanged.
func NormalizeTimestamp(ts string) string {
	return fractionalSeconds.ReplaceAllString(ts, "$1")
}

// toEventSummary converts an API event into the flattened view.
func toEventSummary(event *calendar.Event) EventSummary {
	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		HTMLLink:    event.HtmlLink,
	}

	if event.Start != nil {
		if event.Start.DateTime != "" {
			summary.Start = event.Start.DateTime
		} else {
			summary.Start = event.Start.Date
		}
	}
	if event.End != nil {
		if event.End.DateTime != "" {
			summary.End = event.End.DateTime
		} else {
			summary.End = event.End.Date
		}
	}

	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeStatus{
			Email:          att.Email,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
		})
	}

	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				summary.MeetLink = ep.Uri
				break
			}
		}
	}

	return summary
}

// toAPIAttendees converts guest inputs into API attendee records.
func toAPIAttendees(attendees []Attendee) []*calendar.EventAttendee {
	if len(attendees) == 0 {
		return nil
	}
	out := make([]*calendar.EventAttendee, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, &calendar.EventAttendee{
			Email:    a.Email,
			Optional: a.Optional,
		})
	}
	return out
}
