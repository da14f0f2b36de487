package calendar_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sundialhq/sundial/internal/calendar"
	"github.com/sundialhq/sundial/internal/server"
	"github.com/sundialhq/sundial/internal/tools/common"
)

// Each handler decodes into one typed input struct by explicit field
// extraction. Inputs arrive exactly as documented on the tool; no
// alternative wrapper shapes are accepted.

type freeBusyInput struct {
	UserID      string
	TimeMin     string
	TimeMax     string
	CalendarIDs []string
	TimeZone    string
}

type createEventInput struct {
	UserID      string
	CalendarID  string
	Summary     string
	Description string
	Location    string
	Start       string
	End         string
	TimeZone    string
	Attendees   []calendar.Attendee
	AddMeet     bool
	SendUpdates string
}

type listEventsInput struct {
	UserID     string
	CalendarID string
	TimeMin    string
	TimeMax    string
	Query      string
	MaxResults int64
}

type updateEventInput struct {
	UserID       string
	CalendarID   string
	EventID      string
	Summary      string
	Description  string
	Location     string
	Start        string
	End          string
	TimeZone     string
	Attendees    []calendar.Attendee
	hasAttendees bool
	SendUpdates  string
}

type deleteEventInput struct {
	UserID      string
	CalendarID  string
	EventID     string
	SendUpdates string
}

func getString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func getBool(args map[string]any, key string) bool {
	v, ok := args[key].(bool)
	return ok && v
}

func getInt(args map[string]any, key string, fallback int64) int64 {
	if v, ok := args[key].(float64); ok && v > 0 {
		return int64(v)
	}
	return fallback
}

// getAttendees decodes the attendees array. The second return reports
// whether the argument was present at all, which update uses to tell
// "replace with empty" apart from "keep".
func getAttendees(args map[string]any, fieldErrors map[string]string) ([]calendar.Attendee, bool) {
	raw, present := args["attendees"]
	if !present {
		return nil, false
	}

	list, ok := raw.([]any)
	if !ok {
		fieldErrors["attendees"] = "must be an array of {email, optional} objects"
		return nil, true
	}

	attendees := make([]calendar.Attendee, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			fieldErrors["attendees"] = fmt.Sprintf("entry %d must be an object with an email field", i)
			return nil, true
		}
		email, _ := obj["email"].(string)
		if email == "" {
			fieldErrors["attendees"] = fmt.Sprintf("entry %d is missing its email", i)
			return nil, true
		}
		optional, _ := obj["optional"].(bool)
		attendees = append(attendees, calendar.Attendee{Email: email, Optional: optional})
	}
	return attendees, true
}

// checkTimestamp validates an RFC3339 timestamp after normalization, filing
// a field error when it does not parse.
func checkTimestamp(value, field string, required bool, fieldErrors map[string]string) {
	if value == "" {
		if required {
			fieldErrors[field] = "is required (RFC3339, e.g. '2025-08-11T09:00:00Z')"
		}
		return
	}
	if _, err := time.Parse(time.RFC3339, calendar.NormalizeTimestamp(value)); err != nil {
		fieldErrors[field] = "must be an RFC3339 timestamp, e.g. '2025-08-11T09:00:00Z'"
	}
}

// checkSendUpdates validates the notification policy enum.
func checkSendUpdates(value string, fieldErrors map[string]string) {
	switch value {
	case "", "all", "externalOnly", "none":
	default:
		fieldErrors["sendUpdates"] = "must be one of 'all', 'externalOnly', 'none'"
	}
}

func handleFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	fieldErrors := make(map[string]string)

	in := freeBusyInput{
		UserID:   getString(args, "userId"),
		TimeMin:  getString(args, "timeMinISO"),
		TimeMax:  getString(args, "timeMaxISO"),
		TimeZone: getString(args, "timeZone"),
	}
	checkTimestamp(in.TimeMin, "timeMinISO", true, fieldErrors)
	checkTimestamp(in.TimeMax, "timeMaxISO", true, fieldErrors)

	if raw, present := args["calendarIds"]; present {
		list, ok := raw.([]any)
		if !ok {
			fieldErrors["calendarIds"] = "must be an array of calendar id strings"
		}
		for i, item := range list {
			id, ok := item.(string)
			if !ok || id == "" {
				fieldErrors["calendarIds"] = fmt.Sprintf("entry %d must be a non-empty string", i)
				break
			}
			in.CalendarIDs = append(in.CalendarIDs, id)
		}
	}
	if len(in.CalendarIDs) == 0 {
		in.CalendarIDs = []string{"primary"}
	}

	if len(fieldErrors) > 0 {
		return common.InvalidInput(fieldErrors), nil
	}

	rec, err := sc.Resolver().Resolve(in.UserID)
	if err != nil {
		return common.ResolveFailure(err), nil
	}

	result, err := sc.Gateway().FreeBusy(ctx, rec, calendar.FreeBusyInput{
		TimeMin:     in.TimeMin,
		TimeMax:     in.TimeMax,
		CalendarIDs: in.CalendarIDs,
		TimeZone:    in.TimeZone,
	})
	if err != nil {
		return common.RemoteFailure(err), nil
	}

	return common.Success(
		fmt.Sprintf("found %d busy intervals across %d calendars", len(result.Busy), len(in.CalendarIDs)),
		map[string]any{
			"timeMin": result.TimeMin,
			"timeMax": result.TimeMax,
			"busy":    result.Busy,
			"errors":  result.Errors,
		},
	), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	fieldErrors := make(map[string]string)

	in := createEventInput{
		UserID:      getString(args, "userId"),
		CalendarID:  getString(args, "calendarId"),
		Summary:     getString(args, "summary"),
		Description: getString(args, "description"),
		Location:    getString(args, "location"),
		Start:       getString(args, "startISO"),
		End:         getString(args, "endISO"),
		TimeZone:    getString(args, "timeZone"),
		AddMeet:     getBool(args, "addMeet"),
		SendUpdates: getString(args, "sendUpdates"),
	}
	if in.CalendarID == "" {
		in.CalendarID = "primary"
	}
	if in.Summary == "" {
		fieldErrors["summary"] = "is required"
	}
	checkTimestamp(in.Start, "startISO", true, fieldErrors)
	checkTimestamp(in.End, "endISO", true, fieldErrors)
	checkSendUpdates(in.SendUpdates, fieldErrors)
	in.Attendees, _ = getAttendees(args, fieldErrors)

	if len(fieldErrors) > 0 {
		return common.InvalidInput(fieldErrors), nil
	}

	rec, err := sc.Resolver().Resolve(in.UserID)
	if err != nil {
		return common.ResolveFailure(err), nil
	}

	event, err := sc.Gateway().CreateEvent(ctx, rec, calendar.EventInput{
		CalendarID:  in.CalendarID,
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       in.Start,
		End:         in.End,
		TimeZone:    in.TimeZone,
		Attendees:   in.Attendees,
		AddMeet:     in.AddMeet,
		SendUpdates: in.SendUpdates,
	})
	if err != nil {
		return common.RemoteFailure(err), nil
	}

	message := fmt.Sprintf("created event %q", event.Summary)
	if event.MeetLink != "" {
		message += " with Google Meet"
	}
	return common.Success(message, map[string]any{"event": event}), nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	fieldErrors := make(map[string]string)

	in := listEventsInput{
		UserID:     getString(args, "userId"),
		CalendarID: getString(args, "calendarId"),
		TimeMin:    getString(args, "timeMinISO"),
		TimeMax:    getString(args, "timeMaxISO"),
		Query:      getString(args, "query"),
		MaxResults: getInt(args, "maxResults", 10),
	}
	if in.CalendarID == "" {
		in.CalendarID = "primary"
	}
	checkTimestamp(in.TimeMin, "timeMinISO", true, fieldErrors)
	checkTimestamp(in.TimeMax, "timeMaxISO", true, fieldErrors)

	if len(fieldErrors) > 0 {
		return common.InvalidInput(fieldErrors), nil
	}

	rec, err := sc.Resolver().Resolve(in.UserID)
	if err != nil {
		return common.ResolveFailure(err), nil
	}

	events, err := sc.Gateway().ListEvents(ctx, rec, calendar.ListEventsInput{
		CalendarID: in.CalendarID,
		TimeMin:    in.TimeMin,
		TimeMax:    in.TimeMax,
		Query:      in.Query,
		MaxResults: in.MaxResults,
	})
	if err != nil {
		return common.RemoteFailure(err), nil
	}

	return common.Success(
		fmt.Sprintf("found %d events", len(events)),
		map[string]any{"events": events, "count": len(events)},
	), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	fieldErrors := make(map[string]string)

	in := updateEventInput{
		UserID:      getString(args, "userId"),
		CalendarID:  getString(args, "calendarId"),
		EventID:     getString(args, "eventId"),
		Summary:     getString(args, "summary"),
		Description: getString(args, "description"),
		Location:    getString(args, "location"),
		Start:       getString(args, "startISO"),
		End:         getString(args, "endISO"),
		TimeZone:    getString(args, "timeZone"),
		SendUpdates: getString(args, "sendUpdates"),
	}
	if in.CalendarID == "" {
		in.CalendarID = "primary"
	}
	if in.EventID == "" {
		fieldErrors["eventId"] = "is required"
	}
	checkTimestamp(in.Start, "startISO", false, fieldErrors)
	checkTimestamp(in.End, "endISO", false, fieldErrors)
	checkSendUpdates(in.SendUpdates, fieldErrors)
	in.Attendees, in.hasAttendees = getAttendees(args, fieldErrors)

	if len(fieldErrors) > 0 {
		return common.InvalidInput(fieldErrors), nil
	}

	rec, err := sc.Resolver().Resolve(in.UserID)
	if err != nil {
		return common.ResolveFailure(err), nil
	}

	patch := calendar.EventPatch{
		CalendarID:  in.CalendarID,
		EventID:     in.EventID,
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       in.Start,
		End:         in.End,
		TimeZone:    in.TimeZone,
		SendUpdates: in.SendUpdates,
	}
	if in.hasAttendees {
		// An explicit empty array clears the guest list.
		patch.Attendees = in.Attendees
		if patch.Attendees == nil {
			patch.Attendees = []calendar.Attendee{}
		}
	}

	event, err := sc.Gateway().UpdateEvent(ctx, rec, patch)
	if err != nil {
		return common.RemoteFailure(err), nil
	}

	return common.Success(
		fmt.Sprintf("updated event %q", event.Summary),
		map[string]any{"event": event},
	), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	fieldErrors := make(map[string]string)

	in := deleteEventInput{
		UserID:      getString(args, "userId"),
		CalendarID:  getString(args, "calendarId"),
		EventID:     getString(args, "eventId"),
		SendUpdates: getString(args, "sendUpdates"),
	}
	if in.CalendarID == "" {
		in.CalendarID = "primary"
	}
	if in.EventID == "" {
		fieldErrors["eventId"] = "is required"
	}
	checkSendUpdates(in.SendUpdates, fieldErrors)

	if len(fieldErrors) > 0 {
		return common.InvalidInput(fieldErrors), nil
	}

	rec, err := sc.Resolver().Resolve(in.UserID)
	if err != nil {
		return common.ResolveFailure(err), nil
	}

	if err := sc.Gateway().DeleteEvent(ctx, rec, calendar.DeleteEventInput{
		CalendarID:  in.CalendarID,
		EventID:     in.EventID,
		SendUpdates: in.SendUpdates,
	}); err != nil {
		return common.RemoteFailure(err), nil
	}

	return common.Success(
		"event deleted",
		map[string]any{"eventId": in.EventID, "calendarId": in.CalendarID},
	), nil
}
