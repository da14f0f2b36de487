package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/sundialhq/sundial/internal/server"
	"github.com/sundialhq/sundial/internal/tools/common"
)

// userIDDescription is shared by every tool; the resolver applies the same
// fallback rules everywhere.
const userIDDescription = "User whose calendar to act on. Optional when exactly one user has authorized."

// RegisterCalendarTools registers all calendar tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	freebusyTool := mcp.NewTool("calendar_freebusy",
		mcp.WithDescription("Check busy intervals across one or more calendars in a time range"),
		mcp.WithString("userId", mcp.Description(userIDDescription)),
		mcp.WithString("timeMinISO",
			mcp.Required(),
			mcp.Description("Start of the range (RFC3339, e.g. '2025-08-11T08:00:00Z')"),
		),
		mcp.WithString("timeMaxISO",
			mcp.Required(),
			mcp.Description("End of the range (RFC3339)"),
		),
		mcp.WithArray("calendarIds",
			mcp.Description("Calendar IDs to check (default: ['primary'])"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone to express busy intervals in (e.g. 'America/Los_Angeles')"),
		),
	)
	s.AddTool(freebusyTool, common.InstrumentedToolHandler("calendar_freebusy", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFreeBusy(ctx, request, sc)
		}))

	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create a calendar event, optionally with a Google Meet link"),
		mcp.WithString("userId", mcp.Description(userIDDescription)),
		mcp.WithString("calendarId", mcp.Description("Calendar ID (default: 'primary')")),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("description", mcp.Description("Event description")),
		mcp.WithString("location", mcp.Description("Event location")),
		mcp.WithString("startISO",
			mcp.Required(),
			mcp.Description("Start time (RFC3339, e.g. '2025-08-11T09:00:00Z')"),
		),
		mcp.WithString("endISO",
			mcp.Required(),
			mcp.Description("End time (RFC3339)"),
		),
		mcp.WithString("timeZone", mcp.Description("IANA time zone for the event (e.g. 'Europe/Berlin')")),
		mcp.WithArray("attendees",
			mcp.Description("Guests as objects with 'email' and optional 'optional' flag"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"email":    map[string]any{"type": "string"},
					"optional": map[string]any{"type": "boolean"},
				},
				"required": []string{"email"},
			}),
		),
		mcp.WithBoolean("addMeet", mcp.Description("Attach a Google Meet conference")),
		mcp.WithString("sendUpdates", mcp.Description("Notification policy: 'all' (default), 'externalOnly' or 'none'")),
	)
	s.AddTool(createEventTool, common.InstrumentedToolHandler("calendar_create_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List or search calendar events within a time range"),
		mcp.WithString("userId", mcp.Description(userIDDescription)),
		mcp.WithString("calendarId", mcp.Description("Calendar ID (default: 'primary')")),
		mcp.WithString("timeMinISO",
			mcp.Required(),
			mcp.Description("Start of the range (RFC3339)"),
		),
		mcp.WithString("timeMaxISO",
			mcp.Required(),
			mcp.Description("End of the range (RFC3339)"),
		),
		mcp.WithString("query", mcp.Description("Free-text filter on event fields")),
		mcp.WithNumber("maxResults", mcp.Description("Maximum events to return (default: 10)")),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandler("calendar_list_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	updateEventTool := mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Update fields of an existing event; omitted fields keep their values"),
		mcp.WithString("userId", mcp.Description(userIDDescription)),
		mcp.WithString("calendarId", mcp.Description("Calendar ID (default: 'primary')")),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event to update"),
		),
		mcp.WithString("summary", mcp.Description("New event title")),
		mcp.WithString("description", mcp.Description("New event description")),
		mcp.WithString("location", mcp.Description("New event location")),
		mcp.WithString("startISO", mcp.Description("New start time (RFC3339)")),
		mcp.WithString("endISO", mcp.Description("New end time (RFC3339)")),
		mcp.WithString("timeZone", mcp.Description("IANA time zone for new start/end")),
		mcp.WithArray("attendees",
			mcp.Description("Replacement guest list; omit to keep the current guests"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"email":    map[string]any{"type": "string"},
					"optional": map[string]any{"type": "boolean"},
				},
				"required": []string{"email"},
			}),
		),
		mcp.WithString("sendUpdates", mcp.Description("Notification policy: 'all' (default), 'externalOnly' or 'none'")),
	)
	s.AddTool(updateEventTool, common.InstrumentedToolHandler("calendar_update_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("userId", mcp.Description(userIDDescription)),
		mcp.WithString("calendarId", mcp.Description("Calendar ID (default: 'primary')")),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event to delete"),
		),
		mcp.WithString("sendUpdates", mcp.Description("Notification policy: 'all' (default), 'externalOnly' or 'none'")),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandler("calendar_delete_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}
