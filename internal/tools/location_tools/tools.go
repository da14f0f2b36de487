package location_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/sundialhq/sundial/internal/location"
	"github.com/sundialhq/sundial/internal/server"
	"github.com/sundialhq/sundial/internal/tools/common"
)

// RegisterLocationTools registers the location and timezone tools with the
// MCP server.
func RegisterLocationTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	detectTool := mcp.NewTool("detect_location",
		mcp.WithDescription("Detect geographic location and timezone from an IP address"),
		mcp.WithString("ipAddress",
			mcp.Description("IP address to locate. Omit to locate the server's own public IP."),
		),
	)
	s.AddTool(detectTool, common.InstrumentedToolHandler("detect_location", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDetectLocation(ctx, request, sc)
		}))

	convertTool := mcp.NewTool("convert_timezone",
		mcp.WithDescription("Convert a clock time from one timezone to another"),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Clock time, e.g. '3:00 PM' or '15:00'"),
		),
		mcp.WithString("date",
			mcp.Description("Date: '2006-01-02', 'today', 'tomorrow' or 'yesterday' (default: today)"),
		),
		mcp.WithString("fromTimezone",
			mcp.Required(),
			mcp.Description("Source IANA timezone, e.g. 'America/New_York'"),
		),
		mcp.WithString("toTimezone",
			mcp.Required(),
			mcp.Description("Target IANA timezone, e.g. 'Europe/Berlin'"),
		),
	)
	s.AddTool(convertTool, common.InstrumentedToolHandler("convert_timezone", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleConvertTimezone(ctx, request, sc)
		}))

	return nil
}

func handleDetectLocation(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	ipAddress, _ := args["ipAddress"].(string)

	loc, err := sc.Location().Lookup(ctx, ipAddress)
	if err != nil {
		return common.RemoteFailure(err), nil
	}

	return common.Success(
		"located "+loc.Formatted(),
		map[string]any{
			"location":  loc,
			"formatted": loc.Formatted(),
			"localTime": loc.LocalTime(time.Now()),
		},
	), nil
}

func handleConvertTimezone(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	timeStr, _ := args["time"].(string)
	dateStr, _ := args["date"].(string)
	fromTZ, _ := args["fromTimezone"].(string)
	toTZ, _ := args["toTimezone"].(string)

	fieldErrors := make(map[string]string)
	if timeStr == "" {
		fieldErrors["time"] = "is required, e.g. '3:00 PM' or '15:00'"
	}
	if fromTZ == "" {
		fieldErrors["fromTimezone"] = "is required, e.g. 'America/New_York'"
	}
	if toTZ == "" {
		fieldErrors["toTimezone"] = "is required, e.g. 'Europe/Berlin'"
	}
	if len(fieldErrors) > 0 {
		return common.InvalidInput(fieldErrors), nil
	}

	conv, err := location.ConvertTime(timeStr, dateStr, fromTZ, toTZ, time.Now())
	if err != nil {
		return common.Failure(common.CodeInvalidInput, err.Error()), nil
	}

	return common.Success(conv.Message, map[string]any{
		"original":  conv.Original,
		"converted": conv.Converted,
	}), nil
}
