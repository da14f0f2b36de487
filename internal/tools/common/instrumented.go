package common

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sundialhq/sundial/internal/instrumentation"
	"github.com/sundialhq/sundial/internal/logging"
	"github.com/sundialhq/sundial/internal/server"
)

// InstrumentedToolHandler wraps a tool handler with invocation metrics and
// logging. A handler that returns an error envelope (IsError) counts as an
// error even though no Go error crossed the boundary.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		slog.Debug("tool invocation",
			logging.Tool(toolName),
			logging.Status(status),
			slog.Duration(logging.KeyDuration, duration),
			logging.Err(err),
		)

		return result, err
	}
}
