package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyTool      = "tool"
	KeyUserID    = "user_id"
	KeyCalendar  = "calendar_id"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyDuration  = "duration"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Setup configures the default slog logger. When debug is true the level is
// lowered to Debug. Output goes to stderr so the stdio MCP transport keeps
// stdout clean.
func Setup(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// UserID returns a slog attribute for the opaque user identifier.
// User ids are random identifiers minted by the authorization flow, not PII.
func UserID(id string) slog.Attr {
	return slog.String(KeyUserID, id)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that slog omits from output,
// so Err(maybeNilErr) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithUserID returns a logger with the user id attribute set.
func WithUserID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With(slog.String(KeyUserID, id))
}

// SanitizeToken returns a masked version of a token for logging.
// Only a length indicator is emitted; even partial token prefixes can aid
// attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
