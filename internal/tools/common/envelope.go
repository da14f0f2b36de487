package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sundialhq/sundial/internal/google"
)

// Stable failure codes. Agents branch on these, so they never change.
const (
	CodeInvalidInput  = "invalid_input"
	CodeUserNotFound  = "user_not_found"
	CodeAmbiguousUser = "ambiguous_user"
	CodeNoCredentials = "no_credentials"
	CodeRemoteError   = "remote_error"
)

// failure is the uniform failure envelope. Every tool failure is reported
// through it; handlers never return Go errors across the tool boundary.
type failure struct {
	Success        bool              `json:"success"`
	Error          string            `json:"error"`
	Message        string            `json:"message"`
	FieldErrors    map[string]string `json:"fieldErrors,omitempty"`
	AvailableUsers []string          `json:"availableUsers,omitempty"`
}

// Success renders a success envelope. fields are merged beside the success
// flag and message, so payload keys stay at the top level where agents
// expect them.
func Success(message string, fields map[string]any) *mcp.CallToolResult {
	envelope := map[string]any{
		"success": true,
		"message": message,
	}
	for k, v := range fields {
		envelope[k] = v
	}
	return mcp.NewToolResultText(marshalEnvelope(envelope))
}

// Failure renders a failure envelope with the given code.
func Failure(code, message string) *mcp.CallToolResult {
	return failureResult(failure{Success: false, Error: code, Message: message})
}

// InvalidInput renders an invalid_input failure carrying per-field messages.
func InvalidInput(fieldErrors map[string]string) *mcp.CallToolResult {
	return failureResult(failure{
		Success:     false,
		Error:       CodeInvalidInput,
		Message:     "invalid input, see fieldErrors",
		FieldErrors: fieldErrors,
	})
}

// ResolveFailure maps a credential-resolution error to its envelope,
// including the remediation the user needs: run the authorization flow, or
// pick one of the listed users.
func ResolveFailure(err error) *mcp.CallToolResult {
	var notFound *google.UserNotFoundError
	if errors.As(err, &notFound) {
		return failureResult(failure{
			Success: false,
			Error:   CodeUserNotFound,
			Message: fmt.Sprintf("no credentials stored for user %q: run `sundial auth` and authorize, or omit userId to use the only authorized user", notFound.UserID),
		})
	}

	var ambiguous *google.AmbiguousUserError
	if errors.As(err, &ambiguous) {
		return failureResult(failure{
			Success:        false,
			Error:          CodeAmbiguousUser,
			Message:        "multiple users have authorized: pass userId to choose one of availableUsers",
			AvailableUsers: ambiguous.Candidates,
		})
	}

	if errors.Is(err, google.ErrNoCredentials) {
		return failureResult(failure{
			Success: false,
			Error:   CodeNoCredentials,
			Message: "no authorized users yet: run `sundial auth` and complete the Google consent flow",
		})
	}

	return failureResult(failure{
		Success: false,
		Error:   CodeRemoteError,
		Message: err.Error(),
	})
}

// RemoteFailure renders a remote_error envelope carrying the provider's
// message verbatim.
func RemoteFailure(err error) *mcp.CallToolResult {
	return failureResult(failure{
		Success: false,
		Error:   CodeRemoteError,
		Message: err.Error(),
	})
}

func failureResult(f failure) *mcp.CallToolResult {
	data, err := json.Marshal(f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(`{"success":false,"error":%q,"message":"failed to encode result"}`, CodeRemoteError))
	}
	return mcp.NewToolResultError(string(data))
}

func marshalEnvelope(envelope map[string]any) string {
	data, err := json.Marshal(envelope)
	if err != nil {
		// Payloads are plain structs and maps; this cannot realistically
		// fail, but a tool must still answer something parseable.
		return fmt.Sprintf(`{"success":false,"error":%q,"message":"failed to encode result"}`, CodeRemoteError)
	}
	return string(data)
}
