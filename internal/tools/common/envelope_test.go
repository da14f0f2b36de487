package common

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundialhq/sundial/internal/google"
)

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func decodeEnvelope(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &envelope))
	return envelope
}

func TestSuccessEnvelope(t *testing.T) {
	result := Success("created event", map[string]any{
		"eventId":  "evt1",
		"meetLink": "https://meet.google.com/abc",
	})

	assert.False(t, result.IsError)
	envelope := decodeEnvelope(t, result)
	assert.Equal(t, true, envelope["success"])
	assert.Equal(t, "created event", envelope["message"])
	assert.Equal(t, "evt1", envelope["eventId"], "payload fields stay top-level")
}

func TestFailureEnvelopeStableFields(t *testing.T) {
	result := Failure(CodeRemoteError, "calendar said no")

	assert.True(t, result.IsError)
	envelope := decodeEnvelope(t, result)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "remote_error", envelope["error"])
	assert.Equal(t, "calendar said no", envelope["message"])
}

func TestInvalidInputCarriesFieldErrors(t *testing.T) {
	result := InvalidInput(map[string]string{
		"timeMin": "not an RFC3339 timestamp",
	})

	envelope := decodeEnvelope(t, result)
	assert.Equal(t, "invalid_input", envelope["error"])
	fieldErrors := envelope["fieldErrors"].(map[string]any)
	assert.Equal(t, "not an RFC3339 timestamp", fieldErrors["timeMin"])
}

func TestResolveFailureMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"user not found", &google.UserNotFoundError{UserID: "u1"}, CodeUserNotFound},
		{"ambiguous", &google.AmbiguousUserError{Candidates: []string{"a", "b"}}, CodeAmbiguousUser},
		{"no credentials", google.ErrNoCredentials, CodeNoCredentials},
		{"anything else", errors.New("disk on fire"), CodeRemoteError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope := decodeEnvelope(t, ResolveFailure(tt.err))
			assert.Equal(t, tt.wantCode, envelope["error"])
		})
	}
}

func TestResolveFailureAmbiguousListsUsers(t *testing.T) {
	envelope := decodeEnvelope(t, ResolveFailure(&google.AmbiguousUserError{Candidates: []string{"alice", "bob"}}))

	users := envelope["availableUsers"].([]any)
	assert.ElementsMatch(t, []any{"alice", "bob"}, users)
	assert.Contains(t, envelope["message"], "userId")
}

func TestResolveFailureRemediationHints(t *testing.T) {
	envelope := decodeEnvelope(t, ResolveFailure(google.ErrNoCredentials))
	assert.Contains(t, envelope["message"], "sundial auth")

	envelope = decodeEnvelope(t, ResolveFailure(&google.UserNotFoundError{UserID: "ghost"}))
	assert.Contains(t, envelope["message"], "ghost")
}
