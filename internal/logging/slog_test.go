package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{"empty token", "", "<empty>"},
		{"short token", "abc", "[token:3 chars]"},
		{"long token", "ya29.a0AfB_byCdEfGhIjKlMnOpQrStUvWxYz", "[token:38 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeToken(tt.token))
		})
	}
}

func TestSanitizeToken_NeverLeaksContent(t *testing.T) {
	token := "secret-token-value"
	masked := SanitizeToken(token)
	assert.NotContains(t, masked, "secret")
}

func TestErr_NilError(t *testing.T) {
	attr := Err(nil)
	// An empty group is omitted from output entirely.
	assert.Equal(t, "", attr.Key)
}

func TestErr_WithError(t *testing.T) {
	attr := Err(assert.AnError)
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, assert.AnError.Error(), attr.Value.String())
}

func TestUserID(t *testing.T) {
	attr := UserID("abc123")
	assert.Equal(t, KeyUserID, attr.Key)
	assert.Equal(t, "abc123", attr.Value.String())
}
