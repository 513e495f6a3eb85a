package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
)

func TestParseNamePolicy(t *testing.T) {
	p, err := ParseNamePolicy("")
	require.NoError(t, err)
	assert.Equal(t, NamePolicyAlphanumeric, p)

	p, err = ParseNamePolicy(" Letters ")
	require.NoError(t, err)
	assert.Equal(t, NamePolicyLetters, p)

	_, err = ParseNamePolicy("emoji")
	assert.Error(t, err)
}

func TestValidator_Name(t *testing.T) {
	tests := []struct {
		name    string
		policy  NamePolicy
		input   string
		wantErr bool
	}{
		{name: "alphanumeric accepts digits", policy: NamePolicyAlphanumeric, input: "alice42"},
		{name: "alphanumeric rejects spaces", policy: NamePolicyAlphanumeric, input: "alice smith", wantErr: true},
		{name: "alphanumeric rejects markup", policy: NamePolicyAlphanumeric, input: "<b>alice</b>", wantErr: true},
		{name: "empty is rejected", policy: NamePolicyAlphanumeric, input: "", wantErr: true},
		{name: "too long is rejected", policy: NamePolicyAlphanumeric, input: strings.Repeat("a", maxNameLength+1), wantErr: true},
		{name: "letters accepts letters", policy: NamePolicyLetters, input: "Alice"},
		{name: "letters rejects digits", policy: NamePolicyLetters, input: "alice42", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.policy).Name(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, got)
		})
	}
}

func TestValidator_Sanitize(t *testing.T) {
	v := New(NamePolicyAlphanumeric)

	assert.Equal(t, "hi", v.Sanitize("<b>hi</b>"))
	assert.Equal(t, "hello world", v.Sanitize("  <i>hello</i> world "))
	assert.Equal(t, "", v.Sanitize("   "))
}

func TestValidator_Message(t *testing.T) {
	v := New(NamePolicyAlphanumeric)

	t.Run("sanitizes and keeps the sender", func(t *testing.T) {
		msg, err := v.Message("alice", &domain.MessageRequest{
			To:   "Todos",
			Text: "<b>hi</b>",
			Type: "message",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", msg.From)
		assert.Equal(t, "Todos", msg.To)
		assert.Equal(t, "hi", msg.Text)
		assert.Equal(t, domain.MessageTypeBroadcast, msg.Type)
	})

	t.Run("private message", func(t *testing.T) {
		msg, err := v.Message("alice", &domain.MessageRequest{To: "bob", Text: "psst", Type: "private_message"})
		require.NoError(t, err)
		assert.Equal(t, domain.MessageTypeDirect, msg.Type)
	})

	invalid := []struct {
		name string
		req  *domain.MessageRequest
	}{
		{name: "nil request", req: nil},
		{name: "status is reserved", req: &domain.MessageRequest{To: "Todos", Text: "hi", Type: "status"}},
		{name: "unknown type", req: &domain.MessageRequest{To: "Todos", Text: "hi", Type: "shout"}},
		{name: "blank recipient", req: &domain.MessageRequest{To: "  ", Text: "hi", Type: "message"}},
		{name: "text empty after stripping markup", req: &domain.MessageRequest{To: "Todos", Text: "<br/>", Type: "message"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Message("alice", tt.req)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
