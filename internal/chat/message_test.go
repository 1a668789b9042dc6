package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessages(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		wantErr  error
	}{
		{"empty", nil, ErrEmptyMessages},
		{"valid", []Message{{Role: RoleUser, Content: "hi"}}, nil},
		{"all roles", []Message{
			{Role: RoleSystem, Content: "s"},
			{Role: RoleUser, Content: "u"},
			{Role: RoleAssistant, Content: "a"},
			{Role: RoleTool, Content: "t", ToolCallID: "1"},
		}, nil},
		{"unknown role", []Message{{Role: "moderator", Content: "x"}}, ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessages(tt.messages)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitHistory(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "follow-up"},
	}

	history, latest, err := SplitHistory(messages)
	require.NoError(t, err)
	assert.Equal(t, "follow-up", latest.Content)
	require.Len(t, history, 2)
	assert.Equal(t, "first question", history[0].Content)
	assert.Equal(t, "first answer", history[1].Content)
}

func TestSplitHistorySingleMessage(t *testing.T) {
	history, latest, err := SplitHistory([]Message{{Role: RoleUser, Content: "only"}})
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, "only", latest.Content)
}

func TestSplitHistoryEmpty(t *testing.T) {
	_, _, err := SplitHistory(nil)
	assert.ErrorIs(t, err, ErrEmptyMessages)
}

func TestFormatHistory(t *testing.T) {
	got := FormatHistory([]Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi there"},
	})
	assert.Equal(t, "user: hello\nassistant: hi there", got)

	assert.Equal(t, "", FormatHistory(nil))
}
