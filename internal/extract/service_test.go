package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/chatd/internal/chat"
	"github.com/fyrsmithlabs/chatd/internal/llm/llmtest"
)

const sampleOutput = `{
	"tone": "positive",
	"entities": ["Go", "Rob Pike"],
	"word_count": 9,
	"chat_response": "Glad you like it!",
	"final_punctuation": "!"
}`

func TestExtract(t *testing.T) {
	model := llmtest.NewStubModel(llmtest.Response{Content: sampleOutput})
	svc, err := NewService(model, nil)
	require.NoError(t, err)

	got, err := svc.Extract(context.Background(),
		[]chat.Message{{Role: chat.RoleUser, Content: "I really love Go, thanks Rob Pike!"}})
	require.NoError(t, err)

	assert.Equal(t, "positive", got.Tone)
	assert.Equal(t, []string{"Go", "Rob Pike"}, got.Entities)
	assert.Equal(t, 9, got.WordCount)
	assert.Equal(t, "!", got.FinalPunctuation)
	assert.NotEmpty(t, got.ChatResponse)

	// The call must run in JSON mode.
	opts := model.CallOptions()
	require.Len(t, opts, 1)
	assert.True(t, opts[0].JSONMode)
}

func TestExtractStripsCodeFences(t *testing.T) {
	model := llmtest.NewStubModel(llmtest.Response{Content: "```json\n" + sampleOutput + "\n```"})
	svc, err := NewService(model, nil)
	require.NoError(t, err)

	got, err := svc.Extract(context.Background(),
		[]chat.Message{{Role: chat.RoleUser, Content: "hello!"}})
	require.NoError(t, err)
	assert.Equal(t, "positive", got.Tone)
}

func TestExtractMalformedOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "sorry, I cannot do that"},
		{"bad tone", `{"tone":"sarcastic","entities":[],"word_count":1,"chat_response":"x","final_punctuation":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(llmtest.NewStubModel(llmtest.Response{Content: tt.content}), nil)
			require.NoError(t, err)

			_, err = svc.Extract(context.Background(),
				[]chat.Message{{Role: chat.RoleUser, Content: "hi"}})
			assert.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}

func TestExtractRejectsEmptyMessages(t *testing.T) {
	svc, err := NewService(llmtest.NewStubModel(), nil)
	require.NoError(t, err)

	_, err = svc.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, chat.ErrEmptyMessages)
}

func TestNewServiceRequiresModel(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
