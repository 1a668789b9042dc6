package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/llm/llmtest"
)

func TestStreamDeliversChunks(t *testing.T) {
	model := llmtest.NewStubModel(llmtest.Response{Content: "hello from the model"})
	svc := NewService(model, zap.NewNop())

	var streamed strings.Builder
	full, err := svc.Stream(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}},
		func(_ context.Context, chunk []byte) error {
			streamed.Write(chunk)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "hello from the model", full)
	assert.Equal(t, full, streamed.String())
}

func TestStreamPrependsSystemPrompt(t *testing.T) {
	model := llmtest.NewStubModel(llmtest.Response{Content: "ok"})
	svc := NewService(model, nil)

	_, err := svc.Stream(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}},
		func(context.Context, []byte) error { return nil })
	require.NoError(t, err)

	calls := model.Calls()
	require.Len(t, calls, 1)
	require.NotEmpty(t, calls[0])
	assert.Equal(t, llms.ChatMessageTypeSystem, calls[0][0].Role)
}

func TestStreamKeepsCallerSystemPrompt(t *testing.T) {
	model := llmtest.NewStubModel(llmtest.Response{Content: "ok"})
	svc := NewService(model, nil)

	_, err := svc.Stream(context.Background(), []Message{
		{Role: RoleSystem, Content: "custom persona"},
		{Role: RoleUser, Content: "hi"},
	}, func(context.Context, []byte) error { return nil })
	require.NoError(t, err)

	calls := model.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 2)
}

func TestStreamRejectsEmptyMessages(t *testing.T) {
	svc := NewService(llmtest.NewStubModel(), nil)

	_, err := svc.Stream(context.Background(), nil,
		func(context.Context, []byte) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyMessages)
}

func TestStreamPropagatesModelError(t *testing.T) {
	wantErr := errors.New("rate limited")
	svc := NewService(llmtest.NewStubModel(llmtest.Response{Err: wantErr}), nil)

	_, err := svc.Stream(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}},
		func(context.Context, []byte) error { return nil })
	assert.ErrorIs(t, err, wantErr)
}
