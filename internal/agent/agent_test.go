package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/fyrsmithlabs/chatd/internal/chat"
	"github.com/fyrsmithlabs/chatd/internal/llm/llmtest"
)

func calculatorCall(id, expression string) llms.ToolCall {
	return llms.ToolCall{
		ID:   id,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      "calculator",
			Arguments: `{"expression":"` + expression + `"}`,
		},
	}
}

func TestAgentAnswersWithCalculator(t *testing.T) {
	model := llmtest.NewStubModel(
		llmtest.Response{ToolCalls: []llms.ToolCall{calculatorCall("call_1", "2+2")}},
		llmtest.Response{Content: "The answer is 4."},
	)
	a, err := New(model, []Tool{NewCalculator()}, 10, nil)
	require.NoError(t, err)

	trace, err := a.Run(context.Background(),
		[]chat.Message{{Role: chat.RoleUser, Content: "What is 2+2?"}})
	require.NoError(t, err)

	// user + assistant(tool call) + tool + assistant(final)
	require.Len(t, trace, 4)
	assert.Equal(t, chat.RoleTool, trace[2].Role)
	assert.Equal(t, "call_1", trace[2].ToolCallID)
	assert.Equal(t, "4", trace[2].Content)
	assert.Contains(t, trace[3].Content, "4")
}

func TestAgentTraceMirrorsInput(t *testing.T) {
	model := llmtest.NewStubModel(llmtest.Response{Content: "Hello."})
	a, err := New(model, []Tool{NewCalculator()}, 10, nil)
	require.NoError(t, err)

	input := []chat.Message{{Role: chat.RoleUser, Content: "hi"}}
	trace, err := a.Run(context.Background(), input)
	require.NoError(t, err)

	// The default system prompt reaches the model but not the trace.
	require.Len(t, trace, 2)
	assert.Equal(t, input[0], trace[0])
	assert.Equal(t, chat.RoleAssistant, trace[1].Role)
}

func TestAgentKeepsCallerSystemTurn(t *testing.T) {
	model := llmtest.NewStubModel(llmtest.Response{Content: "Arr."})
	a, err := New(model, nil, 10, nil)
	require.NoError(t, err)

	trace, err := a.Run(context.Background(), []chat.Message{
		{Role: chat.RoleSystem, Content: "Talk like a pirate."},
		{Role: chat.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)

	require.Len(t, trace, 3)
	assert.Equal(t, chat.RoleSystem, trace[0].Role)
	assert.Equal(t, "Talk like a pirate.", trace[0].Content)
}

func TestAgentStreamForwardsOnlyFreeText(t *testing.T) {
	model := llmtest.NewStubModel(
		llmtest.Response{ToolCalls: []llms.ToolCall{calculatorCall("call_1", "2+2")}},
		llmtest.Response{Content: "The answer is 4."},
	)
	a, err := New(model, []Tool{NewCalculator()}, 10, nil)
	require.NoError(t, err)

	var streamed strings.Builder
	answer, err := a.Stream(context.Background(),
		[]chat.Message{{Role: chat.RoleUser, Content: "What is 2+2?"}},
		func(_ context.Context, chunk []byte) error {
			streamed.Write(chunk)
			return nil
		})
	require.NoError(t, err)
	assert.Contains(t, answer, "4")
	assert.Equal(t, "The answer is 4.", streamed.String(),
		"tool-call turns must not leak into the stream")
}

func TestAgentPairsObservationsByCallID(t *testing.T) {
	// Two calls in one turn, scripted out of natural order.
	model := llmtest.NewStubModel(
		llmtest.Response{ToolCalls: []llms.ToolCall{
			calculatorCall("call_b", "10*3"),
			calculatorCall("call_a", "1+1"),
		}},
		llmtest.Response{Content: "done"},
	)
	a, err := New(model, []Tool{NewCalculator()}, 10, nil)
	require.NoError(t, err)

	trace, err := a.Run(context.Background(),
		[]chat.Message{{Role: chat.RoleUser, Content: "compute both"}})
	require.NoError(t, err)

	byID := map[string]string{}
	for _, m := range trace {
		if m.Role == chat.RoleTool {
			byID[m.ToolCallID] = m.Content
		}
	}
	assert.Equal(t, "30", byID["call_b"])
	assert.Equal(t, "2", byID["call_a"])
}

func TestAgentNotConverged(t *testing.T) {
	// The model requests a tool on every turn and never terminates.
	responses := make([]llmtest.Response, 3)
	for i := range responses {
		responses[i] = llmtest.Response{ToolCalls: []llms.ToolCall{calculatorCall("call_x", "1+1")}}
	}
	model := llmtest.NewStubModel(responses...)

	a, err := New(model, []Tool{NewCalculator()}, 3, nil)
	require.NoError(t, err)

	_, err = a.Run(context.Background(),
		[]chat.Message{{Role: chat.RoleUser, Content: "loop forever"}})
	assert.ErrorIs(t, err, ErrNotConverged)
	assert.Equal(t, 3, model.CallCount())
}

func TestAgentUnknownToolBecomesObservation(t *testing.T) {
	model := llmtest.NewStubModel(
		llmtest.Response{ToolCalls: []llms.ToolCall{{
			ID:           "call_1",
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: "teleport", Arguments: `{}`},
		}}},
		llmtest.Response{Content: "I cannot do that."},
	)
	a, err := New(model, []Tool{NewCalculator()}, 10, nil)
	require.NoError(t, err)

	trace, err := a.Run(context.Background(),
		[]chat.Message{{Role: chat.RoleUser, Content: "teleport me"}})
	require.NoError(t, err)

	var observation *chat.Message
	for i := range trace {
		if trace[i].Role == chat.RoleTool {
			observation = &trace[i]
		}
	}
	require.NotNil(t, observation)
	assert.Contains(t, observation.Content, "unknown tool")
}

func TestAgentRejectsDuplicateTools(t *testing.T) {
	_, err := New(llmtest.NewStubModel(), []Tool{NewCalculator(), NewCalculator()}, 10, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAgentRejectsEmptyMessages(t *testing.T) {
	a, err := New(llmtest.NewStubModel(), nil, 10, nil)
	require.NoError(t, err)

	_, err = a.Run(context.Background(), nil)
	assert.ErrorIs(t, err, chat.ErrEmptyMessages)
}
