package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/chat"
)

var agentTracer = otel.Tracer("chatd.agent")

var (
	// ErrNotConverged is returned when the model keeps requesting tools
	// past the iteration limit without producing a final answer.
	ErrNotConverged = errors.New("agent did not converge within iteration limit")

	// ErrInvalidConfig indicates invalid agent configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

const agentSystemPrompt = "You are a helpful assistant. Use the available tools when they help answer the question; otherwise answer directly."

// Agent runs the model/tool loop. Each iteration is one model turn: a turn
// with tool calls executes every call and appends the observations, a turn
// without tool calls is terminal.
type Agent struct {
	model         llms.Model
	tools         []Tool
	byName        map[string]Tool
	maxIterations int
	logger        *zap.Logger
}

// New creates an agent over the given model and tools. maxIterations bounds
// the number of model turns per run; zero selects the default of 10.
func New(model llms.Model, tools []Tool, maxIterations int, logger *zap.Logger) (*Agent, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if maxIterations == 0 {
		maxIterations = 10
	}
	if maxIterations < 0 {
		return nil, fmt.Errorf("%w: max iterations must be positive", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		if _, dup := byName[t.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate tool %q", ErrInvalidConfig, t.Name())
		}
		byName[t.Name()] = t
	}

	return &Agent{
		model:         model,
		tools:         tools,
		byName:        byName,
		maxIterations: maxIterations,
		logger:        logger,
	}, nil
}

// Run executes the loop to completion and returns the full conversation:
// the input messages with every assistant and tool turn appended. Tool
// observations carry the tool-call ID they answer.
func (a *Agent) Run(ctx context.Context, messages []chat.Message) ([]chat.Message, error) {
	return a.run(ctx, messages, nil)
}

// Stream executes the loop, forwarding only free-text deltas of model turns
// to onChunk. Tool-call turns produce no output. Returns the final answer.
func (a *Agent) Stream(ctx context.Context, messages []chat.Message, onChunk func(ctx context.Context, chunk []byte) error) (string, error) {
	trace, err := a.run(ctx, messages, onChunk)
	if err != nil {
		return "", err
	}
	final := trace[len(trace)-1]
	return final.Content, nil
}

func (a *Agent) run(ctx context.Context, messages []chat.Message, onChunk func(ctx context.Context, chunk []byte) error) ([]chat.Message, error) {
	ctx, span := agentTracer.Start(ctx, "agent.Run")
	defer span.End()

	span.SetAttributes(
		attribute.Int("message_count", len(messages)),
		attribute.Int("tool_count", len(a.tools)),
		attribute.Int("max_iterations", a.maxIterations),
	)

	if err := chat.ValidateMessages(messages); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// The default system prompt is injected for the model only; the
	// returned trace mirrors the input messages.
	conversation := make([]chat.Message, 0, len(messages)+4)
	injected := 0
	if messages[0].Role != chat.RoleSystem {
		conversation = append(conversation, chat.Message{Role: chat.RoleSystem, Content: agentSystemPrompt})
		injected = 1
	}
	conversation = append(conversation, messages...)

	defs := toolDefinitions(a.tools)

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		modelMessages, err := chat.ToModelMessages(conversation)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		opts := []llms.CallOption{}
		if len(defs) > 0 {
			opts = append(opts, llms.WithTools(defs))
		}
		if onChunk != nil {
			opts = append(opts, llms.WithStreamingFunc(onChunk))
		}

		resp, err := a.model.GenerateContent(ctx, modelMessages, opts...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("agent model turn %d: %w", iteration+1, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("model returned no choices")
		}
		choice := resp.Choices[0]

		assistant := chat.Message{
			Role:      chat.RoleAssistant,
			Content:   choice.Content,
			ToolCalls: chat.FromToolCalls(choice.ToolCalls),
		}
		conversation = append(conversation, assistant)

		if len(choice.ToolCalls) == 0 {
			span.SetAttributes(attribute.Int("iterations", iteration+1))
			span.SetStatus(codes.Ok, "success")
			a.logger.Debug("agent converged",
				zap.Int("iterations", iteration+1),
				zap.Int("turns", len(conversation)),
			)
			return conversation[injected:], nil
		}

		for _, tc := range choice.ToolCalls {
			observation := a.execute(ctx, tc)
			conversation = append(conversation, observation)
		}
	}

	span.SetStatus(codes.Error, "iteration limit reached")
	a.logger.Warn("agent did not converge",
		zap.Int("max_iterations", a.maxIterations),
	)
	return nil, fmt.Errorf("%w: %d iterations", ErrNotConverged, a.maxIterations)
}

// execute runs one tool call and returns its observation turn. Failures
// become observation text so the model can recover or rephrase; only the
// loop itself produces errors.
func (a *Agent) execute(ctx context.Context, tc llms.ToolCall) chat.Message {
	name := ""
	args := ""
	if tc.FunctionCall != nil {
		name = tc.FunctionCall.Name
		args = tc.FunctionCall.Arguments
	}

	observation := chat.Message{
		Role:       chat.RoleTool,
		ToolCallID: tc.ID,
		Name:       name,
	}

	tool, ok := a.byName[name]
	if !ok {
		observation.Content = fmt.Sprintf("error: unknown tool %q", name)
		return observation
	}

	result, err := tool.Call(ctx, args)
	if err != nil {
		a.logger.Warn("tool call failed",
			zap.String("tool", name),
			zap.Error(err),
		)
		observation.Content = fmt.Sprintf("error: %v", err)
		return observation
	}

	observation.Content = result
	return observation
}
