package chat

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var chatTracer = otel.Tracer("chatd.chat")

// systemPrompt frames the plain chat workflow. It is prepended when the
// caller's history carries no system turn of its own.
const systemPrompt = "You are a helpful assistant. Answer the user's questions directly and concisely."

// Service runs the plain streaming chat workflow: conversation in, token
// deltas out, no retrieval and no tools.
type Service struct {
	model  llms.Model
	logger *zap.Logger
}

// NewService creates a chat service backed by the given model.
func NewService(model llms.Model, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{model: model, logger: logger}
}

// Stream sends the conversation to the model and forwards each token delta
// to onChunk as it arrives. Returns the complete response text. A failure
// mid-stream aborts; chunks already delivered stand.
func (s *Service) Stream(ctx context.Context, messages []Message, onChunk func(ctx context.Context, chunk []byte) error) (string, error) {
	ctx, span := chatTracer.Start(ctx, "chat.Stream")
	defer span.End()

	span.SetAttributes(attribute.Int("message_count", len(messages)))

	if err := ValidateMessages(messages); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if messages[0].Role != RoleSystem {
		messages = append([]Message{{Role: RoleSystem, Content: systemPrompt}}, messages...)
	}

	modelMessages, err := ToModelMessages(messages)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	resp, err := s.model.GenerateContent(ctx, modelMessages, llms.WithStreamingFunc(onChunk))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("generating chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	span.SetStatus(codes.Ok, "success")
	s.logger.Debug("chat completion finished",
		zap.Int("messages", len(messages)),
		zap.Int("response_chars", len(resp.Choices[0].Content)),
	)
	return resp.Choices[0].Content, nil
}
