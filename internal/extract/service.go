// Package extract implements structured-output extraction: one model call
// in JSON mode, decoded into a fixed schema.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/chat"
)

var extractTracer = otel.Tracer("chatd.extract")

var (
	// ErrMalformedOutput indicates the model produced output that does not
	// decode into the extraction schema.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

const extractionPrompt = `Extract the requested fields from the user's most recent message and respond with a JSON object, nothing else. The object has exactly these fields:
- "tone": overall tone of the message, one of "positive", "negative" or "neutral"
- "entities": array of named entities mentioned in the message
- "word_count": number of words in the message
- "chat_response": a short conversational reply to the message
- "final_punctuation": the final punctuation mark of the message, or an empty string if there is none`

// Extraction is the structured view of one user message.
type Extraction struct {
	Tone             string   `json:"tone"`
	Entities         []string `json:"entities"`
	WordCount        int      `json:"word_count"`
	ChatResponse     string   `json:"chat_response"`
	FinalPunctuation string   `json:"final_punctuation"`
}

// Service runs the extraction workflow.
type Service struct {
	model  llms.Model
	logger *zap.Logger
}

// NewService creates an extraction service backed by the given model.
func NewService(model llms.Model, logger *zap.Logger) (*Service, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{model: model, logger: logger}, nil
}

// Extract runs one JSON-mode model call over the conversation and decodes
// the result. Not streamed.
func (s *Service) Extract(ctx context.Context, messages []chat.Message) (*Extraction, error) {
	ctx, span := extractTracer.Start(ctx, "extract.Extract")
	defer span.End()

	span.SetAttributes(attribute.Int("message_count", len(messages)))

	if err := chat.ValidateMessages(messages); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	withPrompt := append([]chat.Message{{Role: chat.RoleSystem, Content: extractionPrompt}}, messages...)
	modelMessages, err := chat.ToModelMessages(withPrompt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resp, err := s.model.GenerateContent(ctx, modelMessages, llms.WithJSONMode())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("extracting structured output: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	var extraction Extraction
	raw := stripFences(resp.Choices[0].Content)
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "undecodable output")
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	switch extraction.Tone {
	case "positive", "negative", "neutral":
	default:
		return nil, fmt.Errorf("%w: unexpected tone %q", ErrMalformedOutput, extraction.Tone)
	}

	span.SetStatus(codes.Ok, "success")
	s.logger.Debug("extracted structured output",
		zap.String("tone", extraction.Tone),
		zap.Int("entities", len(extraction.Entities)),
	)
	return &extraction, nil
}

// stripFences removes a markdown code fence some providers wrap JSON-mode
// output in despite the mode hint.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
