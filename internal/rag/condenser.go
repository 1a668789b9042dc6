// Package rag implements the retrieval-augmented generation pipeline:
// condense the follow-up into a standalone question, retrieve supporting
// chunks, compose a grounded answer.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/chat"
)

var ragTracer = otel.Tracer("chatd.rag")

const condenseTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
{chat_history}
Follow Up Input: {question}
Standalone question:`

// Condenser rewrites a follow-up utterance into a standalone question using
// one model call.
type Condenser struct {
	model  llms.Model
	prompt prompts.PromptTemplate
	logger *zap.Logger
}

// NewCondenser creates a condenser backed by the given model.
func NewCondenser(model llms.Model, logger *zap.Logger) *Condenser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Condenser{
		model:  model,
		prompt: prompts.NewPromptTemplate(condenseTemplate, []string{"chat_history", "question"}),
		logger: logger,
	}
}

// Condense produces a standalone question from history plus the latest
// utterance. With no history the utterance already stands alone, so it is
// returned verbatim without a model call.
func (c *Condenser) Condense(ctx context.Context, history []chat.Message, question string) (string, error) {
	ctx, span := ragTracer.Start(ctx, "rag.Condense")
	defer span.End()

	span.SetAttributes(attribute.Int("history_length", len(history)))

	if len(history) == 0 {
		span.SetAttributes(attribute.Bool("skipped", true))
		return question, nil
	}

	prompt, err := c.prompt.Format(map[string]any{
		"chat_history": chat.FormatHistory(history),
		"question":     question,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("formatting condense prompt: %w", err)
	}

	resp, err := c.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("condensing question: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	standalone := strings.TrimSpace(resp.Choices[0].Content)
	span.SetStatus(codes.Ok, "success")

	c.logger.Debug("condensed question",
		zap.Int("history_length", len(history)),
		zap.Int("question_chars", len(standalone)),
	)
	return standalone, nil
}
