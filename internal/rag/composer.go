package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/chat"
	"github.com/fyrsmithlabs/chatd/internal/vectorstore"
)

const answerTemplate = `You are a helpful assistant. Answer the question based only on the following context and chat history. If the context does not contain the answer, say you don't know instead of guessing.

<context>
{context}
</context>

<chat_history>
{chat_history}
</chat_history>

Question: {question}`

// Composer turns a question plus retrieved context into a streamed answer.
type Composer struct {
	model  llms.Model
	prompt prompts.PromptTemplate
	logger *zap.Logger
}

// NewComposer creates a composer backed by the given model.
func NewComposer(model llms.Model, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		model:  model,
		prompt: prompts.NewPromptTemplate(answerTemplate, []string{"context", "chat_history", "question"}),
		logger: logger,
	}
}

// Compose substitutes the question, joined context chunks and history into
// the answer prompt and streams the model's output through onChunk as it
// arrives. A mid-stream failure aborts; chunks already delivered stand.
// Returns the complete answer text.
func (c *Composer) Compose(ctx context.Context, question string, results []vectorstore.SearchResult, history []chat.Message, onChunk func(ctx context.Context, chunk []byte) error) (string, error) {
	ctx, span := ragTracer.Start(ctx, "rag.Compose")
	defer span.End()

	span.SetAttributes(
		attribute.Int("context_chunks", len(results)),
		attribute.Int("history_length", len(history)),
	)

	contexts := make([]string, len(results))
	for i, r := range results {
		contexts[i] = r.Content
	}

	prompt, err := c.prompt.Format(map[string]any{
		"context":      strings.Join(contexts, "\n\n"),
		"chat_history": chat.FormatHistory(history),
		"question":     question,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("formatting answer prompt: %w", err)
	}

	opts := []llms.CallOption{}
	if onChunk != nil {
		opts = append(opts, llms.WithStreamingFunc(onChunk))
	}

	resp, err := c.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("composing answer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	span.SetStatus(codes.Ok, "success")
	return resp.Choices[0].Content, nil
}
