package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/chat"
	"github.com/fyrsmithlabs/chatd/internal/vectorstore"
)

// Retrieval is the completed retrieval phase of one request: the standalone
// question, the history it was condensed from, and the retrieved sources.
// It exists so the transport can read sources before any answer bytes are
// produced.
type Retrieval struct {
	Question string
	History  []chat.Message
	Sources  []vectorstore.SearchResult
}

// Pipeline wires condenser, retriever and composer into the two-phase RAG
// flow: Retrieve runs to completion first, then Stream produces the answer.
type Pipeline struct {
	condenser *Condenser
	retriever *Retriever
	composer  *Composer
	logger    *zap.Logger
}

// NewPipeline creates a RAG pipeline over the given model and store.
func NewPipeline(model llms.Model, store vectorstore.Store, topK int, logger *zap.Logger) (*Pipeline, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	retriever, err := NewRetriever(store, topK, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		condenser: NewCondenser(model, logger),
		retriever: retriever,
		composer:  NewComposer(model, logger),
		logger:    logger,
	}, nil
}

// Retrieve condenses the conversation into a standalone question and runs
// similarity search. It returns only when the sources are final.
func (p *Pipeline) Retrieve(ctx context.Context, messages []chat.Message) (*Retrieval, error) {
	history, latest, err := chat.SplitHistory(messages)
	if err != nil {
		return nil, err
	}

	question, err := p.condenser.Condense(ctx, history, latest.Content)
	if err != nil {
		return nil, err
	}

	sources, err := p.retriever.Retrieve(ctx, question, nil)
	if err != nil {
		return nil, err
	}

	return &Retrieval{
		Question: question,
		History:  history,
		Sources:  sources,
	}, nil
}

// Stream composes the answer for a completed retrieval, forwarding token
// deltas to onChunk. Returns the complete answer text.
func (p *Pipeline) Stream(ctx context.Context, r *Retrieval, onChunk func(ctx context.Context, chunk []byte) error) (string, error) {
	return p.composer.Compose(ctx, r.Question, r.Sources, r.History, onChunk)
}

// Retriever exposes the pipeline's retriever for tool construction.
func (p *Pipeline) Retriever() *Retriever {
	return p.retriever
}
