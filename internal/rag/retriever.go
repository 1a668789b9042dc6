package rag

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/vectorstore"
)

// ErrInvalidConfig indicates invalid pipeline configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Retriever performs top-K similarity search over the vector store.
type Retriever struct {
	store  vectorstore.Store
	topK   int
	logger *zap.Logger
}

// NewRetriever creates a retriever returning up to topK results per query.
func NewRetriever(store vectorstore.Store, topK int, logger *zap.Logger) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if topK <= 0 {
		topK = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{store: store, topK: topK, logger: logger}, nil
}

// Retrieve returns up to topK chunks ordered by descending similarity,
// optionally restricted by a metadata equality filter. The store supplies
// the ordering; no dedup or re-ranking happens here.
func (r *Retriever) Retrieve(ctx context.Context, question string, filters map[string]interface{}) ([]vectorstore.SearchResult, error) {
	ctx, span := ragTracer.Start(ctx, "rag.Retrieve")
	defer span.End()

	span.SetAttributes(
		attribute.Int("top_k", r.topK),
		attribute.Int("filter_count", len(filters)),
	)

	results, err := r.store.SearchWithFilters(ctx, question, r.topK, filters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	span.SetAttributes(attribute.Int("results", len(results)))
	span.SetStatus(codes.Ok, "success")

	r.logger.Debug("retrieved context",
		zap.Int("top_k", r.topK),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// TopK returns the configured result limit.
func (r *Retriever) TopK() int {
	return r.topK
}
