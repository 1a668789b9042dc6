// Package ingest splits raw text into overlapping chunks and stores them in
// the vector store for later retrieval.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tmc/langchaingo/textsplitter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/vectorstore"
)

var ingestTracer = otel.Tracer("chatd.ingest")

var (
	// ErrEmptyText indicates empty input text.
	ErrEmptyText = errors.New("empty input text")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds configuration for the ingestion service.
type Config struct {
	// ChunkSize is the window size in characters.
	// Default: 256
	ChunkSize int

	// ChunkOverlap is how many characters adjacent windows share.
	// Default: 20
	ChunkOverlap int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 256
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 20
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", ErrInvalidConfig)
	}
	return nil
}

// Service ingests documents: split, embed, store.
type Service struct {
	store    vectorstore.Store
	splitter textsplitter.RecursiveCharacter
	config   Config
	logger   *zap.Logger
}

// NewService creates an ingestion service writing to the given store.
func NewService(store vectorstore.Store, config Config, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(config.ChunkSize),
		textsplitter.WithChunkOverlap(config.ChunkOverlap),
	)

	return &Service{
		store:    store,
		splitter: splitter,
		config:   config,
		logger:   logger,
	}, nil
}

// IngestText splits text into overlapping windows and stores one document
// per window. The given metadata is copied onto every chunk, plus
// chunk_index and ingested_at. Returns the stored document IDs.
func (s *Service) IngestText(ctx context.Context, text string, metadata map[string]interface{}) ([]string, error) {
	ctx, span := ingestTracer.Start(ctx, "ingest.IngestText")
	defer span.End()

	span.SetAttributes(attribute.Int("text_length", len(text)))

	if text == "" {
		span.SetStatus(codes.Error, "empty text")
		return nil, ErrEmptyText
	}

	chunks, err := s.splitter.SplitText(text)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("splitting text: %w", err)
	}
	if len(chunks) == 0 {
		span.SetStatus(codes.Error, "no chunks produced")
		return nil, ErrEmptyText
	}

	ingestedAt := time.Now().UTC().Format(time.RFC3339)
	docs := make([]vectorstore.Document, len(chunks))
	for i, chunk := range chunks {
		docMeta := make(map[string]interface{}, len(metadata)+2)
		for k, v := range metadata {
			docMeta[k] = v
		}
		docMeta["chunk_index"] = i
		docMeta["ingested_at"] = ingestedAt
		docs[i] = vectorstore.Document{Content: chunk, Metadata: docMeta}
	}

	ids, err := s.store.AddDocuments(ctx, docs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("storing chunks: %w", err)
	}

	span.SetAttributes(attribute.Int("chunks_stored", len(ids)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Info("ingested text",
		zap.Int("text_length", len(text)),
		zap.Int("chunks", len(ids)),
	)
	return ids, nil
}

// IngestFile reads a file and ingests its content with source metadata.
func (s *Service) IngestFile(ctx context.Context, path string) ([]string, error) {
	ctx, span := ingestTracer.Start(ctx, "ingest.IngestFile")
	defer span.End()

	span.SetAttributes(attribute.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return s.IngestText(ctx, string(data), map[string]interface{}{
		"source": filepath.Base(path),
	})
}
