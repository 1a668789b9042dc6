package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// pgvectorTracer for OpenTelemetry instrumentation.
var pgvectorTracer = otel.Tracer("chatd.vectorstore.pgvector")

// PgvectorConfig holds configuration for the Postgres pgvector backend.
type PgvectorConfig struct {
	// URL is the Postgres connection string.
	URL string

	// Table is the documents table name. Validated against the same naming
	// rules as collections since it is interpolated into SQL.
	Table string

	// VectorSize is the dimensionality of the embedding column.
	// MUST match Embedder output dimensions.
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *PgvectorConfig) ApplyDefaults() {
	if c.Table == "" {
		c.Table = "chatd_documents"
	}
}

// Validate validates the configuration.
func (c PgvectorConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: postgres URL required", ErrInvalidConfig)
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size required", ErrInvalidConfig)
	}
	return ValidateCollectionName(c.Table)
}

// PgvectorStore is a Store implementation backed by Postgres with the
// pgvector extension.
//
// Similarity search runs inside the database: the cosine distance operator
// (<=>) orders rows and `1 - distance` yields the similarity score, so
// ordering and scoring match the other backends.
type PgvectorStore struct {
	pool     *pgxpool.Pool
	embedder Embedder
	config   PgvectorConfig
	logger   *zap.Logger
}

// NewPgvectorStore creates a new PgvectorStore with the given configuration.
//
// pgvector types are registered on every pooled connection so []float32
// embeddings round-trip through the vector column type.
func NewPgvectorStore(ctx context.Context, config PgvectorConfig, embedder Embedder, logger *zap.Logger) (*PgvectorStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(config.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing postgres URL: %v", ErrInvalidConfig, err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	logger.Info("pgvector store initialized",
		zap.String("table", config.Table),
		zap.Int("vector_size", config.VectorSize),
	)

	return &PgvectorStore{
		pool:     pool,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}, nil
}

// AddDocuments adds documents to the vector store.
func (s *PgvectorStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	ctx, span := pgvectorTracer.Start(ctx, "PgvectorStore.AddDocuments")
	defer span.End()

	span.SetAttributes(
		attribute.Int("document_count", len(docs)),
		attribute.String("table", s.config.Table),
	)

	if len(docs) == 0 {
		return nil, ErrEmptyDocuments
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (id, content, metadata, embedding) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET content = EXCLUDED.content, metadata = EXCLUDED.metadata,
		     embedding = EXCLUDED.embedding, updated_at = now()`,
		s.config.Table,
	)

	batch := &pgx.Batch{}
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		if ids[i] == "" {
			ids[i] = uuid.New().String()
		}
		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		batch.Queue(insertSQL, ids[i], doc.Content, metadata, pgvector.NewVector(embeddings[i]))
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range docs {
		if _, err := br.Exec(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("inserting documents into %s: %w", s.config.Table, err)
		}
	}

	span.SetAttributes(attribute.Int("documents_added", len(ids)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("added documents to pgvector",
		zap.String("table", s.config.Table),
		zap.Int("count", len(docs)),
	)

	return ids, nil
}

// Search performs similarity search in the store's table.
func (s *PgvectorStore) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	return s.SearchWithFilters(ctx, query, k, nil)
}

// SearchWithFilters performs similarity search with metadata filters.
// Filters use jsonb containment, so only rows whose metadata contains all
// filter entries match.
func (s *PgvectorStore) SearchWithFilters(ctx context.Context, query string, k int, filters map[string]interface{}) ([]SearchResult, error) {
	ctx, span := pgvectorTracer.Start(ctx, "PgvectorStore.SearchWithFilters")
	defer span.End()

	span.SetAttributes(
		attribute.String("table", s.config.Table),
		attribute.Int("k", k),
	)

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	var rows pgx.Rows
	if len(filters) > 0 {
		searchSQL := fmt.Sprintf(
			`SELECT id, content, metadata, 1 - (embedding <=> $1) AS similarity
			 FROM %s
			 WHERE metadata @> $3
			 ORDER BY embedding <=> $1
			 LIMIT $2`,
			s.config.Table,
		)
		rows, err = s.pool.Query(ctx, searchSQL, pgvector.NewVector(queryVector), k, filters)
	} else {
		searchSQL := fmt.Sprintf(
			`SELECT id, content, metadata, 1 - (embedding <=> $1) AS similarity
			 FROM %s
			 ORDER BY embedding <=> $1
			 LIMIT $2`,
			s.config.Table,
		)
		rows, err = s.pool.Query(ctx, searchSQL, pgvector.NewVector(queryVector), k)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching table %s: %w", s.config.Table, err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r          SearchResult
			similarity float64
		)
		if err := rows.Scan(&r.ID, &r.Content, &r.Metadata, &similarity); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = float32(similarity)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	span.SetAttributes(attribute.Int("results_count", len(results)))
	span.SetStatus(codes.Ok, "success")
	return results, nil
}

// DeleteDocuments deletes documents by their IDs.
func (s *PgvectorStore) DeleteDocuments(ctx context.Context, ids []string) error {
	ctx, span := pgvectorTracer.Start(ctx, "PgvectorStore.DeleteDocuments")
	defer span.End()

	span.SetAttributes(
		attribute.Int("id_count", len(ids)),
		attribute.String("table", s.config.Table),
	)

	if len(ids) == 0 {
		return nil
	}

	deleteSQL := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.config.Table)
	if _, err := s.pool.Exec(ctx, deleteSQL, ids); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting documents from %s: %w", s.config.Table, err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// EnsureCollection creates the extension, table and index if missing.
func (s *PgvectorStore) EnsureCollection(ctx context.Context) error {
	ctx, span := pgvectorTracer.Start(ctx, "PgvectorStore.EnsureCollection")
	defer span.End()

	span.SetAttributes(attribute.String("table", s.config.Table))

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				id text PRIMARY KEY,
				content text NOT NULL,
				metadata jsonb NOT NULL DEFAULT '{}',
				embedding vector(%d),
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now()
			)`,
			s.config.Table, s.config.VectorSize,
		),
		fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s
			 USING hnsw (embedding vector_cosine_ops)`,
			s.config.Table, s.config.Table,
		),
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("ensuring table %s: %w", s.config.Table, err)
		}
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// CollectionInfo returns row count and vector size for the table.
func (s *PgvectorStore) CollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	ctx, span := pgvectorTracer.Start(ctx, "PgvectorStore.CollectionInfo")
	defer span.End()

	countSQL := fmt.Sprintf(`SELECT count(*) FROM %s`, s.config.Table)

	var count int
	if err := s.pool.QueryRow(ctx, countSQL).Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("counting rows in %s: %w", s.config.Table, err)
	}

	span.SetStatus(codes.Ok, "success")
	return &CollectionInfo{
		Name:       s.config.Table,
		PointCount: count,
		VectorSize: s.config.VectorSize,
	}, nil
}

// Close closes the connection pool.
func (s *PgvectorStore) Close() error {
	s.pool.Close()
	return nil
}

// Ensure PgvectorStore implements Store interface.
var _ Store = (*PgvectorStore)(nil)
