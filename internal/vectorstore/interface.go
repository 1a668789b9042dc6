// Package vectorstore defines the interface for vector storage operations.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrConnectionFailed indicates a backend connection failure.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. Query and document vectors must share
// one dimensionality or similarity search is undefined.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns a slice of embeddings (one per input text) or an error.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CollectionInfo contains metadata about a vector collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`

	// PointCount is the number of vectors in the collection.
	PointCount int `json:"point_count"`

	// VectorSize is the dimensionality of vectors in this collection.
	VectorSize int `json:"vector_size"`
}

// Store is the interface for vector storage operations.
//
// A Store is bound to one collection at construction. The interface is
// transport-agnostic; implementations may be embedded (chromem-go), gRPC
// (Qdrant) or SQL (Postgres with pgvector).
//
// Search results are ordered by descending similarity, with scores
// normalized to [0,1] where 1 means identical direction (1 − cosine
// distance).
type Store interface {
	// AddDocuments embeds and stores documents with their metadata.
	// Documents without an ID get a generated one. Returns the stored IDs.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search performs similarity search for the query text, returning up to
	// k results ordered by descending similarity.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// SearchWithFilters performs similarity search restricted to documents
	// whose metadata matches ALL filter entries by equality.
	SearchWithFilters(ctx context.Context, query string, k int, filters map[string]interface{}) ([]SearchResult, error)

	// DeleteDocuments deletes documents by their IDs.
	DeleteDocuments(ctx context.Context, ids []string) error

	// EnsureCollection creates the store's collection if it does not exist.
	// Idempotent; used at startup and before ingestion.
	EnsureCollection(ctx context.Context) error

	// CollectionInfo returns point count and vector size for the collection.
	// Returns ErrCollectionNotFound if the collection does not exist.
	CollectionInfo(ctx context.Context) (*CollectionInfo, error)

	// Close closes the vector store connection and releases resources.
	Close() error
}
