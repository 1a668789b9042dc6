// Package config provides configuration loading for chatd.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig indicates invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration for chatd.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	LLM         LLMConfig         `koanf:"llm"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Agent       AgentConfig       `koanf:"agent"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// LLMConfig holds chat model provider configuration.
//
// The provider is any OpenAI-compatible chat completion API. BaseURL may
// point at api.openai.com or a self-hosted compatible server.
type LLMConfig struct {
	BaseURL     string  `koanf:"base_url"`
	APIKey      string  `koanf:"api_key"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	// Provider is "openai" (hosted, OpenAI-compatible) or "fastembed" (local ONNX).
	Provider string `koanf:"provider"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
	Model    string `koanf:"model"`
	// CacheDir is the model cache directory (fastembed only).
	CacheDir string `koanf:"cache_dir"`
}

// VectorStoreConfig holds vector store configuration.
type VectorStoreConfig struct {
	// Provider is "chromem" (embedded, default), "qdrant" or "pgvector".
	Provider string `koanf:"provider"`

	// Collection is the default collection (or table) for documents.
	Collection string `koanf:"collection"`

	// VectorSize is the embedding dimensionality. Must match the embedding
	// model; similarity search is undefined when dimensions disagree.
	VectorSize int `koanf:"vector_size"`

	// Chromem settings.
	ChromemPath     string `koanf:"chromem_path"`
	ChromemCompress bool   `koanf:"chromem_compress"`

	// Qdrant settings (gRPC port, not HTTP).
	QdrantHost   string `koanf:"qdrant_host"`
	QdrantPort   int    `koanf:"qdrant_port"`
	QdrantUseTLS bool   `koanf:"qdrant_use_tls"`

	// Postgres settings (pgvector).
	PostgresURL string `koanf:"postgres_url"`
}

// RetrievalConfig holds RAG pipeline configuration.
type RetrievalConfig struct {
	// TopK is the number of chunks fetched per query.
	TopK int `koanf:"top_k"`
	// ChunkSize and ChunkOverlap control ingestion splitting.
	ChunkSize    int `koanf:"chunk_size"`
	ChunkOverlap int `koanf:"chunk_overlap"`
}

// AgentConfig holds tool-agent configuration.
type AgentConfig struct {
	// MaxIterations bounds the model/tool loop. Exceeding it is reported
	// as a non-convergence error rather than looping forever.
	MaxIterations int `koanf:"max_iterations"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("%w: logging format must be json or console, got %q", ErrInvalidConfig, c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown logging level %q", ErrInvalidConfig, c.Logging.Level)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm model required", ErrInvalidConfig)
	}
	switch c.Embeddings.Provider {
	case "openai", "fastembed":
	default:
		return fmt.Errorf("%w: unknown embeddings provider %q", ErrInvalidConfig, c.Embeddings.Provider)
	}
	switch c.VectorStore.Provider {
	case "chromem", "qdrant", "pgvector":
	default:
		return fmt.Errorf("%w: unknown vectorstore provider %q", ErrInvalidConfig, c.VectorStore.Provider)
	}
	if c.VectorStore.Provider == "pgvector" && c.VectorStore.PostgresURL == "" {
		return fmt.Errorf("%w: postgres_url required for pgvector provider", ErrInvalidConfig)
	}
	if c.VectorStore.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval top_k must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalidConfig, c.Retrieval.ChunkOverlap, c.Retrieval.ChunkSize)
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("%w: agent max_iterations must be positive", ErrInvalidConfig)
	}
	return nil
}
