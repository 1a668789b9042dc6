package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, "chatd_documents", cfg.VectorStore.Collection)
	assert.Equal(t, 1536, cfg.VectorStore.VectorSize)
	assert.Equal(t, 6, cfg.Retrieval.TopK)
	assert.Equal(t, 256, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 20, cfg.Retrieval.ChunkOverlap)
	assert.Equal(t, 10, cfg.Agent.MaxIterations)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9191
llm:
  model: gpt-4o
vectorstore:
  provider: qdrant
  qdrant_host: qdrant.internal
retrieval:
  top_k: 3
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "qdrant", cfg.VectorStore.Provider)
	assert.Equal(t, "qdrant.internal", cfg.VectorStore.QdrantHost)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0600))

	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SERVER_PORT", "server.port"},
		{"LLM_BASE_URL", "llm.base_url"},
		{"VECTORSTORE_QDRANT_HOST", "vectorstore.qdrant_host"},
		{"PATH", "path"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, envTransform(tt.in), tt.in)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = -1 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"missing model", func(c *Config) { c.LLM.Model = "" }},
		{"bad embeddings provider", func(c *Config) { c.Embeddings.Provider = "cohere" }},
		{"bad vectorstore provider", func(c *Config) { c.VectorStore.Provider = "weaviate" }},
		{"pgvector without url", func(c *Config) {
			c.VectorStore.Provider = "pgvector"
			c.VectorStore.PostgresURL = ""
		}},
		{"zero vector size", func(c *Config) { c.VectorStore.VectorSize = 0 }},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }},
		{"overlap >= chunk size", func(c *Config) {
			c.Retrieval.ChunkSize = 100
			c.Retrieval.ChunkOverlap = 100
		}},
		{"zero max iterations", func(c *Config) { c.Agent.MaxIterations = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
