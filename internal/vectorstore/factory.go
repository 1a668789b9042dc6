package vectorstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/config"
)

// NewStore creates a Store backend from configuration.
//
// Supported providers: "chromem" (embedded, default), "qdrant" (remote via
// gRPC), "pgvector" (Postgres with the vector extension). The returned store
// is bound to the configured collection and ready for use; EnsureCollection
// has already been called.
func NewStore(ctx context.Context, cfg config.VectorStoreConfig, embedder Embedder, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store Store
		err   error
	)
	switch cfg.Provider {
	case "chromem", "":
		store, err = NewChromemStore(ChromemConfig{
			Path:       cfg.ChromemPath,
			Compress:   cfg.ChromemCompress,
			Collection: cfg.Collection,
			VectorSize: cfg.VectorSize,
		}, embedder, logger)
	case "qdrant":
		store, err = NewQdrantStore(QdrantConfig{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			UseTLS:     cfg.QdrantUseTLS,
			Collection: cfg.Collection,
			VectorSize: uint64(cfg.VectorSize),
		}, embedder, logger)
	case "pgvector":
		store, err = NewPgvectorStore(ctx, PgvectorConfig{
			URL:        cfg.PostgresURL,
			Table:      cfg.Collection,
			VectorSize: cfg.VectorSize,
		}, embedder, logger)
	default:
		return nil, fmt.Errorf("%w: unknown vector store provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s store: %w", cfg.Provider, err)
	}

	if err := store.EnsureCollection(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensuring collection %q: %w", cfg.Collection, err)
	}

	logger.Info("vector store ready",
		zap.String("provider", cfg.Provider),
		zap.String("collection", cfg.Collection),
	)
	return store, nil
}
