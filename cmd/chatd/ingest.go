package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/config"
	"github.com/fyrsmithlabs/chatd/internal/embeddings"
	"github.com/fyrsmithlabs/chatd/internal/ingest"
	"github.com/fyrsmithlabs/chatd/internal/logging"
	"github.com/fyrsmithlabs/chatd/internal/vectorstore"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file> [file...]",
	Short: "Ingest text files into the vector store",
	Long: `Split text files into chunks, embed them, and store them for retrieval.

Examples:
  # Ingest one file
  chatd ingest notes.txt

  # Ingest several files
  chatd ingest docs/*.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()

	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		APIKey:   cfg.Embeddings.APIKey,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	defer provider.Close() //nolint:errcheck

	store, err := vectorstore.NewStore(ctx, cfg.VectorStore, provider, logger)
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	svc, err := ingest.NewService(store, ingest.Config{
		ChunkSize:    cfg.Retrieval.ChunkSize,
		ChunkOverlap: cfg.Retrieval.ChunkOverlap,
	}, logger)
	if err != nil {
		return err
	}

	total := 0
	for _, path := range args {
		ids, err := svc.IngestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		total += len(ids)
		logger.Info("ingested file",
			zap.String("path", path),
			zap.Int("chunks", len(ids)),
		)
	}

	fmt.Printf("Ingested %d chunks from %d files into collection %q\n",
		total, len(args), cfg.VectorStore.Collection)
	return nil
}
