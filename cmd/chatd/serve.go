package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/agent"
	"github.com/fyrsmithlabs/chatd/internal/chat"
	"github.com/fyrsmithlabs/chatd/internal/config"
	"github.com/fyrsmithlabs/chatd/internal/embeddings"
	"github.com/fyrsmithlabs/chatd/internal/extract"
	chatdhttp "github.com/fyrsmithlabs/chatd/internal/http"
	"github.com/fyrsmithlabs/chatd/internal/ingest"
	"github.com/fyrsmithlabs/chatd/internal/llm"
	"github.com/fyrsmithlabs/chatd/internal/logging"
	"github.com/fyrsmithlabs/chatd/internal/rag"
	"github.com/fyrsmithlabs/chatd/internal/vectorstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chatd HTTP server",
	Long: `Start the chatd HTTP server with all workflow endpoints.

Examples:
  # Start with defaults (config from ~/.config/chatd/config.yaml if present)
  chatd serve

  # Start with an explicit config file
  chatd serve --config ./config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting chatd",
		zap.String("version", version),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("model", cfg.LLM.Model),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	deps, cleanup, err := buildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server, err := chatdhttp.NewServer(*deps, logger, &chatdhttp.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildServices wires the embedding provider, vector store, chat model, and
// every workflow service. The returned cleanup closes the store and the
// provider.
func buildServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*chatdhttp.Services, func(), error) {
	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		APIKey:   cfg.Embeddings.APIKey,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	store, err := vectorstore.NewStore(ctx, cfg.VectorStore, provider, logger)
	if err != nil {
		provider.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("creating vector store: %w", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing vector store", zap.Error(err))
		}
		if err := provider.Close(); err != nil {
			logger.Warn("closing embedding provider", zap.Error(err))
		}
	}

	model, err := llm.New(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("creating chat model: %w", err)
	}

	extractSvc, err := extract.NewService(model, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	pipeline, err := rag.NewPipeline(model, store, cfg.Retrieval.TopK, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	toolAgent, err := agent.New(model, []agent.Tool{agent.NewCalculator()}, cfg.Agent.MaxIterations, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	retrieverTool, err := agent.NewRetrieverTool(pipeline.Retriever())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	retrievalAgent, err := agent.New(model, []agent.Tool{retrieverTool}, cfg.Agent.MaxIterations, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	ingestSvc, err := ingest.NewService(store, ingest.Config{
		ChunkSize:    cfg.Retrieval.ChunkSize,
		ChunkOverlap: cfg.Retrieval.ChunkOverlap,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &chatdhttp.Services{
		Chat:           chat.NewService(model, logger),
		Extract:        extractSvc,
		Agent:          toolAgent,
		RetrievalAgent: retrievalAgent,
		Pipeline:       pipeline,
		Ingest:         ingestSvc,
	}, cleanup, nil
}
