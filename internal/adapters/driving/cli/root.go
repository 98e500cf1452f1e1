// Package cli provides the berryrag command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/embedding"
	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/embedding/ollama"
	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/embedding/openai"
	snapshotfile "github.com/berrydev-ai/berry-rag/internal/adapters/driven/snapshot/file"
	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/storage/pgvector"
	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/storage/sqlite"
	"github.com/berrydev-ai/berry-rag/internal/chunker"
	"github.com/berrydev-ai/berry-rag/internal/config"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driven"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driving"
	"github.com/berrydev-ai/berry-rag/internal/core/services"
	"github.com/berrydev-ai/berry-rag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired once in rootCmd's PersistentPreRunE and shared by all
// subcommands.
var (
	cfg        config.Config
	ragService driving.RAGService
	chunkStore driven.ChunkStore
	embedder   driven.EmbeddingService
)

var (
	verboseFlag bool
	configFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "berryrag",
	Short: "Local vector database for retrieval-augmented generation",
	Long: `BerryRAG is a local RAG (retrieval-augmented generation) system.
It chunks documents, embeds each chunk with a pluggable provider, stores
the vectors locally (SQLite or PostgreSQL/pgvector) and serves
similarity-ranked retrieval over CLI and MCP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"config file path (default ~/.berryrag/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration and wires the retrieval engine.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)

	// version and help need no wiring.
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	// Already wired (or injected by tests).
	if ragService != nil {
		return nil
	}

	var err error
	cfg, err = config.Load(configFlag)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	embedder, err = embedding.Resolve(ctx, embedding.Config{
		Provider: cfg.Embedding.Provider,
		Ollama: ollama.Config{
			BaseURL: cfg.Embedding.OllamaURL,
			Model:   cfg.Embedding.Model,
		},
		OpenAI: openai.Config{
			APIKey: cfg.Embedding.OpenAIAPIKey,
			Model:  cfg.Embedding.Model,
		},
	})
	if err != nil {
		return fmt.Errorf("configuring embedding provider: %w", err)
	}

	// migrate opens its own source and target stores, with the source
	// kept at its recorded dimension.
	if cmd.Name() == "migrate" {
		return nil
	}

	chunkStore, err = openStore(ctx, cfg.Storage, embedder.Dimensions())
	if err != nil {
		return err
	}

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	svc := services.NewRAGService(chunkStore, embedder, splitter)

	// The snapshot lives next to the sqlite data; pgvector deployments
	// have no storage directory to publish into.
	if cfg.Storage.Backend != "pgvector" {
		if store, ok := chunkStore.(*sqlite.Store); ok {
			writer, err := snapshotfile.NewWriter(store.Path())
			if err != nil {
				return fmt.Errorf("configuring snapshot writer: %w", err)
			}
			svc.SetSnapshotWriter(writer)
		}
	}

	ragService = svc
	return nil
}

// openStore opens the configured persistence backend.
func openStore(ctx context.Context, storage config.StorageConfig, dimensions int) (driven.ChunkStore, error) {
	switch storage.Backend {
	case "", "sqlite":
		store, err := sqlite.NewStore(storage.Path, dimensions)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil

	case "pgvector":
		store, err := pgvector.NewStore(ctx, storage.DatabaseURL, dimensions)
		if err != nil {
			return nil, fmt.Errorf("opening pgvector store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q (use sqlite or pgvector)", storage.Backend)
	}
}

// teardown releases wired resources.
func teardown() error {
	if embedder != nil {
		embedder.Close() //nolint:errcheck
		embedder = nil
	}
	if chunkStore != nil {
		err := chunkStore.Close()
		chunkStore = nil
		return err
	}
	return nil
}
