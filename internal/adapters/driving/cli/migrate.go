package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/storage/pgvector"
	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/storage/sqlite"
	"github.com/berrydev-ai/berry-rag/internal/logger"
)

var (
	migrateDatabaseURL string
	migrateBatchSize   int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the sqlite store into a pgvector database",
	Long: `Copies all chunks and vectors from the local sqlite store into a
PostgreSQL/pgvector database.

Vectors are copied as-is when the stored dimension matches the active
embedding provider; otherwise every chunk is re-embedded with the
active provider. This is the explicit migration path for switching
providers or moving to the pgvector backend.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDatabaseURL, "database-url", "",
		"target PostgreSQL DSN (default from config or BERRYRAG_DATABASE_URL)")
	migrateCmd.Flags().IntVar(&migrateBatchSize, "batch-size", 100,
		"chunks per progress report")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if embedder == nil {
		return errors.New("embedding provider not configured")
	}

	databaseURL := migrateDatabaseURL
	if databaseURL == "" {
		databaseURL = cfg.Storage.DatabaseURL
	}
	if databaseURL == "" {
		return errors.New("no target database: set --database-url, storage.database_url or BERRYRAG_DATABASE_URL")
	}

	ctx := cmd.Context()

	source, err := sqlite.OpenExisting(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening source store: %w", err)
	}
	defer source.Close()

	sourceDims, err := source.Dimensions()
	if err != nil {
		return err
	}

	targetDims := embedder.Dimensions()
	reembed := sourceDims != targetDims
	if reembed {
		cmd.Printf("Source dimension %d differs from provider dimension %d, re-embedding all chunks\n",
			sourceDims, targetDims)
	}

	target, err := pgvector.NewStore(ctx, databaseURL, targetDims)
	if err != nil {
		return fmt.Errorf("opening target store: %w", err)
	}
	defer target.Close()

	chunks, err := source.Scan(ctx)
	if err != nil {
		return fmt.Errorf("reading source chunks: %w", err)
	}

	cmd.Printf("Migrating %d chunks to %s\n", len(chunks), target.Path())

	migrated := 0
	for i := range chunks {
		chunk := chunks[i]

		if reembed {
			embedding, err := embedder.Embed(ctx, chunk.Content)
			if err != nil {
				logger.Error("Failed to re-embed chunk %s: %v", chunk.ID, err)
				chunk.Embedding = nil
			} else {
				chunk.Embedding = embedding
			}
		}

		if err := target.SaveChunk(ctx, &chunk); err != nil {
			return fmt.Errorf("migrating chunk %s: %w", chunk.ID, err)
		}

		migrated++
		if migrateBatchSize > 0 && migrated%migrateBatchSize == 0 {
			cmd.Printf("  %d/%d chunks migrated\n", migrated, len(chunks))
		}
	}

	cmd.Printf("Migration complete: %d chunks\n", migrated)
	return nil
}
