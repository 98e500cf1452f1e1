package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector database statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output stats as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	stats, err := ragService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("collecting stats: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("BerryRAG statistics:")
	cmd.Printf("  Documents:  %d\n", stats.DocumentCount)
	cmd.Printf("  Chunks:     %d\n", stats.ChunkCount)
	cmd.Printf("  Provider:   %s (%d dimensions)\n", stats.EmbeddingProvider, stats.EmbeddingDim)
	cmd.Printf("  Metadata:   %s\n", formatBytes(stats.MetadataBytes))
	cmd.Printf("  Vectors:    %s\n", formatBytes(stats.VectorBytes))
	cmd.Printf("  Total:      %s\n", formatBytes(stats.TotalBytes))
	cmd.Printf("  Storage:    %s\n", stats.StoragePath)
	return nil
}

// formatBytes renders a byte count in a human-readable unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
