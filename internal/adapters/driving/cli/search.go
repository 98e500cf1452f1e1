package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driving"
)

var (
	searchTopK      int
	searchThreshold float64
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored documents by semantic similarity",
	Long: `Ranks stored chunks against the query by cosine similarity and
prints the best matches.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "maximum number of results (default 5)")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", 0, "minimum cosine similarity (default 0.1)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if ragService == nil {
		return errors.New("rag service not configured")
	}

	opts := driving.SearchOptions{
		TopK:      searchTopK,
		Threshold: searchThreshold,
	}

	// Search defaults come from config when flags are unset.
	if opts.TopK <= 0 {
		opts.TopK = cfg.Search.TopK
	}
	if opts.Threshold == 0 {
		opts.Threshold = cfg.Search.Threshold
	}

	results, err := ragService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.QueryResult) error {
	type resultJSON struct {
		ChunkID    string  `json:"chunk_id"`
		Title      string  `json:"title"`
		URL        string  `json:"url"`
		Similarity float64 `json:"similarity"`
		Content    string  `json:"content"`
	}

	out := make([]resultJSON, len(results))
	for i := range results {
		out[i] = resultJSON{
			ChunkID:    results[i].Chunk.ID,
			Title:      results[i].Chunk.Title,
			URL:        results[i].Chunk.URL,
			Similarity: results[i].Similarity,
			Content:    results[i].Chunk.Content,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.QueryResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		title := results[i].Chunk.Title
		if title == "" {
			title = results[i].Chunk.URL
		}

		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, results[i].Similarity)
		cmd.Printf("      URL: %s\n", results[i].Chunk.URL)
		cmd.Printf("      %s\n", snippet(results[i].Chunk.Content, 120))
		cmd.Println()
	}
	return nil
}

// snippet shortens content to at most n characters for table output.
func snippet(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n]) + "..."
}
