package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	docs, err := ragService.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents stored.")
		return nil
	}

	cmd.Printf("%d document(s):\n\n", len(docs))
	for _, doc := range docs {
		cmd.Printf("  %s\n", doc.Title)
		cmd.Printf("      URL: %s\n", doc.URL)
		cmd.Printf("      Chunks: %d, Length: %d, Source: %s\n", doc.ChunkCount, doc.ContentLength, doc.Source)
		cmd.Printf("      Added: %s\n", doc.Timestamp.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}
	return nil
}
