package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var addSource string

var addCmd = &cobra.Command{
	Use:   "add [url] [title] [content-file]",
	Short: "Add a document to the vector database",
	Long: `Chunks the document, embeds each chunk and stores the result.
Content is read from the given file, or from stdin when the file is "-".
Re-adding identical content under the same URL is a no-op that reports
the existing document ID.`,
	Args: cobra.ExactArgs(3),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addSource, "source", "", "source label stored in the document metadata")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	url, title, contentFile := args[0], args[1], args[2]

	if ragService == nil {
		return errors.New("rag service not configured")
	}

	var content []byte
	var err error
	if contentFile == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(contentFile)
	}
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}

	metadata := map[string]any{}
	if addSource != "" {
		metadata["source"] = addSource
	}

	docID, err := ragService.AddDocument(cmd.Context(), url, title, string(content), metadata)
	if err != nil {
		return fmt.Errorf("adding document: %w", err)
	}

	cmd.Printf("Added document: %s (ID: %s)\n", title, docID)
	return nil
}
