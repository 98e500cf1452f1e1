package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var contextMaxChars int

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Build a context block for a query",
	Long: `Formats the best matches for the query into a single block bounded
by a character budget, ready to paste into an LLM prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().IntVarP(&contextMaxChars, "max-chars", "m", 0, "character budget (default 4000)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	block, err := ragService.ContextForQuery(cmd.Context(), args[0], contextMaxChars)
	if err != nil {
		return fmt.Errorf("building context: %w", err)
	}

	cmd.Println(block)
	return nil
}
