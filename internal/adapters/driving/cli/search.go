package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var (
	searchLimit int
	searchMode  string
	contextMax  int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Long: `Ranks chunks from all visible files against a question.

Modes:
  keyword   tiered keyword scoring only
  semantic  embedding similarity only
  hybrid    semantic ranking with keyword fallback`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Print context passages for a question",
	Long: `Returns the text of the best matching chunks, one passage per block.
This is the text an assistant would receive as grounding context.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 uses the configured limit)")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "search mode: keyword, semantic or hybrid")
	contextCmd.Flags().IntVar(&contextMax, "max", 5, "maximum number of passages")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(contextCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts, err := searchOptionsFromFlags()
	if err != nil {
		return err
	}

	results, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func searchOptionsFromFlags() (domain.SearchOptions, error) {
	opts := runtime.searchOptions
	if searchLimit > 0 {
		opts.Limit = searchLimit
	}
	if searchMode != "" {
		mode := domain.SearchMode(strings.ToLower(searchMode))
		if !mode.IsValid() {
			return opts, fmt.Errorf("invalid search mode %q: use keyword, semantic or hybrid", searchMode)
		}
		opts.Mode = mode
	}
	return opts, nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		name := r.SourceFileName
		if name == "" {
			name = r.FileID
		}

		cmd.Printf("  [%d] %s (%s %.2f)\n", i+1, name, r.Method, resultScore(r))
		if r.IsQuestionAnswer {
			cmd.Println("      q&a")
		}
		cmd.Printf("      %s\n", snippet(r.Text, 200))
		cmd.Println()
	}

	return nil
}

func resultScore(r *domain.SearchResult) float64 {
	if r.Method == domain.MethodSemantic {
		return r.Similarity
	}
	return r.Score
}

// snippet collapses whitespace and truncates to n runes.
func snippet(text string, n int) string {
	s := strings.Join(strings.Fields(text), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func runContext(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	passages := searchService.GetContext(cmd.Context(), args[0], contextMax)

	if jsonOutput {
		if passages == nil {
			passages = []string{}
		}
		return printJSON(cmd, passages)
	}

	if len(passages) == 0 {
		cmd.Println("No relevant context found.")
		return nil
	}

	for i, p := range passages {
		if i > 0 {
			cmd.Println("---")
		}
		cmd.Println(p)
	}
	return nil
}
