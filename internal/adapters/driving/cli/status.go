package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base status",
	Long:  `Loads the chunk cache and reports file, chunk and embedding counts alongside the active configuration.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusOutput struct {
	DataDir       string            `json:"data_dir"`
	SearchMode    domain.SearchMode `json:"search_mode"`
	Embedding     string            `json:"embedding"`
	Files         int               `json:"files"`
	Chunks        int               `json:"chunks"`
	Embedded      int               `json:"embedded"`
	Partial       bool              `json:"partial"`
	SkippedFiles  int               `json:"skipped_files"`
	FailedBatches int               `json:"failed_batches"`
	Generation    uint64            `json:"generation"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	if _, err := cacheService.LoadAll(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}
	stats := cacheService.Stats()

	out := statusOutput{
		DataDir:       runtime.dataDir,
		SearchMode:    runtime.searchOptions.Mode,
		Embedding:     "disabled",
		Files:         stats.Report.FilesLoaded,
		Chunks:        stats.Chunks,
		Embedded:      stats.Embedded,
		Partial:       stats.Report.Partial(),
		SkippedFiles:  len(stats.Report.FilesSkipped),
		FailedBatches: len(stats.Report.EmbeddingFailures),
		Generation:    stats.Generation,
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			out.SearchMode = settings.Search.Mode
			if settings.Embedding.IsConfigured() {
				out.Embedding = fmt.Sprintf("%s (%s)", settings.Embedding.Provider, settings.Embedding.Model)
			}
		}
	}

	if jsonOutput {
		return printJSON(cmd, out)
	}

	cmd.Println("Knowledge Base")
	cmd.Println("==============")
	if out.DataDir != "" {
		cmd.Printf("  Data dir:    %s\n", out.DataDir)
	}
	cmd.Printf("  Search mode: %s\n", out.SearchMode)
	cmd.Printf("  Embedding:   %s\n", out.Embedding)
	cmd.Printf("  Files:       %d\n", out.Files)
	cmd.Printf("  Chunks:      %d (%d embedded)\n", out.Chunks, out.Embedded)
	if out.Partial {
		cmd.Printf("  Warning: %d files skipped, %d embedding batches failed\n", out.SkippedFiles, out.FailedBatches)
	}
	return nil
}
