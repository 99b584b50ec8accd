package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Manage chunk embeddings",
}

var embeddingsRegenerateCmd = &cobra.Command{
	Use:   "regenerate [file-id...]",
	Short: "Recompute embeddings",
	Long: `Discards stored embeddings and requests new vectors from the configured
provider. With no arguments every file is regenerated.`,
	RunE: runEmbeddingsRegenerate,
}

var embeddingsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show embedding coverage",
	Args:  cobra.NoArgs,
	RunE:  runEmbeddingsStatus,
}

func init() {
	embeddingsCmd.AddCommand(embeddingsRegenerateCmd)
	embeddingsCmd.AddCommand(embeddingsStatusCmd)
	rootCmd.AddCommand(embeddingsCmd)
}

func runEmbeddingsRegenerate(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	report, err := cacheService.Regenerate(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("failed to regenerate embeddings: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, report)
	}

	printReloadReport(cmd, report)
	return nil
}

func runEmbeddingsStatus(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	if _, err := cacheService.LoadAll(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}
	stats := cacheService.Stats()

	if jsonOutput {
		return printJSON(cmd, stats)
	}

	cmd.Printf("Chunks:    %d\n", stats.Chunks)
	cmd.Printf("Embedded:  %d\n", stats.Embedded)
	cmd.Printf("Pending:   %d\n", stats.Chunks-stats.Embedded)
	cmd.Printf("Provider:  %s\n", availability(stats.Report.ProviderAvailable))
	return nil
}

func printReloadReport(cmd *cobra.Command, r domain.ReloadReport) {
	cmd.Printf("Files:     %d loaded, %d skipped\n", r.FilesLoaded, len(r.FilesSkipped))
	cmd.Printf("Chunks:    %d loaded\n", r.ChunksLoaded)
	cmd.Printf("Embedded:  %d\n", r.ChunksEmbedded)
	cmd.Printf("Pending:   %d\n", r.ChunksPending)
	cmd.Printf("Provider:  %s\n", availability(r.ProviderAvailable))
	cmd.Printf("Duration:  %s\n", r.Duration.Round(time.Millisecond))

	for _, f := range r.FilesSkipped {
		cmd.Printf("  skipped %s: %s\n", f.FileID, f.Reason)
	}
	for _, f := range r.EmbeddingFailures {
		kind := "permanent"
		if f.Transient {
			kind = "transient"
		}
		cmd.Printf("  embedding failed for %s (%d chunks, %s): %s\n", f.FileID, f.Chunks, kind, f.Reason)
	}
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}
