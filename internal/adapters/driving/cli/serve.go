package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/watch"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

var (
	serveAddr    string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin HTTP API",
	Long: `Serves the upload, file, stage and search API over HTTP.

The data directory is watched for changes made outside this process;
the chunk cache is reloaded once changes settle. The cache is warmed
in the background on start-up.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not watch the data directory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if documentService == nil || stageService == nil || searchService == nil || cacheService == nil {
		return errors.New("services not configured")
	}

	addr := serveAddr
	if addr == "" {
		addr = runtime.serverAddr
	}
	if addr == "" {
		return errors.New("no listen address: pass --addr or set server.addr")
	}

	var opts []httpapi.Option
	if runtime.maxUploadBytes > 0 {
		opts = append(opts, httpapi.WithMaxUploadBytes(runtime.maxUploadBytes))
	}
	server, err := httpapi.NewServer(&httpapi.Ports{
		Document: documentService,
		Stage:    stageService,
		Search:   searchService,
		Cache:    cacheService,
	}, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		return server.Run(ctx, addr)
	})

	g.Go(func() error {
		warmCache(ctx)
		return nil
	})

	if !serveNoWatch && runtime.dataDir != "" {
		w, err := watch.New(runtime.dataDir, cacheService)
		if err != nil {
			logger.Warn("file watcher disabled: %v", err)
		} else {
			defer w.Close() //nolint:errcheck
			g.Go(func() error {
				return w.Run(ctx)
			})
		}
	}

	cmd.Printf("Serving on http://%s\n", addr)
	return g.Wait()
}

// warmCache loads every chunk so the first query does not pay for it.
func warmCache(ctx context.Context) {
	snap, err := cacheService.LoadAll(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("cache warm-up failed: %v", err)
		}
		return
	}
	logger.Debug("cache warm: %d chunks, %d embedded", snap.Len(), snap.EmbeddedCount())
	if snap.Report.Partial() {
		logger.Warn("cache loaded partially: %d files skipped, %d embedding batches failed",
			len(snap.Report.FilesSkipped), len(snap.Report.EmbeddingFailures))
	}
}
