// Command sercha-kb is a knowledge base for chat assistants.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	filestore "github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/services"
	"github.com/custodia-labs/sercha-kb/internal/logger"
	"github.com/custodia-labs/sercha-kb/internal/normalisers"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors"
	"github.com/custodia-labs/sercha-kb/internal/retry"
)

// version is set by the linker.
var version = "dev"

func main() {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// bootstrap wires the adapters and core services for one command run.
func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	dataDir, err := resolveDataDir(opts.DataDir, settings)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("data directory: %s", dataDir)

	docStore, err := filestore.NewDocumentStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open document store: %w", err)
	}

	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open stage store: %w", err)
	}
	stageStore := db.StageStore()

	extractors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(extractors)
	extractor, err := extractors.Build(settings.Chunking.Extractor, settings.Chunking.Options())
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("configure chunk extractor: %w", err)
	}

	embedding := ai.Init(&settings.Embedding)
	for _, w := range embedding.Warnings {
		logger.Warn("%s; using keyword search only", w)
	}

	policy := retry.FromSettings(settings.Retry)

	cache := services.NewCacheManager(docStore, stageStore, embedding.EmbeddingService, services.CacheConfig{
		BatchSize: settings.Embedding.BatchSize,
		Retry:     policy,
	})

	var semantic *services.SemanticRetriever
	if embedding.EmbeddingService != nil {
		semantic = services.NewSemanticRetriever(embedding.EmbeddingService, policy, settings.Search.MinSimilarity)
	}

	svcs := &cli.Services{
		Document: services.NewDocumentService(
			docStore, stageStore, normalisers.NewDefaultRegistry(), extractor, cache, settings.Upload,
		),
		Stage:      services.NewStageService(stageStore, cache),
		Search:     services.NewSearchService(cache, stageStore, semantic, settings.Search),
		Cache:      cache,
		Settings:   settingsService,
		DataDir:    dataDir,
		ServerAddr: settings.ServerAddr,
		SearchOptions: domain.SearchOptions{
			Limit: settings.Search.Limit,
			Mode:  settings.Search.Mode,
		},
		MaxUploadBytes: settings.Upload.MaxBytes(),
	}

	cleanup := func() {
		embedding.Close()
		if err := db.Close(); err != nil {
			logger.Warn("close stage store: %v", err)
		}
	}
	return svcs, cleanup, nil
}

// resolveDataDir picks the data directory: flag, then settings (which
// already fall back to SERCHA_KB_DATA_DIR), then ~/.sercha-kb/data.
func resolveDataDir(flag string, settings *domain.AppSettings) (string, error) {
	dir := flag
	if dir == "" {
		dir = settings.DataDir
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, file.DefaultDirName, "data")
	}
	return filepath.Abs(dir)
}
