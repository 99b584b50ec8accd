// Package cli provides the sercha-kb command line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services wired by the composition root.
var (
	documentService driving.DocumentService
	stageService    driving.StageService
	searchService   driving.SearchService
	cacheService    driving.CacheService
	settingsService driving.SettingsService
)

// runtime holds non-service values resolved at start-up.
var runtime struct {
	dataDir        string
	serverAddr     string
	searchOptions  domain.SearchOptions
	maxUploadBytes int64
}

// Global flags.
var (
	verbose     bool
	jsonOutput  bool
	dataDirFlag string
)

// Services bundles the core services that commands drive.
type Services struct {
	Document driving.DocumentService
	Stage    driving.StageService
	Search   driving.SearchService
	Cache    driving.CacheService
	Settings driving.SettingsService

	// DataDir is the resolved data directory, watched by serve.
	DataDir string

	// ServerAddr is the default listen address for serve.
	ServerAddr string

	// SearchOptions are the configured search defaults.
	SearchOptions domain.SearchOptions

	// MaxUploadBytes caps HTTP upload bodies.
	MaxUploadBytes int64
}

// Options carries global flag values to the bootstrap function.
type Options struct {
	DataDir string
	Verbose bool
}

// BootstrapFunc builds the services for a command run. The returned
// cleanup function is called once the command finishes.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	bootstrap BootstrapFunc
	cleanupFn func()
)

var rootCmd = &cobra.Command{
	Use:   "sercha-kb",
	Short: "Knowledge base retrieval for chat assistants",
	Long: `sercha-kb stores uploaded documents, splits them into searchable chunks,
and returns the most relevant passages for a question.

Ranking combines a tiered keyword scorer with optional embedding similarity.
Files can be grouped into stages; inactive stages are hidden from search.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostic output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "override the data directory")
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that builds services on demand.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs services directly, bypassing bootstrap.
func SetServices(s *Services) {
	if s == nil {
		documentService = nil
		stageService = nil
		searchService = nil
		cacheService = nil
		settingsService = nil
		runtime.dataDir = ""
		runtime.serverAddr = ""
		runtime.searchOptions = domain.SearchOptions{}
		runtime.maxUploadBytes = 0
		return
	}
	documentService = s.Document
	stageService = s.Stage
	searchService = s.Search
	cacheService = s.Cache
	settingsService = s.Settings
	runtime.dataDir = s.DataDir
	runtime.serverAddr = s.ServerAddr
	runtime.searchOptions = s.SearchOptions
	runtime.maxUploadBytes = s.MaxUploadBytes
}

// Execute runs the root command and releases bootstrapped resources.
func Execute(ctx context.Context) error {
	defer runCleanup()
	return rootCmd.ExecuteContext(ctx)
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if !needsServices(cmd) || searchService != nil || bootstrap == nil {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svcs, cleanup, err := bootstrap(ctx, Options{DataDir: dataDirFlag, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialise: %w", err)
	}
	SetServices(svcs)
	cleanupFn = cleanup
	return nil
}

// needsServices reports whether a command touches the knowledge base.
func needsServices(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return false
	}
	if cmd == mcpConfigCmd {
		return false
	}
	return cmd.Runnable()
}

func runCleanup() {
	if cleanupFn != nil {
		cleanupFn()
		cleanupFn = nil
	}
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
