// Package cli implements the qanun command line interface.
// Commands drive the core services through their driving ports; all
// dependency wiring happens here.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qanun-labs/qanun-cli/internal/adapters/driven/config/file"
	"github.com/qanun-labs/qanun-cli/internal/adapters/driven/encoder"
	"github.com/qanun-labs/qanun-cli/internal/adapters/driven/storage/sqlite"
	"github.com/qanun-labs/qanun-cli/internal/cache"
	"github.com/qanun-labs/qanun-cli/internal/chunker"
	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
	"github.com/qanun-labs/qanun-cli/internal/core/services"
	"github.com/qanun-labs/qanun-cli/internal/logger"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
	dataDir   string
)

// Wired services, available to all commands after PersistentPreRunE.
var (
	configStore *file.ConfigStore
	settings    domain.Settings
	chunkStore  driven.ChunkStore
	vectorIndex driven.VectorIndex

	encoderService   *services.EncoderService
	ingestService    *services.IngestService
	embeddingService *services.EmbeddingService
	indexService     *services.IndexService
	searchService    *services.SearchService
)

var rootCmd = &cobra.Command{
	Use:   "qanun",
	Short: "Semantic search over Arabic legal documents",
	Long: `Qanun indexes Arabic legal documents (laws, regulations, judgments,
contracts) and answers natural-language queries by semantic similarity.

The pipeline is explicit: ingest chunks a document, embed generates
vectors, index builds the search structure, search answers queries.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.qanun)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.qanun/data)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup wires the full dependency graph: config, storage, encoder,
// caches, vector index and the core services on top of them.
func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.Section("Startup")

	var err error
	configStore, err = file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	settings, err = configStore.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	logger.Debug("Config: %s", configStore.Path())

	dir, err := dataDirectory()
	if err != nil {
		return err
	}
	store, err := sqlite.NewStore(dir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	chunkStore = store
	logger.Debug("Database: %s", store.Path())

	// An unconfigured encoder is not fatal: ingest and stats work
	// without one, and embedding or search will report it per call.
	var backend driven.Encoder
	if settings.Encoder.IsConfigured() {
		backend, err = encoder.Create(settings.Encoder)
		if err != nil {
			return fmt.Errorf("create encoder: %w", err)
		}
	} else {
		logger.Warn("No encoder configured; run 'qanun config init' and edit %s", configStore.Path())
	}

	embeddingCache := cache.NewEmbeddingCache(settings.Cache.EmbeddingEntries)
	queryCache := cache.NewQueryCache(settings.Cache.QueryEntries)

	vectorIndex = vectorindex.NewManager(vectorindex.WithOptions(vectorindex.Options{
		BruteForceThreshold: settings.Index.BruteForceThreshold,
		M:                   settings.Index.M,
		EFConstruction:      settings.Index.EFConstruction,
		EFSearch:            settings.Index.EFSearch,
	}))

	encoderService = services.NewEncoderService(backend, embeddingCache, settings.Encoder.Dimensions)
	ingestService = services.NewIngestService(chunkStore, newChunker())
	embeddingService = services.NewEmbeddingService(chunkStore, encoderService, settings.Encoder)
	indexService = services.NewIndexService(chunkStore, vectorIndex, encoderService, settings.Index)
	searchService = services.NewSearchService(chunkStore, vectorIndex, encoderService, queryCache, settings)

	return nil
}

func teardown() error {
	var firstErr error
	if encoderService != nil {
		if err := encoderService.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if vectorIndex != nil {
		if err := vectorIndex.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if chunkStore != nil {
		if err := chunkStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newChunker() *chunker.Chunker {
	return chunker.New(
		chunker.WithMaxSize(settings.Chunker.MaxSize),
		chunker.WithMinSize(settings.Chunker.MinSize),
	)
}

// dataDirectory resolves the directory holding the corpus database.
// The store appends the database filename and creates the directory.
func dataDirectory() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".qanun", "data"), nil
}
