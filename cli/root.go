// Package cli provides the command-line interface for docchat.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/itish2003/docchat/config"
	"github.com/itish2003/docchat/services"
)

var (
	// Version is set at build time.
	Version = "1.0.0"

	// Global flags
	verbose bool

	cfg      config.Config
	logger   *slog.Logger
	closeLog = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Retrieval-augmented chat over your documentation",
	Long: `docchat answers questions about a documentation corpus.

The server indexes a directory of markdown, text and PDF files into a Chroma
collection and answers POST /api/chat by retrieving the closest passages and
asking a language model. The chat command is an interactive terminal client
for that server.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		// The interactive client keeps stderr for the conversation.
		if cmd.Name() == chatCmd.Name() {
			return nil
		}
		logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(chatCmd)
}

// openIndex connects to Chroma and builds the embedder and indexer shared by
// serve and index. The returned function closes the Chroma client.
func openIndex(ctx context.Context) (*services.ChromaStore, services.Embedder, *services.IndexingService, func() error, error) {
	store, closeStore, err := services.OpenChromaStore(ctx, cfg.ChromaURL, cfg.ChromaCollection, logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open vector index: %w", err)
	}

	embedder, err := services.NewEmbedder(ctx, cfg)
	if err != nil {
		_ = closeStore()
		return nil, nil, nil, nil, fmt.Errorf("init embedder: %w", err)
	}

	if cfg.UnidocLicenseKey != "" {
		if err := services.SetPDFLicenseKey(cfg.UnidocLicenseKey); err != nil {
			logger.Warn("PDF processing will fail", "error", err)
		}
	} else {
		logger.Debug("UNIDOC_LICENSE_KEY not set, PDF files will fail to index")
	}

	indexer := services.NewIndexingService(store, embedder, logger)
	return store, embedder, indexer, closeStore, nil
}
