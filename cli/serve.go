package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/itish2003/docchat/controller"
	"github.com/itish2003/docchat/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat API server",
	Long: `Run the HTTP API answering POST /api/chat.

When INDEX_PATH is set the directory is synced into the vector index at
startup; with WATCH_INDEX=true it is also watched for changes.

Examples:
  docchat serve
  INDEX_PATH=./docs WATCH_INDEX=true docchat serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, embedder, indexer, closeStore, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close chroma client", "error", err)
		}
	}()

	generator, err := services.NewGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init language model: %w", err)
	}
	logger.Info("language model ready", "provider", cfg.LLMProvider, "model", generator.Model())

	if cfg.IndexPath != "" {
		go func() {
			if _, err := indexer.ScanAndIndexDirectory(ctx, cfg.IndexPath); err != nil {
				logger.Error("initial index scan failed", "dir", cfg.IndexPath, "error", err)
			}
			if cfg.WatchIndex {
				if err := indexer.WatchDirectory(ctx, cfg.IndexPath); err != nil {
					logger.Error("watcher stopped", "dir", cfg.IndexPath, "error", err)
				}
			}
		}()
	}

	chatService := services.NewChatService(store, embedder, generator, indexer, cfg.TopK, logger)
	controller.Version = Version
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := controller.NewRouter(controller.NewChatController(chatService, logger), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("docchat server starting", "addr", "http://localhost:"+cfg.Port)
		logger.Info("endpoints",
			"chat", "POST /api/chat",
			"documents", "GET|POST /api/v1/documents",
			"health", "GET /health")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
