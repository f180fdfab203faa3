package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/crmsheet/internal/config"
	"github.com/hyperjump/crmsheet/internal/server"
	"github.com/hyperjump/crmsheet/internal/watcher"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API and the inbox watcher",
	Long: `Server exposes the record API on the configured host and port and, when
watch.directories is set, imports and processes every workbook dropped into
those directories. Removing a file deletes its record.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, resolvedConfigPath, logger, err := setup(true)
		if err != nil {
			return err
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger, os.Stdout)
		if err != nil {
			logger.Error("Failed to initialize components", zap.Error(err))
			return err
		}
		defer components.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		inbox := watcher.New(cfg.Watch.Directories,
			inboxHandler(components, cfg, logger),
			watcher.WithExtensions(cfg.Watch.Extensions),
			watcher.WithRecursive(cfg.Watch.RecursiveOrDefault()),
			watcher.WithLogger(logger),
		)
		if err := inbox.Start(ctx); err != nil {
			logger.Error("Failed to start watcher", zap.Error(err))
			return err
		}
		defer inbox.Stop()
		go inbox.Sync(ctx)

		srv := server.NewServer(
			components.Processor,
			components.Importer,
			components.Storage,
			cfg,
			logger,
			inbox,
			resolvedConfigPath,
		)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Server failed", zap.Error(err))
				return err
			}
		case <-ctx.Done():
		}

		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	},
}

// inboxHandler imports changed inbox files and processes them. Failures are
// logged per file so one bad workbook does not stop the inbox.
func inboxHandler(c *Components, cfg *config.Config, logger *zap.Logger) watcher.Handler {
	return watcher.HandlerFuncs{
		Changed: func(ctx context.Context, path string) {
			id, err := c.Importer.ImportFile(ctx, path, cfg.Watch.Extensions)
			if err != nil {
				logger.Warn("inbox import failed", zap.String("path", path), zap.Error(err))
				return
			}
			if _, err := c.Processor.ProcessRecord(ctx, id); err != nil {
				logger.Warn("inbox processing failed", zap.String("path", path), zap.String("record_id", id), zap.Error(err))
			}
		},
		Removed: func(ctx context.Context, path string) {
			if _, err := c.Importer.RemoveFile(ctx, path); err != nil {
				logger.Warn("inbox remove failed", zap.String("path", path), zap.Error(err))
			}
		},
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
