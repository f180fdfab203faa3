// Package main is the crmsheet CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/crmsheet/internal/cli"
	"github.com/hyperjump/crmsheet/internal/config"
	"github.com/hyperjump/crmsheet/pkg/utils"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultConfigPath = "/usr/local/etc/crmsheet/config.yaml"

var (
	flagConfig string
	flagDebug  bool
	flagOutput string
)

var rootCmd = &cobra.Command{
	Use:   "crmsheet",
	Short: "Extract Business Summary tables from CRM spreadsheet attachments",
	Long: `crmsheet resolves a record id against the record store, opens the workbook
attached to it, reads the configured cell ranges from the sheets it recognizes
("Business Summary" C3:D15 by default) and pushes the values to the configured sink.

Records come from the local SQLite store, a directory, a CRM REST endpoint or
Redis. Tables go to the console, the store, an HTTP ingestion endpoint or a
RabbitMQ exchange.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "output format: text or json")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads the config and builds a logger. Long-running commands log at
// info; one-shot commands only surface warnings unless debug is on.
func setup(longRunning bool) (*config.Config, string, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(flagConfig)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || flagDebug
	var logger *zap.Logger
	switch {
	case debug || longRunning:
		logger, err = utils.NewLogger(debug)
	default:
		logger, err = utils.NewQuietLogger()
	}
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))
	return cfg, resolved, logger, nil
}

func outputFormat() (cli.OutputFormat, error) {
	return cli.ParseOutputFormat(flagOutput)
}
