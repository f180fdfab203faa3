package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/crmsheet/internal/cli"
	"github.com/hyperjump/crmsheet/internal/extract"
	"github.com/hyperjump/crmsheet/internal/models"
	"github.com/hyperjump/crmsheet/internal/processor"
	"github.com/hyperjump/crmsheet/internal/recordid"
	"github.com/hyperjump/crmsheet/internal/sink"
)

var extractPush bool

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract tables from a local workbook without storing it",
	Long: `Extract reads a workbook from disk and prints the tables found on recognized
sheets. Nothing is stored. With --push the tables are also sent to the
configured sink.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}
		cfg, _, logger, err := setup(false)
		if err != nil {
			return err
		}
		defer logger.Sync()

		sheets, err := cfg.SheetRanges()
		if err != nil {
			return err
		}
		ex := extract.NewExtractor(sheets, extract.WithLogger(logger))
		var tables []*models.ExtractedTable
		emit := extract.Collect(&tables)

		if extractPush {
			components, err := initializeComponents(cfg, logger, consoleWriter(format))
			if err != nil {
				return err
			}
			defer components.Close()
			emit, err = pushEmit(cmd.Context(), components.Sink, args[0], emit)
			if err != nil {
				return err
			}
		}

		handled, err := ex.Extract(cmd.Context(), args[0], emit)
		if err != nil {
			logger.Warn("extraction failed", zap.String("path", args[0]), zap.Error(err))
			return err
		}
		res := &processor.Result{Sheets: handled, Tables: tables}
		return cli.WriteResults(os.Stdout, []*processor.Result{res}, format)
	},
}

// pushEmit returns an Emit that hands each table to s under the record id
// derived from path, then to next. What s holds for that id is reset first.
func pushEmit(ctx context.Context, s sink.Sink, path string, next extract.Emit) (extract.Emit, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	id := recordid.FromPath(abs)
	if err := sink.Reset(ctx, s, id); err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}
	return func(ctx context.Context, t *models.ExtractedTable) error {
		t.RecordID = id
		if err := s.Accept(ctx, t); err != nil {
			return fmt.Errorf("sink: %w", err)
		}
		return next(ctx, t)
	}, nil
}

func init() {
	extractCmd.Flags().BoolVar(&extractPush, "push", false, "also send the tables to the configured sink")
	rootCmd.AddCommand(extractCmd)
}
