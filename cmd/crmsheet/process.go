package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/crmsheet/internal/cli"
	"github.com/hyperjump/crmsheet/internal/processor"
)

var processCmd = &cobra.Command{
	Use:   "process <record-id>...",
	Short: "Process one or more records",
	Long: `Process loads the workbook attached to each record, extracts the configured
ranges and sends them to the sink. A record without a document is skipped. A
failing record is reported and the remaining ones are still processed.`,
	Args: cobra.MinimumNArgs(1),
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

		components, err := initializeComponents(cfg, logger, consoleWriter(format))
		if err != nil {
			return err
		}
		defer components.Close()

		results, failed := processAll(cmd.Context(), components.Processor, args, os.Stderr)
		if err := cli.WriteResults(os.Stdout, results, format); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d records failed", failed, len(args))
		}
		return nil
	},
}

// processAll runs every id and reports failures to errOut. Results of
// failed records are omitted.
func processAll(ctx context.Context, p *processor.Processor, ids []string, errOut io.Writer) ([]*processor.Result, int) {
	var results []*processor.Result
	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			failed += len(ids) - len(results) - failed
			break
		}
		res, err := p.ProcessRecord(ctx, id)
		if err != nil {
			fmt.Fprintf(errOut, "record %s: %v\n", id, err)
			failed++
			continue
		}
		results = append(results, res)
	}
	return results, failed
}

// consoleWriter keeps stdout clean for JSON output by moving the console
// sink's lines to stderr.
func consoleWriter(format cli.OutputFormat) io.Writer {
	if format == cli.OutputJSON {
		return os.Stderr
	}
	return os.Stdout
}

func init() {
	rootCmd.AddCommand(processCmd)
}
