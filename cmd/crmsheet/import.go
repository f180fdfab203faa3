package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/crmsheet/internal/cli"
	"github.com/hyperjump/crmsheet/internal/processor"
)

var importProcess bool

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Store workbooks as records",
	Long: `Import copies each file into the record store under an id derived from its
absolute path, so importing the same file again replaces the record. With
--process the new records are processed right away.`,
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

		ctx := cmd.Context()
		var ids []string
		for _, path := range args {
			id, err := components.Importer.ImportFile(ctx, path, cfg.Watch.Extensions)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			ids = append(ids, id)
			if !importProcess && format == cli.OutputText {
				fmt.Printf("%s  %s\n", id, path)
			}
		}
		if !importProcess {
			if format == cli.OutputJSON {
				return cli.WriteResults(os.Stdout, importedResults(ids), format)
			}
			return nil
		}

		results, failed := processAll(ctx, components.Processor, ids, os.Stderr)
		if err := cli.WriteResults(os.Stdout, results, format); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d records failed", failed, len(ids))
		}
		return nil
	},
}

// importedResults describes records that were stored but not yet processed.
func importedResults(ids []string) []*processor.Result {
	out := make([]*processor.Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, &processor.Result{RecordID: id, Sheets: []string{}})
	}
	return out
}

func init() {
	importCmd.Flags().BoolVar(&importProcess, "process", false, "process each record after importing it")
	rootCmd.AddCommand(importCmd)
}
