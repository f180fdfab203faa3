// Package cli renders command results for the crmsheet CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hyperjump/crmsheet/internal/models"
	"github.com/hyperjump/crmsheet/internal/processor"
	"github.com/hyperjump/crmsheet/internal/sink"
	"github.com/hyperjump/crmsheet/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// maxValueWidth bounds cell values in text output.
const maxValueWidth = 80

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteResults writes processing results to w. JSON output is a single array
// so that a batch can be consumed in one decode.
func WriteResults(w io.Writer, results []*processor.Result, format OutputFormat) error {
	if format == OutputJSON {
		if results == nil {
			results = []*processor.Result{}
		}
		return writeJSON(w, results)
	}
	for _, res := range results {
		writeResultText(w, res)
	}
	return nil
}

func writeResultText(w io.Writer, res *processor.Result) {
	label := res.RecordID
	if label == "" {
		label = "(local file)"
	}
	if res.Skipped {
		fmt.Fprintf(w, "Record %s: skipped, no document attached\n", label)
		return
	}
	fmt.Fprintf(w, "Record %s: %d sheet(s) handled, %d table(s)\n", label, len(res.Sheets), len(res.Tables))
	for _, t := range res.Tables {
		fmt.Fprintf(w, "\n  %s  %s  (%d cells)\n", t.Sheet, t.Range, len(t.Cells))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, ref := range sink.SortedRefs(t.Cells) {
			fmt.Fprintf(tw, "    %s\t%s\n", ref, utils.Truncate(t.Cells[ref], maxValueWidth))
		}
		_ = tw.Flush()
	}
	fmt.Fprintln(w)
}

// WriteStatus writes store statistics to w.
func WriteStatus(w io.Writer, st *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintln(w, "crmsheet status")
	fmt.Fprintln(w, "---------------")
	fmt.Fprintf(w, "Records:       %d\n", st.Records)
	fmt.Fprintf(w, "Stored cells:  %d\n", st.Cells)
	fmt.Fprintf(w, "Loader:        %s\n", st.Loader)
	fmt.Fprintf(w, "Sink:          %s\n", st.Sink)
	fmt.Fprintf(w, "Database:      %s (%s)\n", st.DatabasePath, FormatBytes(st.DatabaseSizeBytes))
	if len(st.WatchDirectories) > 0 {
		fmt.Fprintf(w, "Watching:      %s\n", strings.Join(st.WatchDirectories, ", "))
	}
	return nil
}

// PrintResults writes results to stdout.
func PrintResults(results []*processor.Result, format OutputFormat) {
	_ = WriteResults(os.Stdout, results, format)
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
