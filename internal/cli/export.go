package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/talentmatch/internal/output"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export ranked candidates to CSV or JSON",
	Long: `Run a match and write every result with its score columns to a file.

Takes the same query flags as 'match', or --selection for a saved selection.

Supported formats:
  - csv: Comma-separated values (spreadsheet-compatible)
  - json: JSON array of results

Examples:
  talentmatch export --role 1 --desired-skill 10 > relevant_candidates.csv
  talentmatch export --selection backend-hires --out relevant_candidates.csv
  talentmatch export --selection backend-hires --format json`,
	RunE: runExport,
}

var (
	exportQuery     queryFlags
	exportSelection string
	exportFormat    string
	exportOut       string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportQuery.register(exportCmd)
	exportCmd.Flags().StringVar(&exportSelection, "selection", "", "Export a saved selection (ID or name)")
	exportCmd.Flags().StringVar(&exportFormat, "format", output.FormatCSV, "Export format (csv, json)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if exportFormat != output.FormatCSV && exportFormat != output.FormatJSON {
		return fmt.Errorf("unknown format: %s (use csv or json)", exportFormat)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := resolveQuery(ctx, cmd, a.store, &exportQuery, exportSelection)
	if err != nil {
		return err
	}

	results, err := a.matcher.Match(ctx, q)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}

	if err := output.OutputTo(w, exportFormat, results); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	if exportOut != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d candidate(s) to %s\n", len(results), exportOut)
	}
	return nil
}
