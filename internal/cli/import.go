package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/talentmatch/internal/ingest"
	"github.com/vijay-prabhu/talentmatch/internal/output"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json|file.csv>...",
	Short: "Import candidates from JSON or CSV files",
	Long: `Import candidate records into the store.

Existing candidates with the same user_id are replaced. Records without a
user_id get a generated one. Cached match results are invalidated.

JSON files hold an array of candidate objects. CSV files need a header row
with at least full_name; list columns (skill_ids, skill_names, specialty_ids,
specialty_names) separate items with ";".

Examples:
  talentmatch import candidates.json
  talentmatch import batch1.csv batch2.csv
  talentmatch import --batch-size 200 candidates.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var importBatchSize int

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", 500, "Candidates written per transaction")
}

// ImportResult summarizes an import run
type ImportResult struct {
	Files      int `json:"files"`
	Candidates int `json:"candidates"`
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if importBatchSize < 1 {
		return fmt.Errorf("--batch-size must be at least 1")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := importFiles(ctx, a, args, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if outputFmt == output.FormatJSON {
		return output.JSON(result)
	}

	stats, err := a.store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	fmt.Printf("Imported %d candidate(s) from %d file(s)\n", result.Candidates, result.Files)
	fmt.Printf("Store now holds %d candidate(s)\n", stats.TotalCandidates)
	return nil
}

// importFiles upserts every file in batches. Each batch commits on its own,
// so the cache is invalidated once anything was written, even when a later
// file or batch fails.
func importFiles(ctx context.Context, a *app, paths []string, progress io.Writer) (result ImportResult, err error) {
	term := output.TerminalFor(progress)

	defer func() {
		if result.Candidates == 0 {
			return
		}
		if ierr := a.cache.Invalidate(ctx); ierr != nil {
			a.logger.Warn("failed to invalidate result cache", "err", ierr)
		}
	}()

	for _, path := range paths {
		candidates, err := ingest.ReadFile(path)
		if err != nil {
			return result, err
		}

		for start := 0; start < len(candidates); start += importBatchSize {
			end := min(start+importBatchSize, len(candidates))
			n, err := a.store.UpsertCandidates(ctx, candidates[start:end])
			if err != nil {
				term.ClearLine()
				return result, fmt.Errorf("failed to import %s: %w", path, err)
			}
			result.Candidates += n

			if term.IsTerminal {
				term.ClearLine()
				fmt.Fprintf(progress, "%s Importing %s... %d/%d",
					term.Spinner(), path, end, len(candidates))
			}
		}
		term.ClearLine()

		result.Files++
		a.logger.Info("imported candidates", "file", path, "count", len(candidates))
	}
	return result, nil
}
