package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/talentmatch/internal/database"
	"github.com/vijay-prabhu/talentmatch/internal/output"
)

var selectionCmd = &cobra.Command{
	Use:     "selection",
	Aliases: []string{"selections"},
	Short:   "Manage saved selections",
	Long: `A selection is a named match query. Saved selections can be re-run with
'match --selection', exported with 'export --selection', and run by AI
assistants through the MCP run_selection tool.`,
}

var selectionSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the query flags as a named selection",
	Long: `Save a match query under a name. Saving an existing name replaces its query.

Examples:
  talentmatch selection save backend-hires --role 1 --required-specialty Backend
  talentmatch selection save seniors --role 1,2 --desired-experience 3 --exclude-unavailable`,
	Args: cobra.ExactArgs(1),
	RunE: runSelectionSave,
}

var selectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved selections",
	RunE:  runSelectionList,
}

var selectionShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show a saved selection",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelectionShow,
}

var selectionDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Delete a saved selection",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelectionDelete,
}

var selectionQuery queryFlags

func init() {
	rootCmd.AddCommand(selectionCmd)
	selectionCmd.AddCommand(selectionSaveCmd)
	selectionCmd.AddCommand(selectionListCmd)
	selectionCmd.AddCommand(selectionShowCmd)
	selectionCmd.AddCommand(selectionDeleteCmd)

	selectionQuery.register(selectionSaveCmd)
}

func runSelectionSave(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("selection name is required")
	}

	q := selectionQuery.query()
	if err := q.Validate(); err != nil {
		return err
	}
	if len(q.Roles) == 0 {
		return fmt.Errorf("--role is required: a selection without roles never matches anyone")
	}

	encoded, err := q.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sel := &database.Selection{Name: name, Query: encoded}
	if err := a.store.CreateSelection(ctx, sel); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}

	if outputFmt == output.FormatJSON {
		return output.JSON(sel)
	}

	fmt.Printf("Saved selection %s (%s)\n", sel.Name, sel.ID)
	fmt.Printf("Run it with 'talentmatch match --selection %s'\n", sel.Name)
	return nil
}

func runSelectionList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	selections, err := a.store.ListSelections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list selections: %w", err)
	}
	if selections == nil {
		selections = []database.Selection{}
	}

	return output.Output(outputFmt, selections)
}

func runSelectionShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sel, _, err := loadSelection(ctx, a.store, args[0])
	if err != nil {
		return err
	}

	return output.Output(outputFmt, sel)
}

func runSelectionDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sel, err := a.store.GetSelection(ctx, args[0])
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if sel == nil {
		return fmt.Errorf("selection not found: %s", args[0])
	}

	if err := a.store.DeleteSelection(ctx, sel.ID); err != nil {
		return fmt.Errorf("failed to delete selection: %w", err)
	}

	fmt.Printf("Deleted selection %s (%s)\n", sel.Name, sel.ID)
	return nil
}
