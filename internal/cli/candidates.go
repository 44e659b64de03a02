package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/talentmatch/internal/database"
	"github.com/vijay-prabhu/talentmatch/internal/ingest"
	"github.com/vijay-prabhu/talentmatch/internal/output"
)

var candidatesCmd = &cobra.Command{
	Use:     "candidates",
	Aliases: []string{"candidate"},
	Short:   "Browse and edit candidates",
}

var candidatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidates",
	Long: `List imported candidates ordered by name, with optional filters.

Examples:
  talentmatch candidates list                # All candidates
  talentmatch candidates list --role 3       # Candidates with role ID 3
  talentmatch candidates list --name zhou    # Name contains "zhou"
  talentmatch candidates list -o csv         # Spreadsheet export`,
	RunE: runCandidatesList,
}

var candidatesShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show a candidate's full profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runCandidatesShow,
}

var candidatesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace a single candidate",
	Long: `Add one candidate to the store, or replace the candidate with the same
--user-id. Without --user-id a new ID is generated. Cached match results
are invalidated.

Examples:
  talentmatch candidates add --name "Amy Zhou" --role 1 --skill 10,20 --available yes
  talentmatch candidates add --user-id u42 --name "Ben Lee" --specialty Backend --member`,
	RunE: runCandidatesAdd,
}

var (
	listRole   int64
	listName   string
	listLimit  int
	listOffset int
)

func init() {
	rootCmd.AddCommand(candidatesCmd)
	candidatesCmd.AddCommand(candidatesListCmd)
	candidatesCmd.AddCommand(candidatesShowCmd)
	candidatesCmd.AddCommand(candidatesAddCmd)

	candidatesListCmd.Flags().Int64Var(&listRole, "role", 0, "Filter by role ID")
	candidatesListCmd.Flags().StringVar(&listName, "name", "", "Filter by name (case-insensitive substring)")
	candidatesListCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of results")
	candidatesListCmd.Flags().IntVar(&listOffset, "offset", 0, "Skip this many results")

	f := candidatesAddCmd.Flags()
	f.StringVar(&addUserID, "user-id", "", "Candidate user ID (generated when empty)")
	f.StringVar(&addName, "name", "", "Full name (required)")
	f.Int64Var(&addRole, "role", 0, "Role ID")
	f.Int64SliceVar(&addSkills, "skill", nil, "Tech skill ID (repeatable)")
	f.StringSliceVar(&addSpecialties, "specialty", nil, "Specialty name (repeatable)")
	f.Int64Var(&addExperience, "experience-level", 0, "Experience level ID")
	f.StringVar(&addAvailable, "available", "", "Availability: yes, no or unknown")
	f.BoolVar(&addMember, "member", false, "Candidate is a member")
}

var (
	addUserID      string
	addName        string
	addRole        int64
	addSkills      []int64
	addSpecialties []string
	addExperience  int64
	addAvailable   string
	addMember      bool
)

// candidateFromFlags builds the candidate described by the add flags
func candidateFromFlags(cmd *cobra.Command) (*database.Candidate, error) {
	name := strings.TrimSpace(addName)
	if name == "" {
		return nil, fmt.Errorf("--name is required")
	}
	available, err := ingest.ParseAvailability(addAvailable)
	if err != nil {
		return nil, fmt.Errorf("--available: %w", err)
	}

	c := &database.Candidate{
		UserID:         strings.TrimSpace(addUserID),
		FullName:       name,
		SkillIDs:       addSkills,
		SpecialtyNames: addSpecialties,
		Available:      available,
		Member:         addMember,
	}
	if cmd.Flags().Changed("role") {
		role := addRole
		c.RoleID = &role
	}
	if cmd.Flags().Changed("experience-level") {
		level := addExperience
		c.ExperienceLevelID = &level
	}
	return c, nil
}

func runCandidatesAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := candidateFromFlags(cmd)
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.UpsertCandidate(ctx, c); err != nil {
		return fmt.Errorf("failed to save candidate: %w", err)
	}
	if err := a.cache.Invalidate(ctx); err != nil {
		a.logger.Warn("failed to invalidate result cache", "err", err)
	}

	if outputFmt == output.FormatJSON {
		return output.JSON(c)
	}
	fmt.Printf("Saved candidate %s (%s)\n", c.FullName, c.UserID)
	return nil
}

func runCandidatesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Build query options
	opts := database.ListOptions{
		Limit:  listLimit,
		Offset: listOffset,
	}
	if cmd.Flags().Changed("role") {
		opts.RoleID = &listRole
	}
	if listName != "" {
		opts.Name = &listName
	}

	candidates, err := a.store.ListCandidates(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list candidates: %w", err)
	}

	return output.Output(outputFmt, candidates)
}

func runCandidatesShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.store.GetCandidate(ctx, args[0])
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if c == nil {
		return fmt.Errorf("candidate not found: %s", args[0])
	}

	if outputFmt == output.FormatCSV {
		return output.Output(outputFmt, []database.Candidate{*c})
	}
	return output.Output(outputFmt, c)
}
