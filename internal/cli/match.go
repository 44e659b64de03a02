package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/talentmatch/internal/database"
	"github.com/vijay-prabhu/talentmatch/internal/match"
	"github.com/vijay-prabhu/talentmatch/internal/output"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank candidates for a role",
	Long: `Filter candidates by hard constraints and rank the rest by a 0-100 match score.

Hard constraints: --role (required), --required-skill, --required-specialty,
--joined-after, --member, --exclude-unavailable, --exclude-unknown.

Preferences that raise the score: --desired-skill (50%),
--desired-specialty (30%), --desired-experience (20%).

Results are ordered by score, then by name.

Examples:
  talentmatch match --role 1 --desired-skill 10 --desired-skill 20
  talentmatch match --role 1,2 --required-specialty Backend --exclude-unavailable
  talentmatch match --role 1 --joined-after 4/23/2021 --member -o json
  talentmatch match --selection backend-hires --limit 10`,
	RunE: runMatch,
}

var (
	matchQuery     queryFlags
	matchSelection string
	matchLimit     int
)

func init() {
	rootCmd.AddCommand(matchCmd)
	matchQuery.register(matchCmd)
	matchCmd.Flags().StringVar(&matchSelection, "selection", "", "Run a saved selection (ID or name) instead of query flags")
	matchCmd.Flags().IntVar(&matchLimit, "limit", 0, "Maximum number of results")
}

// queryFlags binds the match query fields to command flags
type queryFlags struct {
	roles               []int64
	requiredSkills      []int64
	requiredSpecialties []string
	joinedAfter         string
	member              bool
	excludeUnavailable  bool
	excludeUnknown      bool
	desiredSkills       []int64
	desiredSpecialties  []string
	desiredExperience   []int64
}

var queryFlagNames = []string{
	"role", "required-skill", "required-specialty", "joined-after", "member",
	"exclude-unavailable", "exclude-unknown", "desired-skill", "desired-specialty",
	"desired-experience",
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Int64SliceVar(&f.roles, "role", nil, "Role IDs; candidates must have one of them")
	fs.Int64SliceVar(&f.requiredSkills, "required-skill", nil, "Skill IDs candidates must have all of")
	fs.StringSliceVar(&f.requiredSpecialties, "required-specialty", nil, "Specialties candidates must have all of")
	fs.StringVar(&f.joinedAfter, "joined-after", "", "Only candidates who joined after this date (month/day/year)")
	fs.BoolVar(&f.member, "member", false, "Only members")
	fs.BoolVar(&f.excludeUnavailable, "exclude-unavailable", false, "Drop candidates known to be unavailable")
	fs.BoolVar(&f.excludeUnknown, "exclude-unknown", false, "Drop candidates whose availability is unknown")
	fs.Int64SliceVar(&f.desiredSkills, "desired-skill", nil, "Skill IDs that raise the score")
	fs.StringSliceVar(&f.desiredSpecialties, "desired-specialty", nil, "Specialties that raise the score")
	fs.Int64SliceVar(&f.desiredExperience, "desired-experience", nil, "Experience level IDs that raise the score")
}

// query returns the flags as a normalized query
func (f *queryFlags) query() match.Query {
	return match.Query{
		Roles:               f.roles,
		RequiredSkills:      f.requiredSkills,
		RequiredSpecialties: f.requiredSpecialties,
		JoinedAfter:         f.joinedAfter,
		MemberOnly:          f.member,
		ExcludeUnavailable:  f.excludeUnavailable,
		ExcludeUnknown:      f.excludeUnknown,
		DesiredSkills:       f.desiredSkills,
		DesiredSpecialties:  f.desiredSpecialties,
		DesiredExperience:   f.desiredExperience,
	}.Normalize()
}

// resolveQuery returns the query named by --selection, or the one built
// from query flags. The two cannot be combined.
func resolveQuery(ctx context.Context, cmd *cobra.Command, store database.Store, f *queryFlags, selection string) (match.Query, error) {
	if selection == "" {
		return f.query(), nil
	}

	for _, name := range queryFlagNames {
		if cmd.Flags().Changed(name) {
			return match.Query{}, fmt.Errorf("--%s cannot be combined with --selection", name)
		}
	}

	_, q, err := loadSelection(ctx, store, selection)
	return q, err
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := resolveQuery(ctx, cmd, a.store, &matchQuery, matchSelection)
	if err != nil {
		return err
	}
	if len(q.Roles) == 0 {
		a.logger.Warn("no --role given; every candidate is filtered out")
	}

	results, err := a.matcher.Match(ctx, q)
	if err != nil {
		return err
	}

	total := len(results)
	if matchLimit > 0 && len(results) > matchLimit {
		results = results[:matchLimit]
	}

	if err := output.Output(outputFmt, results); err != nil {
		return err
	}
	if outputFmt == output.FormatTable && len(results) < total {
		fmt.Printf("Showing top %d of %d. Use --limit to see more.\n", len(results), total)
	}
	return nil
}
