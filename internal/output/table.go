package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/talentmatch/internal/database"
	"github.com/vijay-prabhu/talentmatch/internal/match"
)

// Table writes data as a formatted table to stdout
func Table(data any) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data any) error {
	t := TerminalFor(w)
	switch v := data.(type) {
	case []match.Result:
		return resultsTable(w, t, v)
	case []database.Candidate:
		return candidatesTable(w, t, v)
	case *database.Candidate:
		return candidateDetail(w, v)
	case *database.Stats:
		return statsTable(w, v)
	case []database.Selection:
		return selectionsTable(w, v)
	case *database.Selection:
		return selectionDetail(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func resultsTable(w io.Writer, t *Terminal, results []match.Result) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching candidates.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Score", "Name", "Role", "Experience", "Skills", "Specialties", "Available", "Joined")

	for _, r := range results {
		score := strconv.Itoa(r.Score)
		if err := table.Append([]string{
			t.Color(ScoreColor(r.Score), score),
			truncate(r.FullName, 25),
			truncate(r.Role, 20),
			truncate(r.ExperienceLevel, 15),
			truncate(strings.Join(r.SkillNames, ", "), 30),
			truncate(strings.Join(r.SpecialtyNames, ", "), 30),
			t.Color(AvailabilityColor(r.AvailabilityLabel()), r.AvailabilityLabel()),
			r.DateJoined.Format("2006-01-02"),
		}); err != nil {
			return err
		}
	}

	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d candidates\n", len(results))
	return nil
}

func candidatesTable(w io.Writer, t *Terminal, candidates []database.Candidate) error {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No candidates found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Role", "Experience", "Available", "Member", "Joined")

	for _, c := range candidates {
		member := ""
		if c.Member {
			member = "yes"
		}
		if err := table.Append([]string{
			truncate(c.UserID, 12),
			truncate(c.FullName, 25),
			truncate(c.Role, 20),
			truncate(c.ExperienceLevel, 15),
			t.Color(AvailabilityColor(c.AvailabilityLabel()), c.AvailabilityLabel()),
			member,
			c.DateJoined.Format("2006-01-02"),
		}); err != nil {
			return err
		}
	}

	return table.Render()
}

func candidateDetail(w io.Writer, c *database.Candidate) error {
	fmt.Fprintf(w, "Name:        %s\n", c.FullName)
	fmt.Fprintf(w, "ID:          %s\n", c.UserID)

	if c.Role != "" {
		fmt.Fprintf(w, "Role:        %s", c.Role)
		if c.RoleID != nil {
			fmt.Fprintf(w, " (%d)", *c.RoleID)
		}
		fmt.Fprintln(w)
	}
	if c.CurrentJobTitle != "" {
		fmt.Fprintf(w, "Title:       %s\n", c.CurrentJobTitle)
	}
	if c.ExperienceLevel != "" {
		fmt.Fprintf(w, "Experience:  %s", c.ExperienceLevel)
		if c.YearsExperience != nil {
			fmt.Fprintf(w, ", %.1f years", *c.YearsExperience)
		}
		fmt.Fprintln(w)
	}
	if c.Industry != "" {
		fmt.Fprintf(w, "Industry:    %s\n", c.Industry)
	}
	if len(c.SkillNames) > 0 {
		fmt.Fprintf(w, "Skills:      %s\n", strings.Join(c.SkillNames, ", "))
	}
	if len(c.SpecialtyNames) > 0 {
		fmt.Fprintf(w, "Specialties: %s\n", strings.Join(c.SpecialtyNames, ", "))
	}
	if c.LinkedInURL != "" {
		fmt.Fprintf(w, "LinkedIn:    %s\n", c.LinkedInURL)
	}
	if c.ResumeURL != "" {
		fmt.Fprintf(w, "Resume:      %s\n", c.ResumeURL)
	}

	fmt.Fprintf(w, "Available:   %s\n", c.AvailabilityLabel())
	fmt.Fprintf(w, "Member:      %t\n", c.Member)
	fmt.Fprintf(w, "Joined:      %s\n", c.DateJoined.Format("Jan 02, 2006"))

	return nil
}

func statsTable(w io.Writer, s *database.Stats) error {
	fmt.Fprintf(w, "Candidates:     %d\n", s.TotalCandidates)
	fmt.Fprintf(w, "  Members:      %d\n", s.Members)
	fmt.Fprintf(w, "  Available:    %d\n", s.Available)
	fmt.Fprintf(w, "  Unavailable:  %d\n", s.Unavailable)
	fmt.Fprintf(w, "  Unknown:      %d\n", s.UnknownAvail)
	fmt.Fprintf(w, "Selections:     %d\n", s.Selections)
	return nil
}

func selectionsTable(w io.Writer, selections []database.Selection) error {
	if len(selections) == 0 {
		fmt.Fprintln(w, "No saved selections.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Created")
	for _, s := range selections {
		if err := table.Append([]string{s.ID, s.Name, s.CreatedAt.Format("2006-01-02 15:04")}); err != nil {
			return err
		}
	}
	return table.Render()
}

func selectionDetail(w io.Writer, s *database.Selection) error {
	fmt.Fprintf(w, "Name:     %s\n", s.Name)
	fmt.Fprintf(w, "ID:       %s\n", s.ID)
	fmt.Fprintf(w, "Created:  %s\n", s.CreatedAt.Format("Jan 02, 2006 15:04"))
	fmt.Fprintf(w, "Query:    %s\n", s.Query)
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
