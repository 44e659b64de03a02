package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vijay-prabhu/talentmatch/internal/database"
	"github.com/vijay-prabhu/talentmatch/internal/match"
)

// candidateHeader lists the exported candidate attributes
var candidateHeader = []string{
	"user_id", "full_name", "role", "primary_area", "experience_level", "current_job_title",
	"year_exp", "industry", "avg_tenure", "specialty_names", "skill_names", "linkedin_url",
	"resume_name", "resume_url", "urls", "date_joined", "available", "member",
}

var scoreHeader = []string{
	"desired_skills_score", "desired_specialties_score", "experience_score", "match_score",
}

// CSVTo writes results or candidates as CSV rows with a header
func CSVTo(w io.Writer, data any) error {
	cw := csv.NewWriter(w)

	switch v := data.(type) {
	case []match.Result:
		if err := cw.Write(append(append([]string{}, candidateHeader...), scoreHeader...)); err != nil {
			return err
		}
		for i := range v {
			r := &v[i]
			row := append(candidateRow(&r.Candidate),
				formatFloat(r.SkillsScore),
				formatFloat(r.SpecialtiesScore),
				formatFloat(r.ExperienceScore),
				strconv.Itoa(r.Score),
			)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	case []database.Candidate:
		if err := cw.Write(candidateHeader); err != nil {
			return err
		}
		for i := range v {
			if err := cw.Write(candidateRow(&v[i])); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported data type for csv output: %T", data)
	}

	cw.Flush()
	return cw.Error()
}

func candidateRow(c *database.Candidate) []string {
	available := ""
	if c.Available != nil {
		available = strconv.FormatBool(*c.Available)
	}
	return []string{
		c.UserID,
		c.FullName,
		c.Role,
		c.PrimaryArea,
		c.ExperienceLevel,
		c.CurrentJobTitle,
		formatFloatPtr(c.YearsExperience),
		c.Industry,
		formatFloatPtr(c.AvgTenure),
		strings.Join(c.SpecialtyNames, "; "),
		strings.Join(c.SkillNames, "; "),
		c.LinkedInURL,
		c.ResumeName,
		c.ResumeURL,
		strings.Join(c.URLs, " "),
		c.DateJoined.UTC().Format(time.RFC3339),
		available,
		strconv.FormatBool(c.Member),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
