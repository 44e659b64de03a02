// Package ingest reads candidate records from JSON and CSV files.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vijay-prabhu/talentmatch/internal/database"
)

// Supported file formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// RowError reports a bad value in a CSV row. Line is 1-based and counts the
// header.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ErrMissingName is returned for a record without a full name
var ErrMissingName = errors.New("full_name is required")

// DetectFormat returns the format implied by a file extension
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("cannot tell the format of %s (use .json or .csv)", path)
	}
}

// ReadFile reads candidates from a .json or .csv file
func ReadFile(path string) ([]database.Candidate, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, format)
}

// Read reads candidates in the given format
func Read(r io.Reader, format string) ([]database.Candidate, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r)
	case FormatCSV:
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("unknown format: %s (use json or csv)", format)
	}
}

// ReadJSON reads a JSON array of candidates. Extra fields, such as the score
// columns of an exported result list, are ignored.
func ReadJSON(r io.Reader) ([]database.Candidate, error) {
	var candidates []database.Candidate
	if err := json.NewDecoder(r).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("failed to decode candidates: %w", err)
	}

	for i := range candidates {
		if strings.TrimSpace(candidates[i].FullName) == "" {
			return nil, fmt.Errorf("candidate %d: %w", i, ErrMissingName)
		}
	}
	return candidates, nil
}

// ReadCSV reads candidates from CSV with a header row. Columns are matched
// by name and unknown columns are ignored. List columns separate items
// with ";" except urls, which is space separated.
func ReadCSV(r io.Reader) ([]database.Candidate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return []database.Candidate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["full_name"]; !ok {
		return nil, &RowError{Line: 1, Column: "full_name", Err: errors.New("missing column")}
	}

	candidates := []database.Candidate{}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		c, err := parseRow(row{cols: cols, record: record, line: line})
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}

	return candidates, nil
}

// row is one CSV record with its column index
type row struct {
	cols   map[string]int
	record []string
	line   int
}

func (r row) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r row) fail(col string, err error) error {
	return &RowError{Line: r.line, Column: col, Err: err}
}

func (r row) int64p(col string) (*int64, error) {
	v := r.get(col)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, r.fail(col, err)
	}
	return &n, nil
}

func (r row) float64p(col string) (*float64, error) {
	v := r.get(col)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, r.fail(col, err)
	}
	return &f, nil
}

func (r row) ids(col string) ([]int64, error) {
	var out []int64
	for _, item := range r.names(col) {
		n, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, r.fail(col, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (r row) names(col string) []string {
	var out []string
	for _, item := range strings.Split(r.get(col), ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// availability parses a tri-state flag; blank or "unknown" means unknown
// ParseAvailability reads yes/no/true/false/1/0. Blank or "unknown" yields nil.
func ParseAvailability(s string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return nil, nil
	case "true", "yes", "1":
		b := true
		return &b, nil
	case "false", "no", "0":
		b := false
		return &b, nil
	default:
		return nil, fmt.Errorf("invalid availability %q", s)
	}
}

func (r row) availability(col string) (*bool, error) {
	v, err := ParseAvailability(r.get(col))
	if err != nil {
		return nil, r.fail(col, err)
	}
	return v, nil
}

func (r row) flag(col string) (bool, error) {
	switch strings.ToLower(r.get(col)) {
	case "", "false", "no", "0":
		return false, nil
	case "true", "yes", "1":
		return true, nil
	default:
		return false, r.fail(col, fmt.Errorf("invalid boolean %q", r.get(col)))
	}
}

// Accepted date_joined layouts
var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func (r row) date(col string) (time.Time, error) {
	v := r.get(col)
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, r.fail(col, fmt.Errorf("invalid date %q (want RFC3339 or YYYY-MM-DD)", v))
}

func parseRow(r row) (*database.Candidate, error) {
	c := &database.Candidate{
		UserID:          r.get("user_id"),
		FullName:        r.get("full_name"),
		Role:            r.get("role"),
		PrimaryArea:     r.get("primary_area"),
		ExperienceLevel: r.get("experience_level"),
		CurrentJobTitle: r.get("current_job_title"),
		Industry:        r.get("industry"),
		SkillNames:      r.names("skill_names"),
		SpecialtyNames:  r.names("specialty_names"),
		LinkedInURL:     r.get("linkedin_url"),
		ResumeName:      r.get("resume_name"),
		ResumeURL:       r.get("resume_url"),
		URLs:            strings.Fields(r.get("urls")),
	}
	if c.FullName == "" {
		return nil, r.fail("full_name", ErrMissingName)
	}

	var err error
	if c.RoleID, err = r.int64p("role_id"); err != nil {
		return nil, err
	}
	if c.ExperienceLevelID, err = r.int64p("experience_level_id"); err != nil {
		return nil, err
	}
	if c.YearsExperience, err = r.float64p("year_exp"); err != nil {
		return nil, err
	}
	if c.AvgTenure, err = r.float64p("avg_tenure"); err != nil {
		return nil, err
	}
	if c.SkillIDs, err = r.ids("skill_ids"); err != nil {
		return nil, err
	}
	if c.SpecialtyIDs, err = r.ids("specialty_ids"); err != nil {
		return nil, err
	}
	if c.DateJoined, err = r.date("date_joined"); err != nil {
		return nil, err
	}
	if c.Available, err = r.availability("available"); err != nil {
		return nil, err
	}
	if c.Member, err = r.flag("member"); err != nil {
		return nil, err
	}

	return c, nil
}
