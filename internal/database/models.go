package database

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a candidate or selection does not exist
var ErrNotFound = errors.New("not found")

// Candidate represents a user record evaluated for relevance
type Candidate struct {
	UserID            string    `json:"user_id"`
	FullName          string    `json:"full_name"`
	Role              string    `json:"role,omitempty"`
	RoleID            *int64    `json:"role_id,omitempty"`
	PrimaryArea       string    `json:"primary_area,omitempty"`
	ExperienceLevel   string    `json:"experience_level,omitempty"`
	ExperienceLevelID *int64    `json:"experience_level_id,omitempty"`
	CurrentJobTitle   string    `json:"current_job_title,omitempty"`
	YearsExperience   *float64  `json:"year_exp,omitempty"`
	Industry          string    `json:"industry,omitempty"`
	AvgTenure         *float64  `json:"avg_tenure,omitempty"`
	SkillIDs          []int64   `json:"skill_ids"`
	SkillNames        []string  `json:"skill_names"`
	SpecialtyIDs      []int64   `json:"specialty_ids"`
	SpecialtyNames    []string  `json:"specialty_names"`
	LinkedInURL       string    `json:"linkedin_url,omitempty"`
	ResumeName        string    `json:"resume_name,omitempty"`
	ResumeURL         string    `json:"resume_url,omitempty"`
	URLs              []string  `json:"urls,omitempty"`
	DateJoined        time.Time `json:"date_joined"`
	Available         *bool     `json:"available"` // nil means unknown
	Member            bool      `json:"member"`
}

// AvailabilityLabel returns yes/no/unknown for display
func (c *Candidate) AvailabilityLabel() string {
	if c.Available == nil {
		return "unknown"
	}
	if *c.Available {
		return "yes"
	}
	return "no"
}

// Criteria holds the hard constraints a store may push down into its query.
// A store must never drop a candidate that satisfies every set criterion.
type Criteria struct {
	RoleIDs             []int64
	RequiredSkillIDs    []int64
	RequiredSpecialties []string
	JoinedFrom          *time.Time // inclusive lower bound on date_joined
	MemberOnly          bool
	ExcludeUnavailable  bool
	ExcludeUnknown      bool
}

// Selection is a saved set of match filters
type Selection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOptions contains options for listing candidates
type ListOptions struct {
	RoleID *int64
	Name   *string
	Limit  int
	Offset int
}

// Stats summarizes the candidate store
type Stats struct {
	TotalCandidates int `json:"total_candidates"`
	Members         int `json:"members"`
	Available       int `json:"available"`
	Unavailable     int `json:"unavailable"`
	UnknownAvail    int `json:"unknown_availability"`
	Selections      int `json:"selections"`
}

// NullInt64 is a helper to convert *int64 to sql.NullInt64
func NullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// NullFloat64 is a helper to convert *float64 to sql.NullFloat64
func NullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// NullBool is a helper to convert *bool to sql.NullBool
func NullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// Int64Ptr converts sql.NullInt64 to *int64
func Int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return &ni.Int64
}

// Float64Ptr converts sql.NullFloat64 to *float64
func Float64Ptr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}

// BoolPtr converts sql.NullBool to *bool
func BoolPtr(nb sql.NullBool) *bool {
	if !nb.Valid {
		return nil
	}
	return &nb.Bool
}
