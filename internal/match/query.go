package match

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vijay-prabhu/talentmatch/internal/database"
)

// ErrInvalidDateFormat is returned when joined_after is not a valid
// month/day/year date
var ErrInvalidDateFormat = errors.New("invalid date format")

// Query is the recruiter's filter and preference form. Every field is
// optional, but an empty Roles set always produces an empty result.
type Query struct {
	// Hard constraints
	Roles               []int64  `json:"role"`
	RequiredSkills      []int64  `json:"required_tech_skills,omitempty"`
	RequiredSpecialties []string `json:"required_specialties,omitempty"`
	JoinedAfter         string   `json:"joined_after,omitempty"` // month/day/year
	MemberOnly          bool     `json:"member,omitempty"`
	ExcludeUnavailable  bool     `json:"exclude_unavailable,omitempty"`
	ExcludeUnknown      bool     `json:"exclude_unknown,omitempty"`

	// Soft preferences
	DesiredSkills      []int64  `json:"desired_tech_skills,omitempty"`
	DesiredSpecialties []string `json:"desired_specialties,omitempty"`
	DesiredExperience  []int64  `json:"desired_experience,omitempty"`
}

// Normalize returns a copy with every set deduplicated and sorted and the
// date trimmed. The receiver is not modified.
func (q Query) Normalize() Query {
	q.Roles = normalizeSet(q.Roles)
	q.RequiredSkills = normalizeSet(q.RequiredSkills)
	q.RequiredSpecialties = normalizeSet(q.RequiredSpecialties)
	q.DesiredSkills = normalizeSet(q.DesiredSkills)
	q.DesiredSpecialties = normalizeSet(q.DesiredSpecialties)
	q.DesiredExperience = normalizeSet(q.DesiredExperience)
	q.JoinedAfter = strings.TrimSpace(q.JoinedAfter)
	return q
}

func normalizeSet[T cmp.Ordered](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// Fingerprint returns a stable hash of the normalized query
func (q Query) Fingerprint() string {
	data, _ := json.Marshal(q.Normalize())
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Encode returns the query as JSON, as stored in a saved selection
func (q Query) Encode() (string, error) {
	data, err := json.Marshal(q.Normalize())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeQuery parses a query saved with Encode
func DecodeQuery(s string) (Query, error) {
	var q Query
	if err := json.Unmarshal([]byte(s), &q); err != nil {
		return Query{}, fmt.Errorf("failed to decode query: %w", err)
	}
	return q.Normalize(), nil
}

// ParseDate parses a month/day/year date such as "4/23/2021".
func ParseDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q (want month/day/year)", ErrInvalidDateFormat, s)
	}

	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q (want month/day/year)", ErrInvalidDateFormat, s)
		}
		n[i] = v
	}

	month, day, year := n[0], n[1], n[2]
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDateFormat, s)
	}

	// time.Date normalizes out-of-range days, so a round trip catches 2/30
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDateFormat, s)
	}

	return d, nil
}

// joinedAfter returns the parsed joined_after date, or nil when unset
func (q Query) joinedAfter() (*time.Time, error) {
	if q.JoinedAfter == "" {
		return nil, nil
	}
	d, err := ParseDate(q.JoinedAfter)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate reports a malformed joined_after date. Nothing else in a query
// can be invalid.
func (q Query) Validate() error {
	_, err := q.Normalize().joinedAfter()
	return err
}

// Criteria derives the storage push-down for the query's hard constraints.
// Dates are taken in loc.
func (q Query) Criteria(loc *time.Location) (database.Criteria, error) {
	q = q.Normalize()
	crit := database.Criteria{
		RoleIDs:             q.Roles,
		RequiredSkillIDs:    q.RequiredSkills,
		RequiredSpecialties: q.RequiredSpecialties,
		MemberOnly:          q.MemberOnly,
		ExcludeUnavailable:  q.ExcludeUnavailable,
		ExcludeUnknown:      q.ExcludeUnknown,
	}

	after, err := q.joinedAfter()
	if err != nil {
		return database.Criteria{}, err
	}
	if after != nil {
		// strictly after day D == on or after midnight of D+1
		from := time.Date(after.Year(), after.Month(), after.Day()+1, 0, 0, 0, 0, loc)
		crit.JoinedFrom = &from
	}

	return crit, nil
}
