// Package match filters candidates by a recruiter's hard constraints and
// ranks the survivors by weighted relevance to their soft preferences.
package match

import (
	"slices"
	"strings"
	"time"

	"github.com/vijay-prabhu/talentmatch/internal/database"
)

// MaxScore is the score of a candidate matching every preference
const MaxScore = 100

// Weights are the sub-score weights in points out of MaxScore. When no
// preference is expressed for skills or specialties the full weight is
// credited.
type Weights struct {
	Skills      int64
	Specialties int64
	Experience  int64
}

// DefaultWeights returns 0.5 / 0.3 / 0.2 of the score
func DefaultWeights() Weights {
	return Weights{Skills: 50, Specialties: 30, Experience: 20}
}

// Result is a candidate that passed every hard constraint, with its scores
type Result struct {
	database.Candidate
	SkillsScore      float64 `json:"desired_skills_score"`
	SpecialtiesScore float64 `json:"desired_specialties_score"`
	ExperienceScore  float64 `json:"experience_score"`
	Score            int     `json:"match_score"`
}

// Ranker scores and orders candidates. The zero value is not usable; use
// NewRanker.
type Ranker struct {
	weights  Weights
	location *time.Location
}

// NewRanker creates a Ranker. Dates are compared in loc (UTC when nil).
func NewRanker(w Weights, loc *time.Location) *Ranker {
	if loc == nil {
		loc = time.UTC
	}
	return &Ranker{weights: w, location: loc}
}

// Location returns the timezone used for date_joined comparisons
func (r *Ranker) Location() *time.Location {
	return r.location
}

var defaultRanker = NewRanker(DefaultWeights(), time.UTC)

// Rank filters and scores candidates with the default weights in UTC
func Rank(q Query, candidates []database.Candidate) ([]Result, error) {
	return defaultRanker.Rank(q, candidates)
}

// fraction is an exact sub-score ratio num/den
type fraction struct {
	num, den int64
}

// plan is a query with its sets indexed for lookups
type plan struct {
	roles               set[int64]
	requiredSkills      []int64
	requiredSpecialties []string
	joinedAfter         *time.Time
	desiredSkills       set[int64]
	desiredSpecialties  set[string]
	desiredExperience   set[int64]
	memberOnly          bool
	excludeUnavailable  bool
	excludeUnknown      bool
}

func newPlan(q Query) (*plan, error) {
	q = q.Normalize()
	after, err := q.joinedAfter()
	if err != nil {
		return nil, err
	}
	return &plan{
		roles:               newSet(q.Roles),
		requiredSkills:      q.RequiredSkills,
		requiredSpecialties: q.RequiredSpecialties,
		joinedAfter:         after,
		desiredSkills:       newSet(q.DesiredSkills),
		desiredSpecialties:  newSet(q.DesiredSpecialties),
		desiredExperience:   newSet(q.DesiredExperience),
		memberOnly:          q.MemberOnly,
		excludeUnavailable:  q.ExcludeUnavailable,
		excludeUnknown:      q.ExcludeUnknown,
	}, nil
}

// Rank filters candidates by the query's hard constraints, scores the
// survivors and orders them by score descending, then full name, then user
// ID. The candidates slice is not modified. A malformed joined_after date
// fails the whole call with ErrInvalidDateFormat.
func (r *Ranker) Rank(q Query, candidates []database.Candidate) ([]Result, error) {
	p, err := newPlan(q)
	if err != nil {
		return nil, err
	}

	results := []Result{}
	if len(p.roles) == 0 {
		return results, nil
	}

	for i := range candidates {
		c := &candidates[i]
		if !r.keep(p, c) {
			continue
		}
		results = append(results, r.score(p, c))
	}

	slices.SortFunc(results, compareResults)
	return results, nil
}

func compareResults(a, b Result) int {
	if a.Score != b.Score {
		return b.Score - a.Score
	}
	if c := strings.Compare(a.FullName, b.FullName); c != 0 {
		return c
	}
	return strings.Compare(a.UserID, b.UserID)
}

// keep applies the hard constraints
func (r *Ranker) keep(p *plan, c *database.Candidate) bool {
	if c.RoleID == nil || !p.roles.has(*c.RoleID) {
		return false
	}
	if len(p.requiredSkills) > 0 && !containsAll(c.SkillIDs, p.requiredSkills) {
		return false
	}
	if len(p.requiredSpecialties) > 0 && !containsAll(c.SpecialtyNames, p.requiredSpecialties) {
		return false
	}
	if p.joinedAfter != nil && !r.joinedAfter(c.DateJoined, *p.joinedAfter) {
		return false
	}
	if p.memberOnly && !c.Member {
		return false
	}

	// excluded when either active clause matches
	unavailable := c.Available != nil && !*c.Available
	unknown := c.Available == nil
	if (p.excludeUnavailable && unavailable) || (p.excludeUnknown && unknown) {
		return false
	}

	return true
}

// joinedAfter compares the calendar date of joined, taken in the ranker's
// location, against day
func (r *Ranker) joinedAfter(joined, day time.Time) bool {
	y, m, d := joined.In(r.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).After(day)
}

// score computes the sub-scores and the rounded match score
func (r *Ranker) score(p *plan, c *database.Candidate) Result {
	skills := preference(countMatches(c.SkillIDs, p.desiredSkills), len(p.desiredSkills))
	specialties := preference(countMatches(c.SpecialtyNames, p.desiredSpecialties), len(p.desiredSpecialties))

	var experience int64
	if c.ExperienceLevelID != nil && p.desiredExperience.has(*c.ExperienceLevelID) {
		experience = 1
	}

	w := r.weights
	res := Result{
		Candidate:        *c,
		SkillsScore:      float64(w.Skills) * float64(skills.num) / float64(skills.den) / MaxScore,
		SpecialtiesScore: float64(w.Specialties) * float64(specialties.num) / float64(specialties.den) / MaxScore,
		ExperienceScore:  float64(w.Experience*experience) / MaxScore,
	}

	// exact sum over a common denominator, rounded half up
	num := w.Skills*skills.num*specialties.den +
		w.Specialties*specialties.num*skills.den +
		w.Experience*experience*skills.den*specialties.den
	den := skills.den * specialties.den
	res.Score = int((2*num + den) / (2 * den))

	return res
}

// preference returns matched/desired, or full credit when nothing is desired.
// No overlap is a zero count, never a missing one.
func preference(matched, desired int) fraction {
	if desired == 0 {
		return fraction{num: 1, den: 1}
	}
	return fraction{num: int64(matched), den: int64(desired)}
}

type set[T comparable] map[T]struct{}

func newSet[T comparable](items []T) set[T] {
	s := make(set[T], len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s set[T]) has(v T) bool {
	_, ok := s[v]
	return ok
}

// countMatches counts the distinct items of have that are in want
func countMatches[T comparable](have []T, want set[T]) int {
	if len(want) == 0 {
		return 0
	}
	seen := make(set[T], len(want))
	for _, v := range have {
		if want.has(v) {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// containsAll reports whether have is a superset of want
func containsAll[T comparable](have, want []T) bool {
	hs := newSet(have)
	for _, v := range want {
		if !hs.has(v) {
			return false
		}
	}
	return true
}
