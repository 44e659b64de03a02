package match

import (
	"errors"
	"testing"
	"time"

	"github.com/vijay-prabhu/talentmatch/internal/database"
)

func i64(v int64) *int64 { return &v }
func boolp(v bool) *bool  { return &v }

func candidate(id, name string, role int64) database.Candidate {
	return database.Candidate{
		UserID:     id,
		FullName:   name,
		RoleID:     i64(role),
		DateJoined: time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC),
		Available:  boolp(true),
	}
}

func names(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.FullName
	}
	return out
}

func TestRank_RoleIsMandatory(t *testing.T) {
	cands := []database.Candidate{candidate("1", "Amy Zhou", 1)}

	for _, q := range []Query{{}, {Roles: []int64{}}} {
		results, err := Rank(q, cands)
		if err != nil {
			t.Fatalf("Rank failed: %v", err)
		}
		if results == nil || len(results) != 0 {
			t.Errorf("expected empty non-nil result, got %v", results)
		}
	}
}

func TestRank_RoleFilter(t *testing.T) {
	noRole := candidate("3", "Cara Diaz", 0)
	noRole.RoleID = nil
	cands := []database.Candidate{
		candidate("1", "Amy Zhou", 1),
		candidate("2", "Ben Lee", 2),
		noRole,
	}

	results, err := Rank(Query{Roles: []int64{1}}, cands)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 1 || results[0].UserID != "1" {
		t.Errorf("expected only candidate 1, got %v", names(results))
	}
}

func TestRank_RequiredSets(t *testing.T) {
	full := candidate("1", "Amy Zhou", 1)
	full.SkillIDs = []int64{10, 20, 30}
	full.SpecialtyNames = []string{"Backend", "Data"}

	partial := candidate("2", "Ben Lee", 1)
	partial.SkillIDs = []int64{10}
	partial.SpecialtyNames = []string{"Backend"}

	cands := []database.Candidate{full, partial}

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "no required sets",
			query: Query{Roles: []int64{1}},
			want:  []string{"Amy Zhou", "Ben Lee"},
		},
		{
			name:  "all required skills present",
			query: Query{Roles: []int64{1}, RequiredSkills: []int64{10, 30}},
			want:  []string{"Amy Zhou"},
		},
		{
			name:  "single shared skill",
			query: Query{Roles: []int64{1}, RequiredSkills: []int64{10}},
			want:  []string{"Amy Zhou", "Ben Lee"},
		},
		{
			name:  "required specialties",
			query: Query{Roles: []int64{1}, RequiredSpecialties: []string{"Data"}},
			want:  []string{"Amy Zhou"},
		},
		{
			name:  "specialty names are case sensitive",
			query: Query{Roles: []int64{1}, RequiredSpecialties: []string{"backend"}},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Rank(tt.query, cands)
			if err != nil {
				t.Fatalf("Rank failed: %v", err)
			}
			got := names(results)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestRank_JoinedAfter(t *testing.T) {
	early := candidate("1", "Amy Zhou", 1)
	early.DateJoined = time.Date(2020, 3, 15, 23, 59, 0, 0, time.UTC)
	sameDay := candidate("2", "Ben Lee", 1)
	sameDay.DateJoined = time.Date(2020, 3, 16, 8, 0, 0, 0, time.UTC)
	nextDay := candidate("3", "Cara Diaz", 1)
	nextDay.DateJoined = time.Date(2020, 3, 17, 0, 0, 0, 0, time.UTC)

	results, err := Rank(Query{Roles: []int64{1}, JoinedAfter: "3/16/2020"},
		[]database.Candidate{early, sameDay, nextDay})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 1 || results[0].UserID != "3" {
		t.Errorf("expected only the candidate who joined after 3/16/2020, got %v", names(results))
	}
}

func TestRank_JoinedAfterUsesRankerLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 02:00 UTC on the 17th is still the 16th in New York
	c := candidate("1", "Amy Zhou", 1)
	c.DateJoined = time.Date(2020, 3, 17, 2, 0, 0, 0, time.UTC)
	q := Query{Roles: []int64{1}, JoinedAfter: "3/16/2020"}

	utc, _ := Rank(q, []database.Candidate{c})
	if len(utc) != 1 {
		t.Errorf("expected candidate to pass in UTC, got %d results", len(utc))
	}

	local, _ := NewRanker(DefaultWeights(), ny).Rank(q, []database.Candidate{c})
	if len(local) != 0 {
		t.Errorf("expected candidate to fail in New York time, got %d results", len(local))
	}
}

func TestRank_InvalidDate(t *testing.T) {
	cands := []database.Candidate{candidate("1", "Amy Zhou", 1)}

	for _, s := range []string{"13/40/2020", "2020-01-01", "1/2", "1/2/3/4", "a/b/c", "2/30/2021", "0/10/2020"} {
		t.Run(s, func(t *testing.T) {
			results, err := Rank(Query{Roles: []int64{1}, JoinedAfter: s}, cands)
			if !errors.Is(err, ErrInvalidDateFormat) {
				t.Errorf("expected ErrInvalidDateFormat, got %v", err)
			}
			if results != nil {
				t.Errorf("expected no partial results, got %v", results)
			}
		})
	}
}

func TestRank_InvalidDateWithoutRole(t *testing.T) {
	_, err := Rank(Query{JoinedAfter: "13/40/2020"}, nil)
	if !errors.Is(err, ErrInvalidDateFormat) {
		t.Errorf("expected ErrInvalidDateFormat even with no role, got %v", err)
	}
}

func TestRank_MemberOnly(t *testing.T) {
	member := candidate("1", "Amy Zhou", 1)
	member.Member = true
	other := candidate("2", "Ben Lee", 1)

	results, _ := Rank(Query{Roles: []int64{1}, MemberOnly: true}, []database.Candidate{member, other})
	if len(results) != 1 || results[0].UserID != "1" {
		t.Errorf("expected only the member, got %v", names(results))
	}
}

func TestRank_AvailabilityExclusion(t *testing.T) {
	yes := candidate("1", "Amy Zhou", 1)
	no := candidate("2", "Ben Lee", 1)
	no.Available = boolp(false)
	unknown := candidate("3", "Cara Diaz", 1)
	unknown.Available = nil
	cands := []database.Candidate{yes, no, unknown}

	tests := []struct {
		name               string
		excludeUnavailable bool
		excludeUnknown     bool
		want               []string
	}{
		{"no exclusion", false, false, []string{"Amy Zhou", "Ben Lee", "Cara Diaz"}},
		{"exclude unavailable keeps unknown", true, false, []string{"Amy Zhou", "Cara Diaz"}},
		{"exclude unknown keeps unavailable", false, true, []string{"Amy Zhou", "Ben Lee"}},
		{"both", true, true, []string{"Amy Zhou"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Rank(Query{
				Roles:              []int64{1},
				ExcludeUnavailable: tt.excludeUnavailable,
				ExcludeUnknown:     tt.excludeUnknown,
			}, cands)
			if err != nil {
				t.Fatalf("Rank failed: %v", err)
			}
			got := names(results)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestRank_Scores(t *testing.T) {
	tests := []struct {
		name       string
		query      Query
		skills     []int64
		specs      []string
		expLevel   *int64
		wantSkills float64
		wantSpecs  float64
		wantExp    float64
		wantScore  int
	}{
		{
			name:       "no preferences gives neutral credit",
			query:      Query{Roles: []int64{1}},
			wantSkills: 0.5,
			wantSpecs:  0.3,
			wantScore:  80,
		},
		{
			name:       "half the desired skills",
			query:      Query{Roles: []int64{1}, DesiredSkills: []int64{10, 20}},
			skills:     []int64{10},
			wantSkills: 0.25,
			wantSpecs:  0.3,
			wantScore:  55,
		},
		{
			name:       "no overlap scores zero not neutral",
			query:      Query{Roles: []int64{1}, DesiredSkills: []int64{10, 20}},
			skills:     []int64{30},
			wantSkills: 0,
			wantSpecs:  0.3,
			wantScore:  30,
		},
		{
			name:       "candidate without skills",
			query:      Query{Roles: []int64{1}, DesiredSkills: []int64{10}},
			wantSkills: 0,
			wantSpecs:  0.3,
			wantScore:  30,
		},
		{
			name:       "duplicate candidate skills count once",
			query:      Query{Roles: []int64{1}, DesiredSkills: []int64{10, 20}},
			skills:     []int64{10, 10, 10},
			wantSkills: 0.25,
			wantSpecs:  0.3,
			wantScore:  55,
		},
		{
			name:       "duplicate desired skills count once",
			query:      Query{Roles: []int64{1}, DesiredSkills: []int64{10, 10, 20}},
			skills:     []int64{10},
			wantSkills: 0.25,
			wantSpecs:  0.3,
			wantScore:  55,
		},
		{
			name:       "specialties two of three",
			query:      Query{Roles: []int64{1}, DesiredSpecialties: []string{"A", "B", "C"}},
			specs:      []string{"A", "C", "Z"},
			wantSkills: 0.5,
			wantSpecs:  0.2,
			wantScore:  70,
		},
		{
			name:       "experience match",
			query:      Query{Roles: []int64{1}, DesiredExperience: []int64{3}},
			expLevel:   i64(3),
			wantSkills: 0.5,
			wantSpecs:  0.3,
			wantExp:    0.2,
			wantScore:  100,
		},
		{
			name:       "experience mismatch",
			query:      Query{Roles: []int64{1}, DesiredExperience: []int64{3}},
			expLevel:   i64(2),
			wantSkills: 0.5,
			wantSpecs:  0.3,
			wantScore:  80,
		},
		{
			name:       "unknown experience level",
			query:      Query{Roles: []int64{1}, DesiredExperience: []int64{3}},
			wantSkills: 0.5,
			wantSpecs:  0.3,
			wantScore:  80,
		},
		{
			name:       "exact half rounds up",
			query:      Query{Roles: []int64{1}, DesiredSkills: []int64{1, 2, 3, 4}},
			skills:     []int64{1},
			wantSkills: 0.125,
			wantSpecs:  0.3,
			wantScore:  43, // 42.5
		},
		{
			name: "thirds round to nearest",
			query: Query{
				Roles:              []int64{1},
				DesiredSkills:      []int64{1, 2, 3},
				DesiredSpecialties: []string{"A", "B", "C"},
			},
			skills:     []int64{1},
			specs:      []string{"A", "B"},
			wantSkills: 0.5 / 3,
			wantSpecs:  0.2,
			wantScore:  37, // 16.67 + 20
		},
		{
			name: "full match",
			query: Query{
				Roles:              []int64{1},
				DesiredSkills:      []int64{1, 2},
				DesiredSpecialties: []string{"A"},
				DesiredExperience:  []int64{5, 6},
			},
			skills:     []int64{2, 1, 9},
			specs:      []string{"A"},
			expLevel:   i64(6),
			wantSkills: 0.5,
			wantSpecs:  0.3,
			wantExp:    0.2,
			wantScore:  100,
		},
	}

	const eps = 1e-9
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidate("1", "Amy Zhou", 1)
			c.SkillIDs = tt.skills
			c.SpecialtyNames = tt.specs
			c.ExperienceLevelID = tt.expLevel

			results, err := Rank(tt.query, []database.Candidate{c})
			if err != nil {
				t.Fatalf("Rank failed: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			r := results[0]

			if d := r.SkillsScore - tt.wantSkills; d > eps || d < -eps {
				t.Errorf("SkillsScore = %v, want %v", r.SkillsScore, tt.wantSkills)
			}
			if d := r.SpecialtiesScore - tt.wantSpecs; d > eps || d < -eps {
				t.Errorf("SpecialtiesScore = %v, want %v", r.SpecialtiesScore, tt.wantSpecs)
			}
			if d := r.ExperienceScore - tt.wantExp; d > eps || d < -eps {
				t.Errorf("ExperienceScore = %v, want %v", r.ExperienceScore, tt.wantExp)
			}
			if r.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", r.Score, tt.wantScore)
			}
		})
	}
}

func TestRank_Ordering(t *testing.T) {
	// Amy and Ben tie at 70; Cara matches everything
	amy := candidate("a", "Amy Zhou", 1)
	amy.SpecialtyNames = []string{"A", "B"}
	ben := candidate("b", "Ben Lee", 1)
	ben.SpecialtyNames = []string{"A", "B"}
	cara := candidate("c", "Cara Diaz", 1)
	cara.SpecialtyNames = []string{"A", "B", "C"}
	cara.ExperienceLevelID = i64(1)

	q := Query{
		Roles:              []int64{1},
		DesiredSpecialties: []string{"A", "B", "C"},
		DesiredExperience:  []int64{1},
	}

	results, err := Rank(q, []database.Candidate{ben, cara, amy})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	want := []struct {
		name  string
		score int
	}{
		{"Cara Diaz", 100},
		{"Amy Zhou", 70},
		{"Ben Lee", 70},
	}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, w := range want {
		if results[i].FullName != w.name || results[i].Score != w.score {
			t.Errorf("position %d: got %s (%d), want %s (%d)",
				i, results[i].FullName, results[i].Score, w.name, w.score)
		}
	}
}

func TestRank_NameTieBreakIsCaseSensitive(t *testing.T) {
	lower := candidate("1", "amy zhou", 1)
	upper := candidate("2", "Zed Adams", 1)

	results, _ := Rank(Query{Roles: []int64{1}}, []database.Candidate{lower, upper})
	if results[0].FullName != "Zed Adams" {
		t.Errorf("expected uppercase name first in byte order, got %v", names(results))
	}
}

func TestRank_EqualNamesOrderByUserID(t *testing.T) {
	a := candidate("user-b", "Sam Park", 1)
	b := candidate("user-a", "Sam Park", 1)

	results, _ := Rank(Query{Roles: []int64{1}}, []database.Candidate{a, b})
	if results[0].UserID != "user-a" || results[1].UserID != "user-b" {
		t.Errorf("expected user-a before user-b, got %s, %s", results[0].UserID, results[1].UserID)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	c := candidate("1", "Amy Zhou", 1)
	c.SkillIDs = []int64{30, 10, 10}
	cands := []database.Candidate{candidate("2", "Ben Lee", 1), c}
	q := Query{Roles: []int64{1}, DesiredSkills: []int64{20, 10}}

	if _, err := Rank(q, cands); err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	if cands[0].UserID != "2" || cands[1].UserID != "1" {
		t.Error("input order changed")
	}
	if got := cands[1].SkillIDs; len(got) != 3 || got[0] != 30 || got[1] != 10 {
		t.Errorf("candidate skills changed: %v", got)
	}
	if q.DesiredSkills[0] != 20 {
		t.Errorf("query changed: %v", q.DesiredSkills)
	}
}

func TestRanker_CustomWeights(t *testing.T) {
	r := NewRanker(Weights{Skills: 60, Specialties: 20, Experience: 20}, nil)
	c := candidate("1", "Amy Zhou", 1)

	results, err := r.Rank(Query{Roles: []int64{1}}, []database.Candidate{c})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if results[0].Score != 80 {
		t.Errorf("Score = %d, want 80", results[0].Score)
	}
	if r.Location() != time.UTC {
		t.Errorf("expected nil location to default to UTC, got %v", r.Location())
	}
}
