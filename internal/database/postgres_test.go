package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

const envTestPostgresURL = "TALENTMATCH_TEST_POSTGRES_URL"

func setupTestPG(t *testing.T) *PGStore {
	t.Helper()

	url := os.Getenv(envTestPostgresURL)
	if url == "" {
		t.Skipf("%s not set", envTestPostgresURL)
	}

	ctx := context.Background()
	s, err := OpenPostgres(ctx, url)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	if _, err := s.pool.Exec(ctx, "TRUNCATE candidates, selections"); err != nil {
		s.Close()
		t.Fatalf("failed to truncate tables: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPGCandidatesQuery(t *testing.T) {
	from := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	query, args := pgCandidatesQuery(Criteria{
		RoleIDs:             []int64{1, 2},
		RequiredSkillIDs:    []int64{10},
		RequiredSpecialties: []string{"Backend"},
		JoinedFrom:          &from,
		MemberOnly:          true,
		ExcludeUnavailable:  true,
		ExcludeUnknown:      true,
	})

	for _, want := range []string{
		"c.role_id = ANY($1)",
		"c.skill_ids @> $2::bigint[]",
		"c.specialty_names @> $3::text[]",
		"c.date_joined >= $4",
		"AND c.member",
		"c.available IS DISTINCT FROM FALSE",
		"c.available IS NOT NULL",
		`ORDER BY c.full_name COLLATE "C", c.user_id`,
	} {
		if !strings.Contains(query, want) {
			t.Errorf("expected query to contain %q:\n%s", want, query)
		}
	}
	if len(args) != 4 {
		t.Errorf("expected 4 args, got %d", len(args))
	}

	query, args = pgCandidatesQuery(Criteria{RoleIDs: []int64{1}})
	// The column list always names available, so look for filter clauses only
	if strings.Contains(query, "@>") || strings.Contains(query, "c.available") || strings.Contains(query, "c.member") {
		t.Errorf("expected only the role filter:\n%s", query)
	}
	if len(args) != 1 {
		t.Errorf("expected 1 arg, got %d", len(args))
	}
}

func TestPGStore_Candidates(t *testing.T) {
	s := setupTestPG(t)
	ctx := context.Background()

	if _, err := s.UpsertCandidates(ctx, seedCandidates()); err != nil {
		t.Fatalf("UpsertCandidates failed: %v", err)
	}

	from := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		crit Criteria
		want []string
	}{
		{"single role", Criteria{RoleIDs: []int64{1}}, []string{"u1", "u2"}},
		{"required skills", Criteria{RoleIDs: []int64{1}, RequiredSkillIDs: []int64{10, 30}}, []string{"u1"}},
		{"required specialties", Criteria{RoleIDs: []int64{1, 2}, RequiredSpecialties: []string{"Backend"}}, []string{"u1", "u3"}},
		{"joined from", Criteria{RoleIDs: []int64{1, 2}, JoinedFrom: &from}, []string{"u1", "u3"}},
		{"exclude unavailable", Criteria{RoleIDs: []int64{1, 2}, ExcludeUnavailable: true}, []string{"u1", "u3"}},
		{"exclude unknown", Criteria{RoleIDs: []int64{1, 2}, ExcludeUnknown: true}, []string{"u1", "u2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Candidates(ctx, tt.crit)
			if err != nil {
				t.Fatalf("Candidates failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d candidates, got %d", len(tt.want), len(got))
			}
			for i, c := range got {
				if c.UserID != tt.want[i] {
					t.Errorf("position %d: expected %s, got %s", i, tt.want[i], c.UserID)
				}
			}
		})
	}

	c, err := s.GetCandidate(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCandidate failed: %v", err)
	}
	if c == nil || len(c.SpecialtyNames) != 2 || c.Available == nil || !*c.Available {
		t.Errorf("unexpected candidate: %+v", c)
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalCandidates != 4 || stats.UnknownAvail != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestPGStore_Selections(t *testing.T) {
	s := setupTestPG(t)
	ctx := context.Background()

	sel := &Selection{Name: "seniors", Query: `{"role":[1]}`}
	if err := s.CreateSelection(ctx, sel); err != nil {
		t.Fatalf("CreateSelection failed: %v", err)
	}

	got, err := s.GetSelection(ctx, "seniors")
	if err != nil {
		t.Fatalf("GetSelection failed: %v", err)
	}
	if got == nil || got.ID != sel.ID {
		t.Fatalf("expected selection %s, got %v", sel.ID, got)
	}

	if err := s.DeleteSelection(ctx, sel.ID); err != nil {
		t.Fatalf("DeleteSelection failed: %v", err)
	}
	list, _ := s.ListSelections(ctx)
	if len(list) != 0 {
		t.Errorf("expected no selections, got %d", len(list))
	}
}
