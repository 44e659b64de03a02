package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const candidateColumns = `
	user_id, full_name, role, role_id, primary_area, experience_level, experience_level_id,
	current_job_title, year_exp, industry, avg_tenure, skill_ids, skill_names,
	specialty_ids, specialty_names, linkedin_url, resume_name, resume_url, urls,
	date_joined, available, member`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanCandidate(s rowScanner) (*Candidate, error) {
	c := &Candidate{}
	var roleID, expLevelID sql.NullInt64
	var yearExp, avgTenure sql.NullFloat64
	var available sql.NullBool
	var skillIDs, skillNames, specialtyIDs, specialtyNames, urls string
	var dateJoined int64

	if err := s.Scan(
		&c.UserID, &c.FullName, &c.Role, &roleID, &c.PrimaryArea, &c.ExperienceLevel, &expLevelID,
		&c.CurrentJobTitle, &yearExp, &c.Industry, &avgTenure, &skillIDs, &skillNames,
		&specialtyIDs, &specialtyNames, &c.LinkedInURL, &c.ResumeName, &c.ResumeURL, &urls,
		&dateJoined, &available, &c.Member,
	); err != nil {
		return nil, err
	}

	c.RoleID = Int64Ptr(roleID)
	c.ExperienceLevelID = Int64Ptr(expLevelID)
	c.YearsExperience = Float64Ptr(yearExp)
	c.AvgTenure = Float64Ptr(avgTenure)
	c.Available = BoolPtr(available)
	c.DateJoined = time.Unix(dateJoined, 0).UTC()

	for _, f := range []struct {
		raw  string
		dest any
	}{
		{skillIDs, &c.SkillIDs},
		{skillNames, &c.SkillNames},
		{specialtyIDs, &c.SpecialtyIDs},
		{specialtyNames, &c.SpecialtyNames},
		{urls, &c.URLs},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dest); err != nil {
			return nil, fmt.Errorf("failed to decode candidate %s: %w", c.UserID, err)
		}
	}

	return c, nil
}

func scanCandidates(rows *sql.Rows) ([]Candidate, error) {
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}

	return candidates, rows.Err()
}

// jsonArray encodes a slice as a JSON array, never null
func jsonArray[T any](v []T) string {
	if v == nil {
		v = []T{}
	}
	data, _ := json.Marshal(v)
	return string(data)
}

// placeholders returns "?, ?, ?" for n arguments
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// sqliteCandidatesQuery builds the push-down query for the given criteria
func sqliteCandidatesQuery(crit Criteria) (string, []any) {
	query := "SELECT" + candidateColumns + " FROM candidates c WHERE 1=1"
	args := []any{}

	query += " AND c.role_id IN (" + placeholders(len(crit.RoleIDs)) + ")"
	for _, id := range crit.RoleIDs {
		args = append(args, id)
	}

	if len(crit.RequiredSkillIDs) > 0 {
		query += ` AND NOT EXISTS (
			SELECT 1 FROM json_each(?) r
			WHERE r.value NOT IN (SELECT s.value FROM json_each(c.skill_ids) s))`
		args = append(args, jsonArray(crit.RequiredSkillIDs))
	}
	if len(crit.RequiredSpecialties) > 0 {
		query += ` AND NOT EXISTS (
			SELECT 1 FROM json_each(?) r
			WHERE r.value NOT IN (SELECT s.value FROM json_each(c.specialty_names) s))`
		args = append(args, jsonArray(crit.RequiredSpecialties))
	}
	if crit.JoinedFrom != nil {
		query += " AND c.date_joined >= ?"
		args = append(args, crit.JoinedFrom.Unix())
	}
	if crit.MemberOnly {
		query += " AND c.member = 1"
	}
	if crit.ExcludeUnavailable {
		query += " AND (c.available IS NULL OR c.available <> 0)"
	}
	if crit.ExcludeUnknown {
		query += " AND c.available IS NOT NULL"
	}

	query += " ORDER BY c.full_name, c.user_id"
	return query, args
}

// Candidates retrieves candidates matching the push-down criteria
func (db *DB) Candidates(ctx context.Context, crit Criteria) ([]Candidate, error) {
	if len(crit.RoleIDs) == 0 {
		return nil, nil
	}

	query, args := sqliteCandidatesQuery(crit)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanCandidates(rows)
}

// GetCandidate retrieves a candidate by user ID
func (db *DB) GetCandidate(ctx context.Context, userID string) (*Candidate, error) {
	c, err := scanCandidate(db.QueryRowContext(ctx,
		"SELECT"+candidateColumns+" FROM candidates WHERE user_id = ?", userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func upsertCandidate(ctx context.Context, ex execer, c *Candidate) error {
	if c.UserID == "" {
		c.UserID = uuid.New().String()
	}
	if c.DateJoined.IsZero() {
		c.DateJoined = time.Now().UTC()
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO candidates (`+candidateColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			full_name = excluded.full_name,
			role = excluded.role,
			role_id = excluded.role_id,
			primary_area = excluded.primary_area,
			experience_level = excluded.experience_level,
			experience_level_id = excluded.experience_level_id,
			current_job_title = excluded.current_job_title,
			year_exp = excluded.year_exp,
			industry = excluded.industry,
			avg_tenure = excluded.avg_tenure,
			skill_ids = excluded.skill_ids,
			skill_names = excluded.skill_names,
			specialty_ids = excluded.specialty_ids,
			specialty_names = excluded.specialty_names,
			linkedin_url = excluded.linkedin_url,
			resume_name = excluded.resume_name,
			resume_url = excluded.resume_url,
			urls = excluded.urls,
			date_joined = excluded.date_joined,
			available = excluded.available,
			member = excluded.member,
			updated_at = excluded.updated_at
	`,
		c.UserID, c.FullName, c.Role, NullInt64(c.RoleID), c.PrimaryArea, c.ExperienceLevel,
		NullInt64(c.ExperienceLevelID), c.CurrentJobTitle, NullFloat64(c.YearsExperience),
		c.Industry, NullFloat64(c.AvgTenure), jsonArray(c.SkillIDs), jsonArray(c.SkillNames),
		jsonArray(c.SpecialtyIDs), jsonArray(c.SpecialtyNames), c.LinkedInURL, c.ResumeName,
		c.ResumeURL, jsonArray(c.URLs), c.DateJoined.Unix(), NullBool(c.Available), c.Member,
		time.Now().Unix(),
	)
	return err
}

// UpsertCandidate inserts or replaces a candidate
func (db *DB) UpsertCandidate(ctx context.Context, c *Candidate) error {
	return upsertCandidate(ctx, db, c)
}

// UpsertCandidates inserts or replaces candidates in a single transaction
func (db *DB) UpsertCandidates(ctx context.Context, cs []Candidate) (int, error) {
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		for i := range cs {
			if err := upsertCandidate(ctx, tx, &cs[i]); err != nil {
				return fmt.Errorf("candidate %d (%s): %w", i, cs[i].FullName, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(cs), nil
}

// ListCandidates retrieves candidates with optional filters
func (db *DB) ListCandidates(ctx context.Context, opts ListOptions) ([]Candidate, error) {
	query := "SELECT" + candidateColumns + " FROM candidates WHERE 1=1"
	args := []any{}

	if opts.RoleID != nil {
		query += " AND role_id = ?"
		args = append(args, *opts.RoleID)
	}
	if opts.Name != nil {
		query += " AND LOWER(full_name) LIKE LOWER(?)"
		args = append(args, "%"+*opts.Name+"%")
	}

	query += " ORDER BY full_name, user_id"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
		if opts.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", opts.Offset)
		}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanCandidates(rows)
}

// GetStats retrieves aggregate statistics
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN member = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN available = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN available = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN available IS NULL THEN 1 ELSE 0 END), 0)
		FROM candidates
	`).Scan(
		&stats.TotalCandidates, &stats.Members, &stats.Available,
		&stats.Unavailable, &stats.UnknownAvail,
	); err != nil {
		return nil, err
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM selections").Scan(&stats.Selections); err != nil {
		return nil, err
	}

	return stats, nil
}

// Selections

// CreateSelection saves a selection
func (db *DB) CreateSelection(ctx context.Context, s *Selection) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.CreatedAt = time.Now()

	// saving under an existing name replaces its query and keeps its ID
	return db.QueryRowContext(ctx, `
		INSERT INTO selections (id, name, query, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET query = excluded.query
		RETURNING id
	`, s.ID, s.Name, s.Query, s.CreatedAt).Scan(&s.ID)
}

// GetSelection retrieves a selection by ID or name
func (db *DB) GetSelection(ctx context.Context, idOrName string) (*Selection, error) {
	s := &Selection{}
	err := db.QueryRowContext(ctx, `
		SELECT id, name, query, created_at FROM selections
		WHERE id = ? OR name = ?
		LIMIT 1
	`, idOrName, idOrName).Scan(&s.ID, &s.Name, &s.Query, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListSelections retrieves all saved selections, newest first
func (db *DB) ListSelections(ctx context.Context) ([]Selection, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, query, created_at FROM selections ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var selections []Selection
	for rows.Next() {
		s := Selection{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Query, &s.CreatedAt); err != nil {
			return nil, err
		}
		selections = append(selections, s)
	}

	return selections, rows.Err()
}

// DeleteSelection deletes a selection by ID
func (db *DB) DeleteSelection(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM selections WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("selection %w: %s", ErrNotFound, id)
	}
	return nil
}
