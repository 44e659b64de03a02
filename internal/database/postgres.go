package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/postgres_001_initial.sql
var postgresMigration string

// PGStore is a PostgreSQL candidate store. Skill and specialty sets are
// native arrays so the superset filters run inside the database.
type PGStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

// OpenPostgres creates and verifies a pgxpool connection pool, then migrates
func OpenPostgres(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresMigration); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PGStore{pool: pool}, nil
}

// Close releases the connection pool
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// Health checks database connectivity
func (s *PGStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Driver returns the store's driver name
func (s *PGStore) Driver() string {
	return DriverPostgres
}

func scanPGCandidate(row pgx.Row) (*Candidate, error) {
	c := &Candidate{}
	if err := row.Scan(
		&c.UserID, &c.FullName, &c.Role, &c.RoleID, &c.PrimaryArea, &c.ExperienceLevel, &c.ExperienceLevelID,
		&c.CurrentJobTitle, &c.YearsExperience, &c.Industry, &c.AvgTenure, &c.SkillIDs, &c.SkillNames,
		&c.SpecialtyIDs, &c.SpecialtyNames, &c.LinkedInURL, &c.ResumeName, &c.ResumeURL, &c.URLs,
		&c.DateJoined, &c.Available, &c.Member,
	); err != nil {
		return nil, err
	}
	c.DateJoined = c.DateJoined.UTC()
	return c, nil
}

func collectPGCandidates(rows pgx.Rows) ([]Candidate, error) {
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		c, err := scanPGCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

// pgCandidatesQuery builds the push-down query for the given criteria
func pgCandidatesQuery(crit Criteria) (string, []any) {
	query := "SELECT" + candidateColumns + " FROM candidates c WHERE 1=1"
	args := []any{}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	query += " AND c.role_id = ANY(" + next(crit.RoleIDs) + ")"

	if len(crit.RequiredSkillIDs) > 0 {
		query += " AND c.skill_ids @> " + next(crit.RequiredSkillIDs) + "::bigint[]"
	}
	if len(crit.RequiredSpecialties) > 0 {
		query += " AND c.specialty_names @> " + next(crit.RequiredSpecialties) + "::text[]"
	}
	if crit.JoinedFrom != nil {
		query += " AND c.date_joined >= " + next(*crit.JoinedFrom)
	}
	if crit.MemberOnly {
		query += " AND c.member"
	}
	if crit.ExcludeUnavailable {
		query += " AND c.available IS DISTINCT FROM FALSE"
	}
	if crit.ExcludeUnknown {
		query += " AND c.available IS NOT NULL"
	}

	query += ` ORDER BY c.full_name COLLATE "C", c.user_id`
	return query, args
}

// Candidates retrieves candidates matching the push-down criteria
func (s *PGStore) Candidates(ctx context.Context, crit Criteria) ([]Candidate, error) {
	if len(crit.RoleIDs) == 0 {
		return nil, nil
	}

	query, args := pgCandidatesQuery(crit)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("candidates query: %w", err)
	}
	return collectPGCandidates(rows)
}

// GetCandidate retrieves a candidate by user ID
func (s *PGStore) GetCandidate(ctx context.Context, userID string) (*Candidate, error) {
	c, err := scanPGCandidate(s.pool.QueryRow(ctx,
		"SELECT"+candidateColumns+" FROM candidates WHERE user_id = $1", userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// nonNil keeps NOT NULL array columns from receiving NULL
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func pgUpsertArgs(c *Candidate) []any {
	return []any{
		c.UserID, c.FullName, c.Role, c.RoleID, c.PrimaryArea, c.ExperienceLevel,
		c.ExperienceLevelID, c.CurrentJobTitle, c.YearsExperience, c.Industry, c.AvgTenure,
		nonNil(c.SkillIDs), nonNil(c.SkillNames), nonNil(c.SpecialtyIDs), nonNil(c.SpecialtyNames),
		c.LinkedInURL, c.ResumeName, c.ResumeURL, nonNil(c.URLs), c.DateJoined, c.Available, c.Member,
	}
}

const pgUpsertCandidate = `
	INSERT INTO candidates (` + candidateColumns + `, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, now())
	ON CONFLICT (user_id) DO UPDATE SET
		full_name = EXCLUDED.full_name,
		role = EXCLUDED.role,
		role_id = EXCLUDED.role_id,
		primary_area = EXCLUDED.primary_area,
		experience_level = EXCLUDED.experience_level,
		experience_level_id = EXCLUDED.experience_level_id,
		current_job_title = EXCLUDED.current_job_title,
		year_exp = EXCLUDED.year_exp,
		industry = EXCLUDED.industry,
		avg_tenure = EXCLUDED.avg_tenure,
		skill_ids = EXCLUDED.skill_ids,
		skill_names = EXCLUDED.skill_names,
		specialty_ids = EXCLUDED.specialty_ids,
		specialty_names = EXCLUDED.specialty_names,
		linkedin_url = EXCLUDED.linkedin_url,
		resume_name = EXCLUDED.resume_name,
		resume_url = EXCLUDED.resume_url,
		urls = EXCLUDED.urls,
		date_joined = EXCLUDED.date_joined,
		available = EXCLUDED.available,
		member = EXCLUDED.member,
		updated_at = now()`

func prepareCandidate(c *Candidate) {
	if c.UserID == "" {
		c.UserID = uuid.New().String()
	}
	if c.DateJoined.IsZero() {
		c.DateJoined = time.Now().UTC()
	}
}

// UpsertCandidate inserts or replaces a candidate
func (s *PGStore) UpsertCandidate(ctx context.Context, c *Candidate) error {
	prepareCandidate(c)
	if _, err := s.pool.Exec(ctx, pgUpsertCandidate, pgUpsertArgs(c)...); err != nil {
		return fmt.Errorf("upsertCandidate: %w", err)
	}
	return nil
}

// UpsertCandidates inserts or replaces candidates in a single batch transaction
func (s *PGStore) UpsertCandidates(ctx context.Context, cs []Candidate) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsertCandidates begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range cs {
		prepareCandidate(&cs[i])
		batch.Queue(pgUpsertCandidate, pgUpsertArgs(&cs[i])...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("upsertCandidates batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("upsertCandidates commit: %w", err)
	}
	return len(cs), nil
}

// ListCandidates retrieves candidates with optional filters
func (s *PGStore) ListCandidates(ctx context.Context, opts ListOptions) ([]Candidate, error) {
	query := "SELECT" + candidateColumns + " FROM candidates WHERE 1=1"
	args := []any{}

	if opts.RoleID != nil {
		args = append(args, *opts.RoleID)
		query += fmt.Sprintf(" AND role_id = $%d", len(args))
	}
	if opts.Name != nil {
		args = append(args, "%"+*opts.Name+"%")
		query += fmt.Sprintf(" AND full_name ILIKE $%d", len(args))
	}

	query += ` ORDER BY full_name COLLATE "C", user_id`

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
		if opts.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", opts.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listCandidates query: %w", err)
	}
	return collectPGCandidates(rows)
}

// GetStats retrieves aggregate statistics
func (s *PGStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE member),
			COUNT(*) FILTER (WHERE available),
			COUNT(*) FILTER (WHERE available = FALSE),
			COUNT(*) FILTER (WHERE available IS NULL),
			(SELECT COUNT(*) FROM selections)
		FROM candidates
	`).Scan(
		&stats.TotalCandidates, &stats.Members, &stats.Available,
		&stats.Unavailable, &stats.UnknownAvail, &stats.Selections,
	)
	if err != nil {
		return nil, fmt.Errorf("getStats: %w", err)
	}
	return stats, nil
}

// CreateSelection saves a selection, replacing the query of one with the
// same name
func (s *PGStore) CreateSelection(ctx context.Context, sel *Selection) error {
	if sel.ID == "" {
		sel.ID = uuid.New().String()
	}
	sel.CreatedAt = time.Now()

	err := s.pool.QueryRow(ctx, `
		INSERT INTO selections (id, name, query, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET query = EXCLUDED.query
		RETURNING id
	`, sel.ID, sel.Name, sel.Query, sel.CreatedAt).Scan(&sel.ID)
	if err != nil {
		return fmt.Errorf("createSelection: %w", err)
	}
	return nil
}

// GetSelection retrieves a selection by ID or name
func (s *PGStore) GetSelection(ctx context.Context, idOrName string) (*Selection, error) {
	sel := &Selection{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, query, created_at FROM selections
		WHERE id = $1 OR name = $1
		LIMIT 1
	`, idOrName).Scan(&sel.ID, &sel.Name, &sel.Query, &sel.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getSelection: %w", err)
	}
	return sel, nil
}

// ListSelections retrieves all saved selections, newest first
func (s *PGStore) ListSelections(ctx context.Context) ([]Selection, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, query, created_at FROM selections ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listSelections query: %w", err)
	}
	defer rows.Close()

	var selections []Selection
	for rows.Next() {
		var sel Selection
		if err := rows.Scan(&sel.ID, &sel.Name, &sel.Query, &sel.CreatedAt); err != nil {
			return nil, fmt.Errorf("listSelections scan: %w", err)
		}
		selections = append(selections, sel)
	}
	return selections, rows.Err()
}

// DeleteSelection deletes a selection by ID
func (s *PGStore) DeleteSelection(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM selections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleteSelection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("selection %w: %s", ErrNotFound, id)
	}
	return nil
}
