package database

import (
	"context"
	"fmt"

	"github.com/vijay-prabhu/talentmatch/internal/config"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is a candidate store. Reads never mutate candidates, so a Store
// can serve concurrent match requests.
type Store interface {
	// Candidates returns every candidate satisfying the criteria, ordered by
	// full name. An empty role set yields no candidates.
	Candidates(ctx context.Context, crit Criteria) ([]Candidate, error)
	GetCandidate(ctx context.Context, userID string) (*Candidate, error)
	UpsertCandidate(ctx context.Context, c *Candidate) error
	UpsertCandidates(ctx context.Context, cs []Candidate) (int, error)
	ListCandidates(ctx context.Context, opts ListOptions) ([]Candidate, error)
	GetStats(ctx context.Context) (*Stats, error)

	CreateSelection(ctx context.Context, s *Selection) error
	GetSelection(ctx context.Context, idOrName string) (*Selection, error)
	ListSelections(ctx context.Context) ([]Selection, error)
	DeleteSelection(ctx context.Context, id string) error

	Driver() string
	Health(ctx context.Context) error
	Close() error
}

// OpenStore opens the store selected by the database config
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return Open(cfg.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}
