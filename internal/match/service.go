package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vijay-prabhu/talentmatch/internal/cache"
	"github.com/vijay-prabhu/talentmatch/internal/database"
	"github.com/vijay-prabhu/talentmatch/internal/metrics"
)

// CandidateSource retrieves candidates by push-down criteria
type CandidateSource interface {
	Candidates(ctx context.Context, crit database.Criteria) ([]database.Candidate, error)
}

// Service runs match queries against a candidate store
type Service struct {
	source  CandidateSource
	ranker  *Ranker
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  *log.Logger
}

// Option configures a Service
type Option func(*Service)

// WithCache caches ranked results
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics records request metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service
func NewService(source CandidateSource, ranker *Ranker, opts ...Option) *Service {
	s := &Service{
		source: source,
		ranker: ranker,
		cache:  cache.Noop{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Match retrieves, filters and ranks candidates for the query. It is
// read-only: the same query against the same store contents returns the
// same results.
func (s *Service) Match(ctx context.Context, q Query) ([]Result, error) {
	start := time.Now()
	q = q.Normalize()

	results, err := s.match(ctx, q)
	switch {
	case errors.Is(err, ErrInvalidDateFormat):
		s.metrics.ObserveMatch(metrics.ResultInvalidDate, time.Since(start))
	case err != nil:
		s.metrics.ObserveMatch(metrics.ResultError, time.Since(start))
	case len(results) == 0:
		s.metrics.ObserveMatch(metrics.ResultEmpty, time.Since(start))
	default:
		s.metrics.ObserveMatch(metrics.ResultOK, time.Since(start))
	}
	return results, err
}

func (s *Service) match(ctx context.Context, q Query) ([]Result, error) {
	crit, err := q.Criteria(s.ranker.Location())
	if err != nil {
		return nil, err
	}

	if len(q.Roles) == 0 {
		s.logger.Debug("match skipped: no role selected")
		return []Result{}, nil
	}

	key := s.cacheKey(q)
	if results, ok := s.cached(ctx, key); ok {
		return results, nil
	}

	candidates, err := s.source.Candidates(ctx, crit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve candidates: %w", err)
	}
	s.metrics.ObserveCandidates("retrieved", len(candidates))

	results, err := s.ranker.Rank(q, candidates)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCandidates("ranked", len(results))

	s.store(ctx, key, results)

	s.logger.Debug("match complete",
		"roles", q.Roles,
		"retrieved", len(candidates),
		"ranked", len(results),
	)
	return results, nil
}

func (s *Service) cacheKey(q Query) string {
	return s.ranker.Location().String() + ":" + q.Fingerprint()
}

// cached returns a cached ranking. Cache failures count as misses.
func (s *Service) cached(ctx context.Context, key string) ([]Result, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.ObserveCache(metrics.CacheError)
		s.logger.Warn("cache lookup failed", "err", err)
		return nil, false
	}
	if !ok {
		s.metrics.ObserveCache(metrics.CacheMiss)
		return nil, false
	}

	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		s.metrics.ObserveCache(metrics.CacheError)
		s.logger.Warn("cached results unreadable", "err", err)
		return nil, false
	}
	s.metrics.ObserveCache(metrics.CacheHit)
	return results, true
}

func (s *Service) store(ctx context.Context, key string, results []Result) {
	data, err := json.Marshal(results)
	if err != nil {
		s.logger.Warn("failed to encode results for cache", "err", err)
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.logger.Warn("cache store failed", "err", err)
	}
}
