package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vijay-prabhu/talentmatch/internal/cache"
	"github.com/vijay-prabhu/talentmatch/internal/config"
	"github.com/vijay-prabhu/talentmatch/internal/database"
	"github.com/vijay-prabhu/talentmatch/internal/logging"
	"github.com/vijay-prabhu/talentmatch/internal/match"
	"github.com/vijay-prabhu/talentmatch/internal/metrics"
)

// app holds everything a command needs to run matches
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	store   database.Store
	cache   cache.Cache
	metrics *metrics.Metrics
	matcher *match.Service
}

// openApp loads the config and opens the store, cache and match service.
// Callers must Close the returned app.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger := logging.New(logging.FromConfig(cfg.Log))

	store, err := database.OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var c cache.Cache = cache.Noop{}
	if cfg.Cache.Enabled {
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL())
		if err != nil {
			// Matching works without the cache, only slower
			logger.Warn("result cache unavailable", "err", err)
		} else {
			c = rc
		}
	}

	m := metrics.New()
	ranker := match.NewRanker(match.DefaultWeights(), cfg.Match.Location())
	matcher := match.NewService(store, ranker,
		match.WithCache(c),
		match.WithMetrics(m),
		match.WithLogger(logger),
	)

	logger.Debug("opened store", "driver", store.Driver(), "cache", cfg.Cache.Enabled)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		cache:   c,
		metrics: m,
		matcher: matcher,
	}, nil
}

// Close releases the cache and store
func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close cache", "err", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close database", "err", err)
	}
}

// loadSelection resolves a saved selection by ID or name and decodes its query
func loadSelection(ctx context.Context, store database.Store, idOrName string) (*database.Selection, match.Query, error) {
	sel, err := store.GetSelection(ctx, idOrName)
	if err != nil {
		return nil, match.Query{}, fmt.Errorf("database error: %w", err)
	}
	if sel == nil {
		return nil, match.Query{}, fmt.Errorf("selection not found: %s", idOrName)
	}
	q, err := match.DecodeQuery(sel.Query)
	if err != nil {
		return nil, match.Query{}, fmt.Errorf("selection %s has an unreadable query: %w", sel.Name, err)
	}
	return sel, q, nil
}
