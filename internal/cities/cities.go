// Package cities provides the city lookup used to scope a scraping run:
// a short prefix query against the postcode-area reference table, with
// results cached because the underlying table changes roughly never.
package cities

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/veda-group/leadgen-cli/internal/model"
	"github.com/veda-group/leadgen-cli/internal/store"
)

// Options tunes the city search service.
type Options struct {
	MinQueryLen   int
	MaxResults    int
	CacheCapacity int
	CacheTTL      time.Duration
	SweepInterval time.Duration
}

// Service answers city autocomplete queries against the store, caching
// results per normalized query string.
type Service struct {
	store store.Store
	cache *ttlCache
	opts  Options
	log   *zap.Logger
}

// NewService creates a city search service. Zero option fields fall
// back to the defaults used by the HTTP API.
func NewService(st store.Store, opts Options) *Service {
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = 2
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &Service{
		store: st,
		cache: newTTLCache(opts.CacheCapacity, opts.CacheTTL, opts.SweepInterval),
		opts:  opts,
		log:   zap.L().With(zap.String("component", "cities")),
	}
}

// Search returns up to MaxResults cities matching the query prefix.
// Queries shorter than MinQueryLen return an empty slice rather than an
// error, matching autocomplete behaviour.
func (s *Service) Search(ctx context.Context, query string) ([]model.City, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < s.opts.MinQueryLen {
		return []model.City{}, nil
	}

	if cached, ok := s.cache.get(q); ok {
		return cached, nil
	}

	cities, err := s.store.SearchCities(ctx, q, s.opts.MaxResults)
	if err != nil {
		return nil, eris.Wrapf(err, "cities: search %q", q)
	}
	if cities == nil {
		cities = []model.City{}
	}

	s.cache.put(q, cities)
	s.log.Debug("city search",
		zap.String("query", q),
		zap.Int("results", len(cities)))
	return cities, nil
}

// Close stops the cache sweeper.
func (s *Service) Close() {
	s.cache.close()
}
