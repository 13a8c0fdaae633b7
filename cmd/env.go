package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/veda-group/leadgen-cli/internal/cities"
	"github.com/veda-group/leadgen-cli/internal/jobs"
	"github.com/veda-group/leadgen-cli/internal/leadfilter"
	"github.com/veda-group/leadgen-cli/internal/leads"
	"github.com/veda-group/leadgen-cli/internal/store"
	"github.com/veda-group/leadgen-cli/pkg/scraperapi"
)

// appEnv bundles the wired services shared by the commands.
type appEnv struct {
	Store   store.Store
	Filter  *leadfilter.Filter
	Leads   *leads.Service
	Cities  *cities.Service
	Scraper scraperapi.Client
	Tracker *jobs.Tracker
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadgen.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initScraper() scraperapi.Client {
	return scraperapi.NewClient(
		scraperapi.WithBaseURL(cfg.Scraper.BaseURL),
		scraperapi.WithRateLimit(cfg.Scraper.RequestsPerSecond),
		scraperapi.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Scraper.TimeoutSecs) * time.Second,
		}),
	)
}

func pollInterval() time.Duration {
	return time.Duration(cfg.Scraper.PollIntervalSecs) * time.Second
}

// initEnv wires the full service stack.
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	filter := leadfilter.New(cfg.Filter)
	scraper := initScraper()

	return &appEnv{
		Store:  st,
		Filter: filter,
		Leads:  leads.NewService(st, filter, cfg.Server.PageSize),
		Cities: cities.NewService(st, cities.Options{
			MinQueryLen:   cfg.Cities.MinQueryLen,
			MaxResults:    cfg.Cities.MaxResults,
			CacheCapacity: cfg.Cities.CacheCapacity,
			CacheTTL:      time.Duration(cfg.Cities.CacheTTLMins) * time.Minute,
			SweepInterval: time.Duration(cfg.Cities.SweepMins) * time.Minute,
		}),
		Scraper: scraper,
		Tracker: jobs.NewTracker(scraper, pollInterval()),
	}, nil
}

func (e *appEnv) Close() {
	e.Tracker.Close()
	e.Cities.Close()
	_ = e.Store.Close()
}
