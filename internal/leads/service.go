// Package leads is the service layer every entry point shares: fetch a
// collection from the store, gate it through the validity filter, then
// search, paginate, or export. CLI commands and HTTP handlers both call
// through here so the pipeline only exists once.
package leads

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/veda-group/leadgen-cli/internal/export"
	"github.com/veda-group/leadgen-cli/internal/leadfilter"
	"github.com/veda-group/leadgen-cli/internal/model"
	"github.com/veda-group/leadgen-cli/internal/store"
)

// Service runs the lead pipeline against a store.
type Service struct {
	store    store.Store
	filter   *leadfilter.Filter
	pageSize int
	log      *zap.Logger
}

// NewService creates a lead service. pageSize <= 0 falls back to 20.
func NewService(st store.Store, f *leadfilter.Filter, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Service{
		store:    st,
		filter:   f,
		pageSize: pageSize,
		log:      zap.L().With(zap.String("component", "leads")),
	}
}

// fetch loads a collection and drops every lead that fails the
// validity gate. Query matching happens after the gate so that search
// never resurrects an invalid lead.
func (s *Service) fetch(ctx context.Context, dbName, collection, query string) ([]model.Lead, error) {
	all, err := s.store.Leads(ctx, dbName, collection, store.LeadFilter{})
	if err != nil {
		return nil, eris.Wrapf(err, "leads: fetch %s/%s", dbName, collection)
	}

	valid := s.filter.ValidLeads(all)
	matched := s.filter.Search(valid, query)
	s.log.Debug("collection fetched",
		zap.String("db", dbName),
		zap.String("collection", collection),
		zap.Int("total", len(all)),
		zap.Int("valid", len(valid)),
		zap.Int("matched", len(matched)))
	return matched, nil
}

// Results returns one page of valid leads, optionally narrowed by a
// search query.
func (s *Service) Results(ctx context.Context, dbName, collection, query string, page int, sort leadfilter.SortKey) (leadfilter.Page, error) {
	matched, err := s.fetch(ctx, dbName, collection, query)
	if err != nil {
		return leadfilter.Page{}, err
	}
	return leadfilter.Paginate(matched, page, s.pageSize, sort), nil
}

// ExportLeads returns the full filtered set for a collection, sorted
// but not paginated.
func (s *Service) ExportLeads(ctx context.Context, dbName, collection, query string, sort leadfilter.SortKey) ([]model.Lead, error) {
	matched, err := s.fetch(ctx, dbName, collection, query)
	if err != nil {
		return nil, err
	}
	return leadfilter.Sorted(matched, sort), nil
}

// ExportCSV renders a collection as CSV and returns the download
// filename alongside the payload.
func (s *Service) ExportCSV(ctx context.Context, dbName, collection, query string, sort leadfilter.SortKey) (filename, payload string, err error) {
	matched, err := s.ExportLeads(ctx, dbName, collection, query, sort)
	if err != nil {
		return "", "", err
	}
	return export.Filename(dbName, collection, time.Now()), export.CSV(matched), nil
}

// Databases lists the scraped databases in the store.
func (s *Service) Databases(ctx context.Context) ([]string, error) {
	return s.store.Databases(ctx)
}

// Collections lists the browsable collections of a database.
func (s *Service) Collections(ctx context.Context, dbName string) ([]string, error) {
	return s.store.Collections(ctx, dbName)
}

// DatabaseExists reports whether a scraped database is present,
// i.e. whether a city has been scraped before.
func (s *Service) DatabaseExists(ctx context.Context, dbName string) (bool, error) {
	return s.store.DatabaseExists(ctx, dbName)
}
