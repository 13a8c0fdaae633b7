// Package store is the persistence boundary. Leads live as JSON
// documents keyed by (database, collection), mirroring the layout the
// scraper service writes, so the same filter pipeline works no matter
// which backend holds them.
package store

import (
	"context"

	"github.com/veda-group/leadgen-cli/internal/model"
)

// LeadFilter narrows a lead listing. Query compiles to a LIKE clause
// across the searchable document fields; an empty Query returns the
// whole collection.
type LeadFilter struct {
	Query string `json:"query,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for leads and cities.
type Store interface {
	// Browsing
	Databases(ctx context.Context) ([]string, error)
	Collections(ctx context.Context, dbName string) ([]string, error)
	DatabaseExists(ctx context.Context, dbName string) (bool, error)

	// Leads
	Leads(ctx context.Context, dbName, collection string, filter LeadFilter) ([]model.Lead, error)
	InsertLeads(ctx context.Context, dbName, collection string, docs [][]byte) (int64, error)

	// Cities
	SearchCities(ctx context.Context, query string, limit int) ([]model.City, error)
	ImportCities(ctx context.Context, cities []model.City) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
