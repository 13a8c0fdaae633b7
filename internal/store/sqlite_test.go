package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veda-group/leadgen-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteLeadsRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	docs := [][]byte{
		[]byte(`{"_id":"1","businessname":"The Crown","email":"book@thecrown.co.uk","phonenumber":"0113 555 1234","subsector":"pub"}`),
		[]byte(`{"_id":"2","businessname":"Luigi's","email":["ciao@luigis.com"],"subsector":"italian"}`),
	}
	n, err := s.InsertLeads(ctx, "leeds", "restaurant", docs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	leads, err := s.Leads(ctx, "leeds", "restaurant", LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	byID := map[string]model.Lead{}
	for _, l := range leads {
		byID[l.ID] = l
	}
	assert.Equal(t, []string{"book@thecrown.co.uk"}, byID["1"].Email)
	assert.Equal(t, "0113 555 1234", byID["1"].Phone)
	assert.Equal(t, "italian", byID["2"].Category)
}

func TestSQLiteInsertLeadsUpsertsByID(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.InsertLeads(ctx, "leeds", "restaurant", [][]byte{
		[]byte(`{"_id":"1","businessname":"Old Name"}`),
	})
	require.NoError(t, err)
	_, err = s.InsertLeads(ctx, "leeds", "restaurant", [][]byte{
		[]byte(`{"_id":"1","businessname":"New Name"}`),
	})
	require.NoError(t, err)

	leads, err := s.Leads(ctx, "leeds", "restaurant", LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "New Name", leads[0].BusinessName)
}

func TestSQLiteBrowsing(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.InsertLeads(ctx, "leeds", "restaurant", [][]byte{[]byte(`{"_id":"1","businessname":"A"}`)})
	require.NoError(t, err)
	_, err = s.InsertLeads(ctx, "leeds", "restaurant_subsector_queue", [][]byte{[]byte(`{"_id":"2","businessname":"Q"}`)})
	require.NoError(t, err)
	_, err = s.InsertLeads(ctx, "york", "restaurant", [][]byte{[]byte(`{"_id":"3","businessname":"B"}`)})
	require.NoError(t, err)

	dbs, err := s.Databases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"leeds", "york"}, dbs)

	// Queue collections are internal to the scraper and never browsed.
	cols, err := s.Collections(ctx, "leeds")
	require.NoError(t, err)
	assert.Equal(t, []string{"restaurant"}, cols)

	exists, err := s.DatabaseExists(ctx, "leeds")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.DatabaseExists(ctx, "manchester")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLiteLeadsQueryFilter(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.InsertLeads(ctx, "leeds", "restaurant", [][]byte{
		[]byte(`{"_id":"1","businessname":"The Crown","address":"1 Briggate"}`),
		[]byte(`{"_id":"2","businessname":"Luigi's","address":"5 Call Lane"}`),
		[]byte(`{"_id":"3","businessname":"100% Vegan","address":"9 Boar Lane"}`),
	})
	require.NoError(t, err)

	leads, err := s.Leads(ctx, "leeds", "restaurant", LeadFilter{Query: "crown"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "The Crown", leads[0].BusinessName)

	// LIKE wildcards in the query are literals, not patterns.
	leads, err = s.Leads(ctx, "leeds", "restaurant", LeadFilter{Query: "100%"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "100% Vegan", leads[0].BusinessName)
}

func TestSQLiteCities(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	scraped := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	n, err := s.ImportCities(ctx, []model.City{
		{PostcodeArea: "LS", AreaCovered: "Leeds", Population2011: 1777934, ScrapedAt: &scraped},
		{PostcodeArea: "LE", AreaCovered: "Leicester", Population2011: 1015182},
		{PostcodeArea: "M", AreaCovered: "Manchester", Population2011: 2539100},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	cities, err := s.SearchCities(ctx, "le", 10)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	// Largest population first.
	assert.Equal(t, "Leeds", cities[0].AreaCovered)
	assert.Equal(t, "Leicester", cities[1].AreaCovered)
	require.NotNil(t, cities[0].ScrapedAt)
	assert.True(t, scraped.Equal(*cities[0].ScrapedAt))

	// Re-import replaces, not appends.
	_, err = s.ImportCities(ctx, []model.City{{PostcodeArea: "LS", AreaCovered: "Leeds"}})
	require.NoError(t, err)
	cities, err = s.SearchCities(ctx, "m", 10)
	require.NoError(t, err)
	assert.Empty(t, cities)
}
