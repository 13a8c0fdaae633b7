package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veda-group/leadgen-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock, log: zap.NewNop()}, mock
}

func TestDatabases(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT DISTINCT db_name FROM leads`).
		WillReturnRows(pgxmock.NewRows([]string{"db_name"}).AddRow("leeds").AddRow("york"))

	dbs, err := s.Databases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"leeds", "york"}, dbs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionsSkipsQueues(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT DISTINCT collection FROM leads WHERE db_name = \$1 AND collection NOT LIKE '%subsector%'`).
		WithArgs("leeds").
		WillReturnRows(pgxmock.NewRows([]string{"collection"}).AddRow("restaurant"))

	cols, err := s.Collections(context.Background(), "leeds")
	require.NoError(t, err)
	assert.Equal(t, []string{"restaurant"}, cols)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseExists(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("leeds").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.DatabaseExists(context.Background(), "leeds")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadsDecodesDocuments(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"doc"}).
		AddRow([]byte(`{"_id":"1","businessname":"Bistro","email":"info@bistro.co.uk","phonenumber":1135551234}`)).
		AddRow([]byte(`not json`)).
		AddRow([]byte(`{"_id":"2","businessname":"Cafe","email":["hi@cafe.com"]}`))

	mock.ExpectQuery(`SELECT doc FROM leads WHERE db_name = \$1 AND collection = \$2`).
		WithArgs("leeds", "restaurant").
		WillReturnRows(rows)

	leads, err := s.Leads(context.Background(), "leeds", "restaurant", LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, []string{"info@bistro.co.uk"}, leads[0].Email)
	assert.Equal(t, "1135551234", leads[0].Phone)
	assert.Equal(t, "Cafe", leads[1].BusinessName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadsQueryEscapesLikePattern(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT doc FROM leads WHERE db_name = \$1 AND collection = \$2 AND \(`).
		WithArgs("leeds", "restaurant", `%50\%%`).
		WillReturnRows(pgxmock.NewRows([]string{"doc"}))

	_, err := s.Leads(context.Background(), "leeds", "restaurant", LeadFilter{Query: "50%"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCities(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"postcode_area", "area_covered", "population_2011", "households_2011",
		"postcodes", "active_postcodes", "non_geographic_postcodes", "scraped_at",
	}).AddRow("LS", "Leeds", 1777934, 752306, 32916, 25846, 112, nil)

	mock.ExpectQuery(`FROM cities`).
		WithArgs("le%", 10).
		WillReturnRows(rows)

	cities, err := s.SearchCities(context.Background(), "Le", 0)
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "LS", cities[0].PostcodeArea)
	assert.Equal(t, "LS", cities[0].ID)
	assert.Equal(t, 1777934, cities[0].Population2011)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertLeads(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_leads"}, []string{"id", "db_name", "collection", "doc", "created_at"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "leads"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := s.InsertLeads(context.Background(), "leeds", "restaurant", [][]byte{
		[]byte(`{"_id":"a","businessname":"Alpha"}`),
		[]byte(`{"businessname":"NoID"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportCities(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM cities`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"cities"}, []string{
		"postcode_area", "area_covered", "population_2011", "households_2011",
		"postcodes", "active_postcodes", "non_geographic_postcodes", "scraped_at",
	}).WillReturnResult(1)

	n, err := s.ImportCities(context.Background(), []model.City{
		{PostcodeArea: "LS", AreaCovered: "Leeds"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
