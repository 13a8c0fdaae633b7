package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/veda-group/leadgen-cli/internal/db"
	"github.com/veda-group/leadgen-cli/internal/leadfilter"
	"github.com/veda-group/leadgen-cli/internal/model"
)

// PostgresStore implements Store using pgxpool. Lead documents are kept
// as JSONB so that whatever shape the scraper wrote survives the round
// trip; coercion happens once, in model.DecodeLead.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	log     *zap.Logger
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"list_databases":   `SELECT DISTINCT db_name FROM leads ORDER BY db_name`,
	"list_collections": `SELECT DISTINCT collection FROM leads WHERE db_name = $1 AND collection NOT LIKE '%subsector%' ORDER BY collection`,
	"database_exists":  `SELECT EXISTS (SELECT 1 FROM leads WHERE db_name = $1)`,
	"list_leads":       `SELECT doc FROM leads WHERE db_name = $1 AND collection = $2 ORDER BY created_at DESC`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{
		pool:    pool,
		closeFn: pool.Close,
		log:     zap.L().With(zap.String("component", "store.postgres")),
	}, nil
}

// Pool returns the underlying database pool for use by subsystems that
// need direct query access (e.g., bulk imports).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	db_name    TEXT NOT NULL,
	collection TEXT NOT NULL,
	doc        JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_db_collection ON leads(db_name, collection);
CREATE INDEX IF NOT EXISTS idx_leads_business_name ON leads ((lower(doc->>'businessname')));

CREATE TABLE IF NOT EXISTS cities (
	postcode_area            TEXT PRIMARY KEY,
	area_covered             TEXT NOT NULL,
	population_2011          BIGINT NOT NULL DEFAULT 0,
	households_2011          BIGINT NOT NULL DEFAULT 0,
	postcodes                INTEGER NOT NULL DEFAULT 0,
	active_postcodes         INTEGER NOT NULL DEFAULT 0,
	non_geographic_postcodes INTEGER NOT NULL DEFAULT 0,
	scraped_at               TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_cities_area_covered ON cities (lower(area_covered));
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Databases(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT db_name FROM leads ORDER BY db_name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list databases")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan database name")
		}
		names = append(names, name)
	}
	return names, eris.Wrap(rows.Err(), "postgres: list databases iterate")
}

// Collections lists the lead collections of a database, skipping the
// scraper's subsector work queues.
func (s *PostgresStore) Collections(ctx context.Context, dbName string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT collection FROM leads WHERE db_name = $1 AND collection NOT LIKE '%subsector%' ORDER BY collection`,
		dbName,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list collections for %s", dbName)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan collection name")
		}
		names = append(names, name)
	}
	return names, eris.Wrap(rows.Err(), "postgres: list collections iterate")
}

func (s *PostgresStore) DatabaseExists(ctx context.Context, dbName string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE db_name = $1)`,
		dbName,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: database exists %s", dbName)
	}
	return exists, nil
}

// searchableFields are the document fields the query clause scans.
var searchableFields = []string{"businessname", "address", "subsector", "phonenumber", "website"}

func (s *PostgresStore) Leads(ctx context.Context, dbName, collection string, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT doc FROM leads WHERE db_name = $1 AND collection = $2`
	args := []any{dbName, collection}

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + leadfilter.EscapeLike(strings.ToLower(q)) + "%"
		clauses := make([]string, 0, len(searchableFields)+1)
		for _, f := range searchableFields {
			clauses = append(clauses, `lower(doc->>'`+f+`') LIKE $3 ESCAPE '\'`)
		}
		// email may be a string or an array; matching the serialized
		// value covers both.
		clauses = append(clauses, `lower((doc->'email')::text) LIKE $3 ESCAPE '\'`)
		query += ` AND (` + strings.Join(clauses, " OR ") + `)`
		args = append(args, pattern)
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list leads %s/%s", dbName, collection)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead document")
		}
		lead, err := model.DecodeLead(doc)
		if err != nil {
			// A single malformed document should not sink the listing.
			s.log.Warn("skipping undecodable lead document", zap.Error(err))
			continue
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

// InsertLeads bulk-upserts raw lead documents into a collection. The
// document's own _id wins; documents without one get a generated ID.
func (s *PostgresStore) InsertLeads(ctx context.Context, dbName, collection string, docs [][]byte) (int64, error) {
	rows := make([][]any, 0, len(docs))
	for _, doc := range docs {
		var probe struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(doc, &probe); err != nil {
			return 0, eris.Wrap(err, "postgres: parse lead document")
		}
		id := probe.ID
		if id == "" {
			id = uuid.New().String()
		}
		rows = append(rows, []any{id, dbName, collection, doc, time.Now().UTC()})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "leads",
		Columns:      []string{"id", "db_name", "collection", "doc", "created_at"},
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert leads %s/%s", dbName, collection)
	}
	return n, nil
}

const citySearchSQL = `
SELECT postcode_area, area_covered, population_2011, households_2011,
       postcodes, active_postcodes, non_geographic_postcodes, scraped_at
FROM cities
WHERE lower(area_covered) LIKE $1 ESCAPE '\' OR lower(postcode_area) LIKE $1 ESCAPE '\'
ORDER BY population_2011 DESC
LIMIT $2`

func (s *PostgresStore) SearchCities(ctx context.Context, query string, limit int) ([]model.City, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := leadfilter.EscapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	rows, err := s.pool.Query(ctx, citySearchSQL, pattern, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: search cities %q", query)
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.PostcodeArea, &c.AreaCovered, &c.Population2011, &c.Households2011,
			&c.Postcodes, &c.ActivePostcodes, &c.NonGeographicPostcodes, &c.ScrapedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan city")
		}
		c.ID = c.PostcodeArea
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "postgres: search cities iterate")
}

// ImportCities replaces the city reference table. The dataset is a
// static postcode-area list, so a full reload is cheaper than
// reconciling per row.
func (s *PostgresStore) ImportCities(ctx context.Context, cities []model.City) (int64, error) {
	if _, err := s.pool.Exec(ctx, `DELETE FROM cities`); err != nil {
		return 0, eris.Wrap(err, "postgres: clear cities")
	}

	rows := make([][]any, 0, len(cities))
	for _, c := range cities {
		rows = append(rows, []any{
			c.PostcodeArea, c.AreaCovered, c.Population2011, c.Households2011,
			c.Postcodes, c.ActivePostcodes, c.NonGeographicPostcodes, c.ScrapedAt,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "cities", []string{
		"postcode_area", "area_covered", "population_2011", "households_2011",
		"postcodes", "active_postcodes", "non_geographic_postcodes", "scraped_at",
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import cities")
	}
	return n, nil
}
