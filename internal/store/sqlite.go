package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/veda-group/leadgen-cli/internal/leadfilter"
	"github.com/veda-group/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs
// single-user installs that have no Postgres around.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{
		db:  sqlDB,
		log: zap.L().With(zap.String("component", "store.sqlite")),
	}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	db_name    TEXT NOT NULL,
	collection TEXT NOT NULL,
	doc        TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_db_collection ON leads(db_name, collection);

CREATE TABLE IF NOT EXISTS cities (
	postcode_area            TEXT PRIMARY KEY,
	area_covered             TEXT NOT NULL,
	population_2011          INTEGER NOT NULL DEFAULT 0,
	households_2011          INTEGER NOT NULL DEFAULT 0,
	postcodes                INTEGER NOT NULL DEFAULT 0,
	active_postcodes         INTEGER NOT NULL DEFAULT 0,
	non_geographic_postcodes INTEGER NOT NULL DEFAULT 0,
	scraped_at               TEXT
);

CREATE INDEX IF NOT EXISTS idx_cities_area_covered ON cities(area_covered);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Databases(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT db_name FROM leads ORDER BY db_name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list databases")
	}
	defer rows.Close()
	return scanStrings(rows, "sqlite: list databases")
}

func (s *SQLiteStore) Collections(ctx context.Context, dbName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT collection FROM leads WHERE db_name = ? AND collection NOT LIKE '%subsector%' ORDER BY collection`,
		dbName,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list collections for %s", dbName)
	}
	defer rows.Close()
	return scanStrings(rows, "sqlite: list collections")
}

func (s *SQLiteStore) DatabaseExists(ctx context.Context, dbName string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE db_name = ?)`,
		dbName,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: database exists %s", dbName)
	}
	return exists, nil
}

func (s *SQLiteStore) Leads(ctx context.Context, dbName, collection string, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT doc FROM leads WHERE db_name = ? AND collection = ?`
	args := []any{dbName, collection}

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + leadfilter.EscapeLike(strings.ToLower(q)) + "%"
		clauses := make([]string, 0, len(searchableFields)+1)
		for _, f := range searchableFields {
			clauses = append(clauses, `lower(json_extract(doc, '$.`+f+`')) LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		clauses = append(clauses, `lower(json_extract(doc, '$.email')) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
		query += ` AND (` + strings.Join(clauses, " OR ") + `)`
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list leads %s/%s", dbName, collection)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead document")
		}
		lead, err := model.DecodeLead([]byte(doc))
		if err != nil {
			s.log.Warn("skipping undecodable lead document", zap.Error(err))
			continue
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) InsertLeads(ctx context.Context, dbName, collection string, docs [][]byte) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (id, db_name, collection, doc, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET db_name = excluded.db_name, collection = excluded.collection, doc = excluded.doc`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	var n int64
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, doc := range docs {
		var probe struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(doc, &probe); err != nil {
			return 0, eris.Wrap(err, "sqlite: parse lead document")
		}
		id := probe.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx, id, dbName, collection, string(doc), now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert lead %s", id)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert")
	}
	return n, nil
}

func (s *SQLiteStore) SearchCities(ctx context.Context, query string, limit int) ([]model.City, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := leadfilter.EscapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	rows, err := s.db.QueryContext(ctx,
		`SELECT postcode_area, area_covered, population_2011, households_2011,
		        postcodes, active_postcodes, non_geographic_postcodes, scraped_at
		 FROM cities
		 WHERE lower(area_covered) LIKE ? ESCAPE '\' OR lower(postcode_area) LIKE ? ESCAPE '\'
		 ORDER BY population_2011 DESC
		 LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: search cities %q", query)
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var c model.City
		var scrapedAt sql.NullString
		if err := rows.Scan(&c.PostcodeArea, &c.AreaCovered, &c.Population2011, &c.Households2011,
			&c.Postcodes, &c.ActivePostcodes, &c.NonGeographicPostcodes, &scrapedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan city")
		}
		if scrapedAt.Valid {
			if ts, err := time.Parse(time.RFC3339, scrapedAt.String); err == nil {
				c.ScrapedAt = &ts
			}
		}
		c.ID = c.PostcodeArea
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "sqlite: search cities iterate")
}

func (s *SQLiteStore) ImportCities(ctx context.Context, cities []model.City) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cities`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear cities")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cities (postcode_area, area_covered, population_2011, households_2011,
		                     postcodes, active_postcodes, non_geographic_postcodes, scraped_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare city insert")
	}
	defer stmt.Close()

	var n int64
	for _, c := range cities {
		var scrapedAt any
		if c.ScrapedAt != nil {
			scrapedAt = c.ScrapedAt.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, c.PostcodeArea, c.AreaCovered, c.Population2011, c.Households2011,
			c.Postcodes, c.ActivePostcodes, c.NonGeographicPostcodes, scrapedAt); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert city %s", c.PostcodeArea)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit cities")
	}
	return n, nil
}

func scanStrings(rows *sql.Rows, opName string) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, eris.Wrap(err, opName+" scan")
		}
		out = append(out, s)
	}
	return out, eris.Wrap(rows.Err(), opName+" iterate")
}
