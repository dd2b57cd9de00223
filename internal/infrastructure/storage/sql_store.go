package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"CouncilScraper/internal/config"
)

// ErrNotFound is returned when a lookup by id or name matches nothing.
var ErrNotFound = errors.New("not found")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore persists councils, scraper configurations and result entities in SQLite or Postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
}

// Open connects to the configured database and enables driver-specific settings.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*SQLStore, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dsn := cfg.DSN
	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		// every pooled connection would get its own empty in-memory database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return New(db, driver), nil
}

// sqliteDSN enables foreign keys on every pooled connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// New wraps an open database handle.
func New(db *sql.DB, driver string) *SQLStore {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &SQLStore{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// Migrate creates the schema if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) insertReturningID(ctx context.Context, q sq.InsertBuilder) (int64, error) {
	query, args, err := q.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) exec(ctx context.Context, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS councils (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL UNIQUE,
	url           TEXT NOT NULL DEFAULT '',
	wikipedia_url TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS members (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	council_id   INTEGER NOT NULL REFERENCES councils(id) ON DELETE CASCADE,
	uid          TEXT NOT NULL,
	url          TEXT NOT NULL DEFAULT '',
	full_name    TEXT NOT NULL DEFAULT '',
	party        TEXT NOT NULL DEFAULT '',
	constituency TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	telephone    TEXT NOT NULL DEFAULT '',
	committee_id INTEGER,
	updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (council_id, uid)
);
CREATE TABLE IF NOT EXISTS committees (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	council_id  INTEGER NOT NULL REFERENCES councils(id) ON DELETE CASCADE,
	uid         TEXT NOT NULL,
	url         TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	member_id   INTEGER,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (council_id, uid)
);
CREATE TABLE IF NOT EXISTS scrapers (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	council_id    INTEGER NOT NULL REFERENCES councils(id) ON DELETE CASCADE,
	kind          TEXT NOT NULL DEFAULT 'scraper',
	url           TEXT NOT NULL DEFAULT '',
	result_model  TEXT NOT NULL,
	related_model TEXT NOT NULL DEFAULT '',
	parser        TEXT NOT NULL DEFAULT ''
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS councils (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	url           TEXT NOT NULL DEFAULT '',
	wikipedia_url TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS members (
	id           BIGSERIAL PRIMARY KEY,
	council_id   BIGINT NOT NULL REFERENCES councils(id) ON DELETE CASCADE,
	uid          TEXT NOT NULL,
	url          TEXT NOT NULL DEFAULT '',
	full_name    TEXT NOT NULL DEFAULT '',
	party        TEXT NOT NULL DEFAULT '',
	constituency TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	telephone    TEXT NOT NULL DEFAULT '',
	committee_id BIGINT,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (council_id, uid)
);
CREATE TABLE IF NOT EXISTS committees (
	id          BIGSERIAL PRIMARY KEY,
	council_id  BIGINT NOT NULL REFERENCES councils(id) ON DELETE CASCADE,
	uid         TEXT NOT NULL,
	url         TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	member_id   BIGINT,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (council_id, uid)
);
CREATE TABLE IF NOT EXISTS scrapers (
	id            BIGSERIAL PRIMARY KEY,
	council_id    BIGINT NOT NULL REFERENCES councils(id) ON DELETE CASCADE,
	kind          TEXT NOT NULL DEFAULT 'scraper',
	url           TEXT NOT NULL DEFAULT '',
	result_model  TEXT NOT NULL,
	related_model TEXT NOT NULL DEFAULT '',
	parser        TEXT NOT NULL DEFAULT ''
);
`
