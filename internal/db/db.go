package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is the SQL-backed file catalog. The same queries run on SQLite and
// PostgreSQL; placeholders are written as "?" and rebound per driver.
type DB struct {
	*sql.DB
	driver string
}

// OpenSQLite opens (and creates, if needed) a SQLite catalog at path.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	return open(ctx, DriverSQLite, dsn)
}

func OpenPostgres(ctx context.Context, databaseURL string) (*DB, error) {
	return open(ctx, DriverPostgres, databaseURL)
}

func open(ctx context.Context, driver, dsn string) (*DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	db := &DB{DB: sqlDB, driver: driver}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS files (
			id         TEXT PRIMARY KEY,
			bytes      BIGINT NOT NULL,
			created_at BIGINT NOT NULL,
			filename   TEXT NOT NULL,
			purpose    TEXT NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}

	index := `CREATE INDEX IF NOT EXISTS idx_files_created_at ON files (created_at)`
	if _, err := db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create files index: %w", err)
	}
	return nil
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
