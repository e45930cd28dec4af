package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"
)

type dialect struct {
	driver string
	get    string
	upsert string
	delete string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite",
		get:    `SELECT value FROM kv WHERE name = ?`,
		upsert: `INSERT INTO kv (name, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		delete: `DELETE FROM kv WHERE name = ?`,
	}
	postgresDialect = dialect{
		driver: "pgx",
		get:    `SELECT value FROM kv WHERE name = $1`,
		upsert: `INSERT INTO kv (name, value, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		delete: `DELETE FROM kv WHERE name = $1`,
	}
)

const createTable = `CREATE TABLE IF NOT EXISTS kv (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQL keeps every key as one row of a single kv table.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

var _ Store = (*SQL)(nil)

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	if path == "" {
		return nil, errors.New("kvstore: sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)
	return newSQL(ctx, db, sqliteDialect)
}

// OpenPostgres connects through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, url string) (*SQL, error) {
	if url == "" {
		return nil, errors.New("kvstore: postgres url is empty")
	}
	db, err := sql.Open(postgresDialect.driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return newSQL(ctx, db, postgresDialect)
}

func newSQL(ctx context.Context, db *sql.DB, d dialect) (*SQL, error) {
	// Verify the connection
	if err := db.PingContext(ctx); err != nil {
		// close the db handle if ping fails to avoid resource leak
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	return &SQL{db: db, dialect: d}, nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sql get %q: %w", key, err)
	}
	return value, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("sql set %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.delete, key); err != nil {
		return fmt.Errorf("sql delete %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
