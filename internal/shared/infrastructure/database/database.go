// Package database opens the storage backends nextup reads tasks and
// feedback from.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Driver represents a database backend type.
type Driver string

const (
	// DriverPostgres represents PostgreSQL.
	DriverPostgres Driver = "postgres"
	// DriverSQLite represents SQLite.
	DriverSQLite Driver = "sqlite"
)

// sqlitePragmas are appended to every SQLite DSN.
const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// String returns the string representation of the driver.
func (d Driver) String() string {
	return string(d)
}

// Config holds database configuration.
type Config struct {
	// URL is a postgres:// connection string or a SQLite file path.
	// Empty selects SQLite at SQLitePath.
	URL string

	// SQLitePath defaults to ~/.nextup/nextup.db.
	SQLitePath string

	// MaxConns is the pool size for PostgreSQL.
	MaxConns int
}

// Driver reports which backend the configuration points at.
func (c Config) Driver() Driver {
	return DetectDriver(c.URL)
}

// DetectDriver parses a connection string and returns the driver type.
// Empty URLs select SQLite so the CLI works without any setup.
func DetectDriver(url string) Driver {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// DefaultSQLitePath returns the default SQLite database path.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".nextup", "nextup.db")
}

// EnsureDirectory creates the parent directory for a file path if it doesn't exist.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// sqlitePath resolves the file a SQLite config refers to.
func (c Config) sqlitePath() string {
	path := c.SQLitePath
	if c.URL != "" {
		path = strings.TrimPrefix(c.URL, "sqlite://")
	}
	if path == "" {
		path = DefaultSQLitePath()
	}
	return path
}

// OpenSQLite opens the SQLite database described by cfg. The special path
// ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, cfg Config) (*sql.DB, error) {
	path := cfg.sqlitePath()

	dsn := path
	if path != ":memory:" {
		if err := EnsureDirectory(path); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		if strings.Contains(dsn, "?") {
			dsn += "&"
		} else {
			dsn += "?"
		}
		dsn += sqlitePragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Single writer; also keeps :memory: databases on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}

// OpenPostgres creates a PostgreSQL connection pool.
func OpenPostgres(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required for PostgreSQL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	return pool, nil
}
