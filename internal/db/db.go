package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/charmbracelet/log"
)

const dbFileName = "storefront.db"

// DB represents a SQLite database connection
type DB struct {
	db            *sql.DB
	path          string
	logger        *log.Logger
	retryAttempts uint
}

// New creates a new database connection
func New(dataDir string, logger *log.Logger) (*DB, error) {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	// Open database connection; busy_timeout lets concurrent writers wait on each other
	dbPath := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_pragma=busy_timeout(2000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	d := &DB{
		db:            db,
		path:          dbPath,
		logger:        logger,
		retryAttempts: 5,
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	if err := ApplyMigrations(context.Background(), db, func(msg string, args ...interface{}) {
		logger.Infof(msg, args...)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %v", err)
	}

	return d, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		-- Serialized blobs keyed by name, the equivalent of browser local storage
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);

		-- Catalog products, kept in insertion order via rowid
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			price TEXT NOT NULL,
			rating REAL,
			stock INTEGER NOT NULL DEFAULT 0,
			discount REAL,
			created_at TEXT,
			sales INTEGER
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %v", err)
	}

	return nil
}

// Path returns the on-disk location of the database file
func (d *DB) Path() string {
	return d.path
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// DB returns the underlying database connection
func (d *DB) DB() *sql.DB {
	return d.db
}

// isBusy reports whether err is a transient lock error from another writer
func isBusy(err error) bool {
	return errors.Is(err, sqlite3.BUSY) || errors.Is(err, sqlite3.LOCKED)
}

// withRetry runs a write, retrying while the database is locked by another connection or process
func (d *DB) withRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(d.retryAttempts),
		retry.Delay(20*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isBusy),
		retry.OnRetry(func(n uint, err error) {
			d.logger.Warn("Retrying locked database write",
				"op", op,
				"attempt", n+1,
				"max_attempts", d.retryAttempts,
				"error", err)
		}),
	)
}
