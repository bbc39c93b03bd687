package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the database connection and provides initialization
type DB struct {
	*sql.DB
}

// NewDB creates and initializes a new database connection
func NewDB(dbPath string) (*DB, error) {
	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open SQLite database
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)

	db := &DB{DB: sqlDB}

	// Initialize schema
	if err := db.initSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates the database tables and indexes
func (db *DB) initSchema() error {
	schema := `
-- Geolocation lookup cache schema
CREATE TABLE IF NOT EXISTS geo_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ip TEXT NOT NULL,
    country TEXT,
    asn TEXT,
    resolved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

    -- One cached record per IP
    UNIQUE(ip)
);

-- Index for fast lookups by IP
CREATE INDEX IF NOT EXISTS idx_geo_records_ip ON geo_records(ip);

-- Index for expiring stale records (by resolved_at)
CREATE INDEX IF NOT EXISTS idx_geo_records_resolved_at ON geo_records(resolved_at);`

	_, err := db.Exec(schema)
	return err
}
