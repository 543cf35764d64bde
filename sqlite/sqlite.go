// Package sqlite persists index artifacts in per-source SQLite databases.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Wait 5 seconds before failing on lock contention instead of
	// returning "database is locked" immediately.
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db.db = conn

	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// createSchema creates the artifact tables if they don't exist. One database
// holds the complete artifact set for exactly one source.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			source TEXT NOT NULL,
			run_id TEXT NOT NULL,
			model TEXT NOT NULL,
			dimensions INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chunks (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			page_id TEXT NOT NULL,
			title TEXT NOT NULL,
			path TEXT NOT NULL,
			content TEXT NOT NULL,
			html TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			total_chunks INTEGER NOT NULL,
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			word_count INTEGER NOT NULL,
			char_count INTEGER NOT NULL,
			anchor_ids TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS vectors (
			position INTEGER PRIMARY KEY REFERENCES chunks(position),
			vector BLOB NOT NULL
		);

		CREATE TABLE IF NOT EXISTS lexical (
			position INTEGER PRIMARY KEY REFERENCES chunks(position),
			tokens TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS anchors (
			key TEXT PRIMARY KEY,
			chunk_id TEXT NOT NULL,
			anchor_offset INTEGER NOT NULL,
			chunk_start INTEGER NOT NULL,
			chunk_end INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS graph (
			page_id TEXT PRIMARY KEY,
			parent TEXT NOT NULL,
			children TEXT NOT NULL,
			see_also TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS keywords (
			term TEXT PRIMARY KEY,
			page_ids TEXT NOT NULL
		);
	`
	_, err := db.db.Exec(schema)
	return err
}
