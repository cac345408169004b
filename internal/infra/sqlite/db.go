// Package sqlite is the Plan Store: a pure-Go (no CGO) SQLite-backed
// persistence layer for user settings, tasks, plans, plan items, and feedback.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a *sql.DB with the migration and upsert conventions used
// throughout this package.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and runs
// every migration batch in order. path may be ":memory:" for tests.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// modernc.org/sqlite does not multiplex writes across connections safely
	// under concurrent access; a single connection serializes them instead.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) migrate() error {
	for _, stmt := range PlanStoreMigrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: migration failed: %w", err)
		}
	}
	return nil
}
