// Package migrations provides the embedded SQL schema and helpers to open the catalog database.
package migrations

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed sql/001_initial.sql
var InitialSQL string

// Apply establishes the schema. Safe to run on every start.
func Apply(db *sql.DB) error {
	if _, err := db.Exec(InitialSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the SQLite database at path and applies the schema.
// The pool is limited to one connection; SQLite serializes writers anyway.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := Apply(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
