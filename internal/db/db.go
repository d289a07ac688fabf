// Package db opens the server's sqlite database and provides the
// transaction and null-type helpers shared by the stores built on top of it.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (creating if absent) the sqlite database at path and applies
// pragmas suited to a single-process server: WAL journaling so readers never
// block the writer, and foreign key enforcement for the stores' ON DELETE
// CASCADE relationships.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("configure database %s: %w", path, err)
	}
	return db, nil
}
