// Package sqlite implements store.Store on SQLite.
//
// The database runs in WAL mode with a single connection; every write is
// one statement, so each upsert and each re-tag batch is atomic.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema
// 1 - Index on properties.external_id for orphan scans
const currentSchemaVersion = 1

// Store is a SQLite backed destination store.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open creates or opens a database at path and applies pragmas and
// migrations. Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WrapResource("open", "store", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("connect", "store", path, err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY and
	// keeps ":memory:" databases on one handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return errors.WrapResource("configure", "store", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.WrapResource("create", "schema", "", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return errors.WrapResource("query", "schema version", "", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return errors.WrapResource("update", "schema version", "", err)
	}
	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_external_id
		ON properties(external_id)
	`)
	if err != nil {
		return errors.WrapResource("migrate", "schema", "v1", err)
	}
	return nil
}
