package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration brings a journal from version-1 to version. Each statement
// must be a no-op on journals that already got the change from schema.sql.
type migration struct {
	version int
	name    string
	stmt    string
}

// Journal versions:
// 0 - deliveries table and the document index only
// 1 - per-object index for trace --object
// 2 - per-kind index for trace --kind
var migrations = []migration{
	{
		version: 1,
		name:    "per-object index",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_deliveries_obj ON deliveries(obj, seq)`,
	},
	{
		version: 2,
		name:    "per-kind index",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_deliveries_kind ON deliveries(kind, seq)`,
	},
}

// currentSchemaVersion is the user_version of a fully migrated journal.
var currentSchemaVersion = migrations[len(migrations)-1].version

// Store is the delivery journal: every patch a whole-document subscriber
// received, in delivery order. A run writes it and trace reads it back,
// possibly while the run is still going, which is why it sits on SQLite
// in WAL mode.
type Store struct {
	db *sql.DB
}

// Open creates or opens a journal at the given path and brings its schema
// up to date.
//
// The connection is configured with:
//   - WAL mode so a trace can read while a run writes
//   - NORMAL synchronous mode (a lost tail after a crash is acceptable)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Opening the same path repeatedly is safe.
func Open(path string) (*Store, error) {
	// sql.Open is lazy; the file is created on first use.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: SQLite serializes writers anyway, and a single
	// connection keeps the append transaction and its seq lookup together.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
// A Store that was never opened closes cleanly.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the deliveries table if needed, then migrates.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies every migration newer than the journal's
// user_version, in order, and records the version reached.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// A journal written by a newer build keeps its version; its extra
	// indexes are harmless to this one.
	if version >= currentSchemaVersion {
		return nil
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
	}

	// PRAGMA does not take bound parameters.
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
