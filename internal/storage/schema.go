// Package storage exports extracted repositories to a SQLite database.
//
// Every record is stored as JSON in a single records table keyed by
// (repo, key), next to a repositories table holding per-repository load
// statistics. Queries use Masterminds/squirrel over mattn/go-sqlite3.
package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is written to export_metadata on creation.
const SchemaVersion = "1.0"

const createRepositoriesTable = `
CREATE TABLE IF NOT EXISTS repositories (
	name        TEXT PRIMARY KEY,
	entries     INTEGER NOT NULL,
	candidates  INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	from_cache  INTEGER NOT NULL,
	exported_at TEXT NOT NULL
)`

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS records (
	repo     TEXT NOT NULL REFERENCES repositories(name) ON DELETE CASCADE,
	key      TEXT NOT NULL,
	position INTEGER NOT NULL,
	data     TEXT NOT NULL,
	PRIMARY KEY (repo, key)
)`

const createExportMetadataTable = `
CREATE TABLE IF NOT EXISTS export_metadata (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const createRecordsPositionIndex = `
CREATE INDEX IF NOT EXISTS idx_records_repo_position ON records(repo, position)`

// CreateSchema creates all tables and indexes in one transaction and
// bootstraps export_metadata. Must be called with foreign keys enabled.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"repositories", createRepositoriesTable},
		{"records", createRecordsTable},
		{"export_metadata", createExportMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	if _, err := tx.Exec(createRecordsPositionIndex); err != nil {
		return fmt.Errorf("failed to create records index: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`
		INSERT OR IGNORE INTO export_metadata (key, value, updated_at) VALUES
			('schema_version', ?, ?)`, SchemaVersion, now); err != nil {
		return fmt.Errorf("failed to bootstrap export_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the schema version, or "0" for a new database.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='export_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check export_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM export_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in export_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}
