package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/etg-extract/internal/catalog"
)

// Writer writes repository tables to a SQLite database.
type Writer struct {
	db *sql.DB
}

// NewWriter opens or creates an export database and creates the schema if
// needed.
func NewWriter(dbPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}
	if version == "0" {
		if err := CreateSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Writer{db: db}, nil
}

// WriteTable replaces every row of one repository. The write is atomic:
// either the whole table is replaced or nothing changes.
func (w *Writer) WriteTable(ctx context.Context, table catalog.Table) (int, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	name := table.Name()
	stats := table.Stats()

	_, err = sq.Insert("repositories").
		Options("OR REPLACE").
		Columns("name", "entries", "candidates", "skipped", "from_cache", "exported_at").
		Values(name, table.Len(), stats.Candidates, stats.Skipped, stats.FromCache, time.Now().UTC().Format(time.RFC3339)).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to write %s repository: %w", name, err)
	}

	if _, err := sq.Delete("records").Where(sq.Eq{"repo": name}).RunWith(tx).ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to clear %s records: %w", name, err)
	}

	rows := table.Rows()
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		data, err := json.Marshal(row.Value)
		if err != nil {
			return 0, fmt.Errorf("failed to encode %s record %s: %w", name, row.Key, err)
		}
		_, err = sq.Insert("records").
			Columns("repo", "key", "position", "data").
			Values(name, row.Key, i, string(data)).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s record %s: %w", name, row.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(rows), nil
}

// WriteTables writes each table in order and returns the number of rows
// written per repository.
func (w *Writer) WriteTables(ctx context.Context, tables []catalog.Table) (map[string]int, error) {
	written := make(map[string]int, len(tables))
	for _, table := range tables {
		n, err := w.WriteTable(ctx, table)
		if err != nil {
			return written, err
		}
		written[table.Name()] = n
	}
	return written, nil
}

// Close closes the database connection.
func (w *Writer) Close() error {
	return w.db.Close()
}
