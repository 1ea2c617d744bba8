package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// RepositoryInfo is one row of the repositories table.
type RepositoryInfo struct {
	Name       string
	Entries    int
	Candidates int
	Skipped    int
	FromCache  bool
	ExportedAt string
}

// Reader queries an export database. Opens in read-only mode.
type Reader struct {
	db *sql.DB
}

// NewReader opens an existing export database read-only.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Reader{db: db}, nil
}

// Repositories lists exported repositories ordered by name.
func (r *Reader) Repositories() ([]RepositoryInfo, error) {
	rows, err := sq.Select("name", "entries", "candidates", "skipped", "from_cache", "exported_at").
		From("repositories").
		OrderBy("name").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer rows.Close()

	var infos []RepositoryInfo
	for rows.Next() {
		var info RepositoryInfo
		if err := rows.Scan(&info.Name, &info.Entries, &info.Candidates, &info.Skipped, &info.FromCache, &info.ExportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repositories: %w", err)
	}
	return infos, nil
}

// Keys lists the record keys of one repository in export order.
func (r *Reader) Keys(repo string) ([]string, error) {
	rows, err := sq.Select("key").
		From("records").
		Where(sq.Eq{"repo": repo}).
		OrderBy("position").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s keys: %w", repo, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keys: %w", err)
	}
	return keys, nil
}

// Record returns the JSON of one record.
func (r *Reader) Record(repo, key string) (json.RawMessage, bool, error) {
	var data string
	err := sq.Select("data").
		From("records").
		Where(sq.Eq{"repo": repo, "key": key}).
		RunWith(r.db).
		QueryRow().
		Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query %s record %s: %w", repo, key, err)
	}
	return json.RawMessage(data), true, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	return r.db.Close()
}
