package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Store persists key → record tables as JSON files, one file per table.
// Stored in {root}/{key}.json
//
// Restore never fails: a missing or corrupt file degrades to an empty table,
// which callers treat as "rebuild from source".
type Store struct {
	root string
}

// NewStore creates a Store rooted at root. An empty root uses DefaultRoot().
func NewStore(root string) *Store {
	if root == "" {
		root = DefaultRoot()
	}
	return &Store{root: root}
}

// DefaultRoot returns "cache" for normal runs and a separate directory under
// the OS temp dir when running inside `go test`, so tests never read or
// clobber a developer's real cache.
func DefaultRoot() string {
	if testing.Testing() {
		return filepath.Join(os.TempDir(), "etgx-test-cache")
	}
	return "cache"
}

// Root returns the directory holding the cache files.
func (s *Store) Root() string {
	return s.root
}

// Path returns the file path for a table key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.root, key+".json")
}

// Save writes table to {root}/{key}.json using atomic write (temp + rename).
func Save[K comparable, V any](s *Store, key string, table map[K]V) error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if table == nil {
		table = map[K]V{}
	}
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s table: %w", key, err)
	}

	path := s.Path(key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp %s table: %w", key, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s table: %w", key, err)
	}
	return nil
}

// Restore reads {root}/{key}.json. Map keys are decoded according to K
// (string and integer kinds, or encoding.TextUnmarshaler).
// Returns an empty table if the file doesn't exist or is invalid.
func Restore[K comparable, V any](s *Store, key string) map[K]V {
	table := make(map[K]V)

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to read %s cache: %v", key, err)
		}
		return table
	}

	if err := json.Unmarshal(data, &table); err != nil {
		log.Printf("Warning: ignoring corrupt %s cache: %v", key, err)
		return make(map[K]V)
	}
	return table
}

// Remove deletes a cached table. Removing a missing table is not an error.
func (s *Store) Remove(key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s cache: %w", key, err)
	}
	return nil
}

// Keys lists the cached table keys, sorted.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	keys := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// TableInfo describes one cached table file.
type TableInfo struct {
	Key     string
	Entries int
	SizeMB  float64
}

// Info returns entry counts and sizes for every cached table.
func (s *Store) Info() ([]TableInfo, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}

	infos := make([]TableInfo, 0, len(keys))
	for _, key := range keys {
		info := TableInfo{Key: key}
		if st, err := os.Stat(s.Path(key)); err == nil {
			info.SizeMB = float64(st.Size()) / (1024 * 1024)
		}
		info.Entries = len(Restore[string, json.RawMessage](s, key))
		infos = append(infos, info)
	}
	return infos, nil
}
