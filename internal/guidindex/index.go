// Package guidindex maps asset GUIDs to the sidecar metadata files that
// declare them.
//
// The index is built once, either from the cache or by walking the asset
// root, and is read-only afterwards. Lookups are safe from any goroutine.
package guidindex

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mvp-joe/etg-extract/internal/cache"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

// CacheKey is the cache table holding the index.
const CacheKey = "guid-index"

// MetaEntry is one row of the index.
type MetaEntry struct {
	GUID string `json:"guid"`
	Path string `json:"path"`
}

// Options configures a scan.
type Options struct {
	// MetaExt is the sidecar extension. Defaults to ".meta".
	MetaExt string

	// OnProgress, if set, is called after each sidecar file is read.
	OnProgress func(processed, total int)
}

// Index is an immutable guid → relative sidecar path map.
type Index struct {
	paths map[string]string
}

// New wraps an existing guid → path table.
func New(paths map[string]string) *Index {
	if paths == nil {
		paths = map[string]string{}
	}
	return &Index{paths: paths}
}

// Lookup returns the sidecar path for guid relative to the asset root,
// with forward slashes. Unknown GUIDs are simply not found.
func (x *Index) Lookup(guid string) (string, bool) {
	if x == nil {
		return "", false
	}
	p, ok := x.paths[guid]
	return p, ok
}

// Len returns the number of indexed GUIDs.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.paths)
}

// Entries returns all rows sorted by path.
func (x *Index) Entries() []MetaEntry {
	entries := make([]MetaEntry, 0, x.Len())
	for guid, p := range x.paths {
		entries = append(entries, MetaEntry{GUID: guid, Path: p})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Path == entries[j].Path {
			return entries[i].GUID < entries[j].GUID
		}
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// Load restores the index from store. When the cached table is empty the
// asset root is scanned and the result saved.
func Load(ctx context.Context, store *cache.Store, root string, opts Options) (*Index, error) {
	if cached := cache.Restore[string, string](store, CacheKey); len(cached) > 0 {
		return New(cached), nil
	}
	return Rebuild(ctx, store, root, opts)
}

// Rebuild scans root regardless of the cache and overwrites the cached table.
func Rebuild(ctx context.Context, store *cache.Store, root string, opts Options) (*Index, error) {
	idx, err := Build(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	if err := cache.Save(store, CacheKey, idx.paths); err != nil {
		log.Printf("Warning: failed to save GUID index: %v", err)
	}
	return idx, nil
}

// Build walks root for sidecar files and reads their guid field.
// Files that cannot be read or parsed are logged and skipped.
func Build(ctx context.Context, root string, opts Options) (*Index, error) {
	ext := opts.MetaExt
	if ext == "" {
		ext = unityasset.MetaExt
	}

	files, err := findMetaFiles(root, ext)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]string, len(files))
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		guid, err := readGUID(file)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", file, err)
		} else {
			rel, err := filepath.Rel(root, file)
			if err != nil {
				return nil, err
			}
			rel = filepath.ToSlash(rel)
			if prev, dup := paths[guid]; dup {
				log.Printf("Warning: duplicate guid %s in %s and %s", guid, prev, rel)
			}
			paths[guid] = rel
		}

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(files))
		}
	}

	return New(paths), nil
}

func findMetaFiles(root, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func readGUID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	node, err := unityasset.ParseBody(string(data), unityasset.ParseOptions{NoExponentFloats: true})
	if err != nil {
		return "", err
	}
	guid, ok := unityasset.ScalarValue(node, "guid")
	if !ok || guid == "" {
		return "", fmt.Errorf("no guid field")
	}
	return guid, nil
}
