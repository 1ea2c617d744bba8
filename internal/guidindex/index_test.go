package guidindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/etg-extract/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan:
// - Build resolves a guid to its slash-normalized path relative to the root
// - Build skips unparsable and guid-less sidecar files
// - Build ignores non-sidecar files
// - Build keeps exponent-looking guids as strings
// - Load saves a scan and reuses the cached table without touching the filesystem
// - Rebuild rescans even when a cached table exists
// - Lookup on an unknown guid is "not found", never an error

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestBuild_LookupRelativePath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "data/guns/Magnum.prefab.meta", "guid: abc123\n")

	idx, err := Build(context.Background(), root, Options{})
	require.NoError(t, err)

	p, ok := idx.Lookup("abc123")
	require.True(t, ok)
	assert.Equal(t, "data/guns/Magnum.prefab.meta", p)
}

func TestBuild_SkipsBadFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "good.asset.meta", "fileFormatVersion: 2\nguid: 0011\n")
	writeFile(t, root, "broken.asset.meta", "guid: [unterminated\n")
	writeFile(t, root, "noguid.asset.meta", "fileFormatVersion: 2\n")
	writeFile(t, root, "other.asset", "guid: ffff\n")

	var calls int
	idx, err := Build(context.Background(), root, Options{OnProgress: func(done, total int) {
		calls++
		assert.Equal(t, 3, total)
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 3, calls)
	_, ok := idx.Lookup("ffff")
	assert.False(t, ok)
}

func TestBuild_ExponentGUID(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.mat.meta", "guid: 1234e567\n")

	idx, err := Build(context.Background(), root, Options{})
	require.NoError(t, err)

	_, ok := idx.Lookup("1234e567")
	assert.True(t, ok)
}

func TestLoad_UsesCache(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := cache.NewStore(t.TempDir())
	writeFile(t, root, "x.prefab.meta", "guid: aa\n")

	first, err := Load(context.Background(), store, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Len())

	// A new sidecar is invisible until a rebuild: the cached table wins.
	writeFile(t, root, "y.prefab.meta", "guid: bb\n")
	second, err := Load(context.Background(), store, root, Options{OnProgress: func(int, int) {
		t.Fatal("scan should have been skipped")
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Len())

	rebuilt, err := Rebuild(context.Background(), store, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, rebuilt.Len())
	assert.Len(t, cache.Restore[string, string](store, CacheKey), 2)
}

func TestLookup_NotFound(t *testing.T) {
	t.Parallel()

	idx := New(nil)
	p, ok := idx.Lookup("missing")
	assert.False(t, ok)
	assert.Empty(t, p)

	var nilIdx *Index
	_, ok = nilIdx.Lookup("missing")
	assert.False(t, ok)
}

func TestEntries_Sorted(t *testing.T) {
	t.Parallel()

	idx := New(map[string]string{"b": "z.meta", "a": "a.meta"})
	assert.Equal(t, []MetaEntry{{GUID: "a", Path: "a.meta"}, {GUID: "b", Path: "z.meta"}}, idx.Entries())
}
