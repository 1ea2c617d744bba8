package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/etg-extract/internal/guidindex"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

// Test Plan:
// - ResolveTree attaches resolvedPath to known guids at any depth, keeping other keys
// - ResolveTree leaves unknown guids and fileID 0 refs untouched
// - ParseFile memoizes: edits to the file are invisible after the first parse
// - ParseFile on a missing file errors; malformed files surface the tokenizer sentinel
// - Follow returns not-found for absent and unresolved refs
// - Follow parses the target file, stripping the sidecar suffix
// - A configured sidecar extension is stripped instead of .meta; AssetPath and Key honour it
// - Follow rejects an edge that closes a cycle and chains past MaxDepth

func writeAsset(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newResolver(t *testing.T, root string, paths map[string]string, maxDepth int) *Resolver {
	t.Helper()
	r, err := New(guidindex.New(paths), Config{Root: root, MaxDepth: maxDepth, LRUSize: 16})
	require.NoError(t, err)
	return r
}

func asset(typeName, body string) string {
	return "%YAML 1.1\n--- !u!114 &11400000\n" + typeName + ":\n" + body
}

func TestResolveTree_Nested(t *testing.T) {
	t.Parallel()

	r := newResolver(t, t.TempDir(), map[string]string{"abc": "guns/Bullet.prefab.meta"}, 0)
	node, err := unityasset.ParseBody(`m_Script: {fileID: 11500000, guid: abc, type: 3}
modules:
- projectiles:
  - {fileID: 10, guid: abc, type: 2}
  - {fileID: 0}
other: {fileID: 4, guid: unknown}
`, unityasset.ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, r.ResolveTree(node))

	p, ok := unityasset.ScalarValue(node, "m_Script", ResolvedPathKey)
	require.True(t, ok)
	assert.Equal(t, "guns/Bullet.prefab.meta", p)
	typ, _ := unityasset.ScalarValue(node, "m_Script", "type")
	assert.Equal(t, "3", typ)

	projectiles := unityasset.Lookup(node, "modules").Content[0]
	first := unityasset.Lookup(projectiles, "projectiles").Content[0]
	p, _ = unityasset.ScalarValue(first, ResolvedPathKey)
	assert.Equal(t, "guns/Bullet.prefab.meta", p)

	_, ok = unityasset.ScalarValue(node, "other", ResolvedPathKey)
	assert.False(t, ok)
}

func TestResolveTree_ZeroFileID(t *testing.T) {
	t.Parallel()

	r := newResolver(t, t.TempDir(), map[string]string{"abc": "a.meta"}, 0)
	node, err := unityasset.ParseBody("ref: {fileID: 0, guid: abc}\n", unityasset.ParseOptions{})
	require.NoError(t, err)

	assert.Zero(t, r.ResolveTree(node))

	ref, err := unityasset.DecodeRef(unityasset.Lookup(node, "ref"))
	require.NoError(t, err)
	assert.False(t, ref.Resolved())
	assert.Empty(t, unityasset.CompactRefs([]unityasset.Ref{ref}))
}

func TestParseFile_Memoized(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeAsset(t, root, "a.asset", asset("MonoBehaviour", "  m_Name: First\n"))
	r := newResolver(t, root, nil, 0)

	blocks, err := r.ParseFile("a.asset")
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	writeAsset(t, root, "a.asset", asset("MonoBehaviour", "  m_Name: Second\n"))
	again, err := r.ParseFile(filepath.Join(root, "a.asset"))
	require.NoError(t, err)

	name, _ := unityasset.ScalarValue(again[0].Fields, "m_Name")
	assert.Equal(t, "First", name)
}

func TestParseFile_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeAsset(t, root, "bad.asset", "--- !u!114 &1\n  nope\n")
	r := newResolver(t, root, nil, 0)

	_, err := r.ParseFile("missing.asset")
	assert.Error(t, err)

	_, err = r.ParseFile("bad.asset")
	assert.ErrorIs(t, err, unityasset.ErrMalformedBlockHeader)
}

func TestFollow_NotFound(t *testing.T) {
	t.Parallel()

	r := newResolver(t, t.TempDir(), nil, 0)

	blocks, ok, err := r.Follow("a.prefab", unityasset.Ref{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, blocks)

	_, ok, err = r.Follow("a.prefab", unityasset.Ref{FileID: 5, GUID: "unknown"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.Follow("a.prefab", unityasset.Ref{GUID: "x", ResolvedPath: "b.mat.meta"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollow_ParsesTarget(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeAsset(t, root, "mats/Gun.mat", asset("Material", "  m_Name: GunMat\n"))
	r := newResolver(t, root, nil, 0)

	blocks, ok, err := r.Follow(filepath.Join(root, "coll/Coll.prefab"), unityasset.Ref{
		FileID: 2100000, GUID: "m", ResolvedPath: "mats/Gun.mat.meta",
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Material", blocks[0].TypeName)

	// The same edge again is fine.
	_, ok, err = r.Follow("coll/Coll.prefab", unityasset.Ref{FileID: 1, ResolvedPath: "mats/Gun.mat.meta"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, r.EdgeCount())
}

func TestFollow_CustomSidecarExtension(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeAsset(t, root, "M.mat", asset("Material", "  m_Name: GunMat\n"))
	writeAsset(t, root, "M.mat.sidecar", "guid: mat1\n")
	r, err := New(guidindex.New(map[string]string{"mat1": "M.mat.sidecar"}), Config{Root: root, MetaExt: ".sidecar"})
	require.NoError(t, err)

	ref := unityasset.Ref{FileID: 2100000, GUID: "mat1", ResolvedPath: "M.mat.sidecar"}
	assert.Equal(t, "M.mat", r.AssetPath(ref))
	assert.Equal(t, "M", r.Key(ref))
	assert.Empty(t, r.Key(unityasset.Ref{}))

	blocks, ok, err := r.Follow("Coll.prefab", ref)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Material", blocks[0].TypeName)
}

func TestFollow_CycleAndDepth(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		writeAsset(t, root, name+".asset", asset("MonoBehaviour", "  m_Name: "+name+"\n"))
	}
	ref := func(name string) unityasset.Ref {
		return unityasset.Ref{FileID: 11400000, ResolvedPath: name + ".asset.meta"}
	}

	r := newResolver(t, root, nil, 2)

	_, _, err := r.Follow("a.asset", ref("a"))
	assert.ErrorIs(t, err, ErrReferenceCycle)

	_, ok, err := r.Follow("a.asset", ref("b"))
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = r.Follow("b.asset", ref("a"))
	assert.ErrorIs(t, err, ErrReferenceCycle)

	_, _, err = r.Follow("b.asset", ref("c"))
	require.NoError(t, err)

	_, _, err = r.Follow("c.asset", ref("d"))
	assert.ErrorIs(t, err, ErrReferenceDepth)
}
