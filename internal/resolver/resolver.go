// Package resolver attaches file paths to GUID references inside parsed
// asset trees and follows references across files.
package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dominikbraun/graph"
	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

var (
	// ErrReferenceCycle indicates that following a reference would close a
	// cycle in the file reference graph.
	ErrReferenceCycle = errors.New("reference cycle")

	// ErrReferenceDepth indicates a reference chain longer than MaxDepth.
	ErrReferenceDepth = errors.New("reference chain too deep")
)

// ResolvedPathKey is the key added next to "guid" in resolved ref nodes.
const ResolvedPathKey = "resolvedPath"

// Defaults
const (
	DefaultMaxDepth = 8
	DefaultLRUSize  = 512
)

// GUIDLookup maps a guid to a sidecar path relative to the asset root.
type GUIDLookup interface {
	Lookup(guid string) (string, bool)
}

// Config configures a Resolver.
type Config struct {
	Root     string // Asset root; relative paths resolve against it
	MaxDepth int    // Longest allowed Follow chain (default 8)
	LRUSize  int    // Parsed files kept in memory (default 512)
	MetaExt  string // Sidecar extension of indexed paths (default ".meta")
}

type memoKey struct {
	path  string
	noExp bool
}

// Resolver parses asset files, resolves their references and follows
// references between files. Safe for concurrent use.
type Resolver struct {
	index    GUIDLookup
	root     string
	maxDepth int
	metaExt  string
	memo     *lru.Cache[memoKey, []unityasset.Block]

	mu    sync.Mutex
	refs  graph.Graph[string, string]
	depth map[string]int
}

// New creates a Resolver over a built GUID index.
func New(index GUIDLookup, cfg Config) (*Resolver, error) {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.LRUSize <= 0 {
		cfg.LRUSize = DefaultLRUSize
	}
	if cfg.MetaExt == "" {
		cfg.MetaExt = unityasset.MetaExt
	}

	memo, err := lru.New[memoKey, []unityasset.Block](cfg.LRUSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse cache: %w", err)
	}

	return &Resolver{
		index:    index,
		root:     cfg.Root,
		maxDepth: cfg.MaxDepth,
		metaExt:  cfg.MetaExt,
		memo:     memo,
		refs:     graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
		depth:    make(map[string]int),
	}, nil
}

// Root returns the asset root.
func (r *Resolver) Root() string {
	return r.root
}

// AssetPath returns the path of the asset a resolved reference points at,
// relative to the root, or "" when the reference is absent or unresolved.
func (r *Resolver) AssetPath(ref unityasset.Ref) string {
	return ref.AssetPathExt(r.metaExt)
}

// Key returns the record key of the asset a reference points at: its base
// name without extension.
func (r *Resolver) Key(ref unityasset.Ref) string {
	p := r.AssetPath(ref)
	if p == "" {
		return ""
	}
	return unityasset.KeyFromPath(p)
}

// ResolveTree visits every mapping in n. Each mapping that carries a guid
// known to the index gets a resolvedPath entry; its other keys are kept.
// References with fileID 0 are absent and never resolved.
// Returns the number of references resolved.
func (r *Resolver) ResolveTree(n *yaml.Node) int {
	if n == nil {
		return 0
	}

	resolved := 0
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			resolved += r.ResolveTree(c)
		}
	case yaml.MappingNode:
		if r.resolveRef(n) {
			resolved++
		}
		for i := 1; i < len(n.Content); i += 2 {
			resolved += r.ResolveTree(n.Content[i])
		}
	}
	return resolved
}

func (r *Resolver) resolveRef(n *yaml.Node) bool {
	guid, ok := unityasset.ScalarValue(n, "guid")
	if !ok || guid == "" {
		return false
	}
	if fileID, ok := unityasset.ScalarValue(n, "fileID"); ok && fileID == "0" {
		return false
	}
	p, ok := r.index.Lookup(guid)
	if !ok {
		return false
	}
	unityasset.SetMappingValue(n, ResolvedPathKey, p)
	return true
}

// ParseFile reads, tokenizes, parses and resolves one asset file.
// path may be absolute or relative to the asset root. Results are memoized
// and must be treated as read-only.
func (r *Resolver) ParseFile(path string) ([]unityasset.Block, error) {
	return r.ParseFileWith(path, unityasset.ParseOptions{})
}

// ParseFileWith is ParseFile with explicit parse options. Memo entries are
// kept per option set.
func (r *Resolver) ParseFileWith(path string, opts unityasset.ParseOptions) ([]unityasset.Block, error) {
	abs := r.abs(path)
	if blocks, ok := r.memo.Get(memoKey{abs, opts.NoExponentFloats}); ok {
		return blocks, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return r.ParseContentWith(abs, data, opts)
}

// ParseContent is ParseFile for content the caller already read.
func (r *Resolver) ParseContent(path string, content []byte) ([]unityasset.Block, error) {
	return r.ParseContentWith(path, content, unityasset.ParseOptions{})
}

// ParseContentWith is ParseContent with explicit parse options.
func (r *Resolver) ParseContentWith(path string, content []byte, opts unityasset.ParseOptions) ([]unityasset.Block, error) {
	abs := r.abs(path)
	key := memoKey{abs, opts.NoExponentFloats}
	if blocks, ok := r.memo.Get(key); ok {
		return blocks, nil
	}

	blocks, err := unityasset.ParseFile(string(content), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Rel(abs), err)
	}
	for _, b := range blocks {
		r.ResolveTree(b.Fields)
	}

	r.memo.Add(key, blocks)
	return blocks, nil
}

// Follow parses the file a reference points at. from is the path of the
// file holding the reference. An absent or unresolved reference is not an
// error: ok is false.
//
// Every followed edge is recorded. An edge that would close a cycle fails
// with ErrReferenceCycle, and chains longer than MaxDepth with
// ErrReferenceDepth.
func (r *Resolver) Follow(from string, ref unityasset.Ref) ([]unityasset.Block, bool, error) {
	return r.FollowWith(from, ref, unityasset.ParseOptions{})
}

// FollowWith is Follow with explicit parse options for the target file.
func (r *Resolver) FollowWith(from string, ref unityasset.Ref, opts unityasset.ParseOptions) ([]unityasset.Block, bool, error) {
	if !ref.Resolved() {
		return nil, false, nil
	}

	target := r.AssetPath(ref)
	if err := r.recordEdge(r.Rel(from), target); err != nil {
		return nil, false, err
	}

	blocks, err := r.ParseFileWith(target, opts)
	if err != nil {
		return nil, false, err
	}
	return blocks, true, nil
}

func (r *Resolver) recordEdge(from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if from == to {
		return fmt.Errorf("%w: %s references itself", ErrReferenceCycle, from)
	}

	d := r.depth[from] + 1
	if d > r.maxDepth {
		return fmt.Errorf("%w: %s -> %s at depth %d", ErrReferenceDepth, from, to, d)
	}

	for _, v := range []string{from, to} {
		if err := r.refs.AddVertex(v); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return fmt.Errorf("failed to record %s: %w", v, err)
		}
	}

	if err := r.refs.AddEdge(from, to); err != nil {
		switch {
		case errors.Is(err, graph.ErrEdgeAlreadyExists):
			return nil
		case errors.Is(err, graph.ErrEdgeCreatesCycle):
			return fmt.Errorf("%w: %s -> %s", ErrReferenceCycle, from, to)
		default:
			return fmt.Errorf("failed to record %s -> %s: %w", from, to, err)
		}
	}

	if d > r.depth[to] {
		r.depth[to] = d
	}
	return nil
}

// EdgeCount returns the number of distinct file references followed so far.
func (r *Resolver) EdgeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.refs.Size()
	if err != nil {
		return 0
	}
	return n
}

// Rel returns path relative to the asset root with forward slashes.
// Paths outside the root are returned cleaned but otherwise unchanged.
func (r *Resolver) Rel(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(rel)
}

func (r *Resolver) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(r.root, filepath.FromSlash(path))
}
