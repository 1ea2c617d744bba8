// Package repository turns matching asset files into an in-memory table of
// validated records, persisted through the cache store.
//
// A Repository drives one Source through discovery, a cheap substring
// pre-filter, parallel extraction and table insertion. A non-empty cached
// table is adopted as-is and the source is never consulted.
package repository

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/etg-extract/internal/cache"
)

var (
	// ErrValidation marks records or files rejected by validation. The
	// repository's Policy decides whether they are skipped or abort the load.
	ErrValidation = errors.New("validation failed")

	// ErrLoadFailed indicates a load aborted; the repository is Failed.
	ErrLoadFailed = errors.New("load failed")
)

// State is the lifecycle state of a Repository.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Policy decides what happens to records that fail validation.
type Policy string

const (
	// PolicySkip logs the failure, drops the record and continues.
	PolicySkip Policy = "skip"
	// PolicyAbort logs the failure and fails the whole load.
	PolicyAbort Policy = "abort"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicySkip || p == PolicyAbort
}

// Entry is one extracted record. An entry with Err set was rejected;
// Key identifies it in logs.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

// Accept builds an accepted entry.
func Accept[K comparable, V any](key K, value V) Entry[K, V] {
	return Entry[K, V]{Key: key, Value: value}
}

// Reject builds a rejected entry. err is wrapped with ErrValidation.
func Reject[K comparable, V any](key K, err error) Entry[K, V] {
	if !errors.Is(err, ErrValidation) {
		err = fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return Entry[K, V]{Key: key, Err: err}
}

// Source extracts records of one kind from asset files.
type Source[K comparable, V any] interface {
	// Name is the repository and cache table name.
	Name() string

	// Patterns are the default candidate globs relative to the asset root.
	Patterns() []string

	// Prefilter lists substrings that must all appear in a candidate file
	// before it is parsed. Empty means every candidate is parsed.
	Prefilter() []string

	// Extract parses one file and returns its records. A returned error
	// wrapping ErrValidation rejects the whole file under the policy; any
	// other error aborts the load.
	Extract(ctx context.Context, path string, content []byte) ([]Entry[K, V], error)
}

// Options configures a Repository.
type Options struct {
	Root     string
	Store    *cache.Store
	Patterns []string // Overrides Source.Patterns when non-empty
	Ignore   []string
	Policy   Policy // Defaults to PolicySkip
	Workers  int    // Defaults to runtime.NumCPU()
	Progress ProgressReporter
}

// Stats summarizes the last load.
type Stats struct {
	FromCache  bool
	Candidates int
	Parsed     int // Candidates that passed the pre-filter
	Entries    int
	Skipped    int
	Duplicates int
	Duration   time.Duration
}

// Repository is a lazily loaded key → record table for one Source.
type Repository[K comparable, V any] struct {
	src  Source[K, V]
	opts Options

	mu    sync.RWMutex
	state State
	table map[K]V
	stats Stats
	err   error
	done  chan struct{}
}

// New creates an Uninitialized repository.
func New[K comparable, V any](src Source[K, V], opts Options) *Repository[K, V] {
	if opts.Policy == "" {
		opts.Policy = PolicySkip
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Progress == nil {
		opts.Progress = &NoOpProgressReporter{}
	}
	if opts.Store == nil {
		opts.Store = cache.NewStore("")
	}
	return &Repository[K, V]{
		src:   src,
		opts:  opts,
		table: map[K]V{},
	}
}

// Name returns the source name.
func (r *Repository[K, V]) Name() string {
	return r.src.Name()
}

// State returns the lifecycle state.
func (r *Repository[K, V]) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Stats returns statistics of the last finished load.
func (r *Repository[K, V]) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Start begins loading in the background. Calling Start on a repository
// that is not Uninitialized does nothing.
func (r *Repository[K, V]) Start(ctx context.Context) {
	r.mu.Lock()
	if r.state != Uninitialized {
		r.mu.Unlock()
		return
	}
	r.state = Loading
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.run(ctx, false)
}

// Wait blocks until the current load finishes and returns its error.
// An Uninitialized repository returns immediately with no error.
func (r *Repository[K, V]) Wait(ctx context.Context) error {
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Load starts loading if needed and waits for it.
func (r *Repository[K, V]) Load(ctx context.Context) error {
	r.Start(ctx)
	return r.Wait(ctx)
}

// Rebuild ignores the cache, rescans the asset files and overwrites the
// cached table. An in-flight load is waited for first.
func (r *Repository[K, V]) Rebuild(ctx context.Context) error {
	if err := r.Wait(ctx); err != nil && ctx.Err() != nil {
		return err
	}

	r.mu.Lock()
	r.state = Loading
	r.done = make(chan struct{})
	r.mu.Unlock()

	r.run(ctx, true)
	return r.Wait(ctx)
}

func (r *Repository[K, V]) run(ctx context.Context, force bool) {
	start := time.Now()
	table, stats, err := r.load(ctx, force)
	stats.Duration = time.Since(start)

	r.mu.Lock()
	defer r.mu.Unlock()
	defer close(r.done)

	r.stats = stats
	if err != nil {
		r.state = Failed
		r.table = map[K]V{}
		r.err = fmt.Errorf("%w: %s: %w", ErrLoadFailed, r.src.Name(), err)
		return
	}
	r.table = table
	r.err = nil
	r.state = Ready
	r.opts.Progress.OnComplete(r.src.Name(), stats)
}

func (r *Repository[K, V]) load(ctx context.Context, force bool) (map[K]V, Stats, error) {
	name := r.src.Name()

	if !force {
		if cached := cache.Restore[K, V](r.opts.Store, name); len(cached) > 0 {
			r.opts.Progress.OnCacheHit(name, len(cached))
			return cached, Stats{FromCache: true, Entries: len(cached)}, nil
		}
	}

	patterns := r.opts.Patterns
	if len(patterns) == 0 {
		patterns = r.src.Patterns()
	}
	discovery, err := NewFileDiscovery(r.opts.Root, patterns, r.opts.Ignore)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("invalid pattern: %w", err)
	}
	files, err := discovery.Discover()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to discover files: %w", err)
	}
	r.opts.Progress.OnDiscoveryComplete(name, len(files))

	b := newBuilder[K, V](name, r.opts.Policy)
	b.stats.Candidates = len(files)
	prefilter := r.src.Prefilter()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			defer r.opts.Progress.OnFileProcessed(name, file)

			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			if !containsAll(content, prefilter) {
				return nil
			}
			b.markParsed()

			entries, err := r.src.Extract(gctx, file, content)
			if err != nil {
				return b.rejectFile(file, err)
			}
			return b.insert(i, file, entries)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, b.stats, err
	}

	if err := cache.Save(r.opts.Store, name, b.table); err != nil {
		log.Printf("Warning: failed to save %s cache: %v", name, err)
	}
	b.stats.Entries = len(b.table)
	log.Printf("[%s] extracted %d entries from %d files", name, len(b.table), b.stats.Parsed)
	return b.table, b.stats, nil
}

// builder collects entries from concurrent workers. When two files produce
// the same key, the file later in discovery order wins.
type builder[K comparable, V any] struct {
	name   string
	policy Policy

	mu     sync.Mutex
	table  map[K]V
	origin map[K]int
	files  map[K]string
	stats  Stats
}

func newBuilder[K comparable, V any](name string, policy Policy) *builder[K, V] {
	return &builder[K, V]{
		name:   name,
		policy: policy,
		table:  map[K]V{},
		origin: map[K]int{},
		files:  map[K]string{},
	}
}

func (b *builder[K, V]) markParsed() {
	b.mu.Lock()
	b.stats.Parsed++
	b.mu.Unlock()
}

func (b *builder[K, V]) rejectFile(file string, err error) error {
	if !errors.Is(err, ErrValidation) || b.policy == PolicyAbort {
		log.Printf("[%s] failed on %s: %v", b.name, file, err)
		return err
	}
	log.Printf("Warning: [%s] skipping %s: %v", b.name, file, err)
	b.mu.Lock()
	b.stats.Skipped++
	b.mu.Unlock()
	return nil
}

func (b *builder[K, V]) insert(index int, file string, entries []Entry[K, V]) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range entries {
		if e.Err != nil {
			if b.policy == PolicyAbort {
				log.Printf("[%s] invalid record %v in %s: %v", b.name, e.Key, file, e.Err)
				return fmt.Errorf("%s: record %v: %w", file, e.Key, e.Err)
			}
			log.Printf("Warning: [%s] skipping record %v in %s: %v", b.name, e.Key, file, e.Err)
			b.stats.Skipped++
			continue
		}

		if prev, dup := b.origin[e.Key]; dup {
			b.stats.Duplicates++
			if prev > index {
				log.Printf("Warning: [%s] duplicate key %v: keeping %s over %s", b.name, e.Key, b.files[e.Key], file)
				continue
			}
			log.Printf("Warning: [%s] duplicate key %v: %s replaces %s", b.name, e.Key, file, b.files[e.Key])
		}
		b.table[e.Key] = e.Value
		b.origin[e.Key] = index
		b.files[e.Key] = file
	}
	return nil
}

func containsAll(content []byte, substrings []string) bool {
	for _, s := range substrings {
		if !bytes.Contains(content, []byte(s)) {
			return false
		}
	}
	return true
}

// Get returns the record for key. It never blocks and never triggers a
// load: a repository that is not Ready has no records.
func (r *Repository[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != Ready {
		var zero V
		return zero, false
	}
	v, ok := r.table[key]
	return v, ok
}

// Len returns the number of records.
func (r *Repository[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != Ready {
		return 0
	}
	return len(r.table)
}

// Keys returns all keys in no particular order.
func (r *Repository[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]K, 0, len(r.table))
	if r.state != Ready {
		return keys
	}
	for k := range r.table {
		keys = append(keys, k)
	}
	return keys
}

// All returns a copy of the table.
func (r *Repository[K, V]) All() map[K]V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[K]V, len(r.table))
	if r.state != Ready {
		return out
	}
	for k, v := range r.table {
		out[k] = v
	}
	return out
}

// SortedKeys returns the keys of an ordered-key repository in ascending order.
func SortedKeys[K cmp.Ordered, V any](r *Repository[K, V]) []K {
	keys := r.Keys()
	slices.Sort(keys)
	return keys
}
