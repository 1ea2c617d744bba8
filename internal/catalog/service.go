// Package catalog extracts the game's gameplay records from exported asset
// files: guns, projectiles, volleys, players, sprite collections, sprite
// animations, encounters and translation strings.
//
// A Service owns the GUID index, the reference resolver, the cache store
// and one repository per record kind. Repositories load concurrently in
// dependency stages so that downstream kinds (guns, encounters) can check
// references against upstream ones (projectiles, volleys, translations).
package catalog

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dominikbraun/graph"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/etg-extract/internal/cache"
	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/guidindex"
	"github.com/mvp-joe/etg-extract/internal/repository"
	"github.com/mvp-joe/etg-extract/internal/resolver"
)

// dependencies lists, per repository, the repositories its records are
// checked against.
var dependencies = map[string][]string{
	config.RepoVolleys:    {config.RepoProjectiles},
	config.RepoEncounters: {config.RepoTranslations},
	config.RepoGuns:       {config.RepoProjectiles, config.RepoVolleys},
}

// Options configures Open.
type Options struct {
	// Force ignores every cached table, including the GUID index, and
	// rescans the asset files.
	Force bool

	// Only restricts loading to these repositories plus the repositories
	// they depend on. Empty loads everything.
	Only []string

	// Progress receives per-repository progress.
	Progress repository.ProgressReporter

	// IndexProgress, if set, is called while the GUID index is scanned.
	IndexProgress func(processed, total int)
}

// loader is the non-generic part of a repository.
type loader interface {
	Name() string
	State() repository.State
	Stats() repository.Stats
	Len() int
	Load(ctx context.Context) error
	Rebuild(ctx context.Context) error
}

// Service is the loaded asset catalog.
type Service struct {
	cfg   *config.Config
	root  string
	store *cache.Store
	opts  Options
	deps  graph.Graph[string, string]

	mu       sync.RWMutex
	index    *guidindex.Index
	resolver *resolver.Resolver
	selected []string

	Translations      *repository.Repository[string, []string]
	Projectiles       *repository.Repository[string, Projectile]
	Volleys           *repository.Repository[string, Volley]
	Players           *repository.Repository[string, Player]
	SpriteCollections *repository.Repository[string, SpriteCollection]
	SpriteAnimations  *repository.Repository[string, SpriteAnimation]
	Encounters        *repository.Repository[int, Encounter]
	Guns              *repository.Repository[int, Gun]

	loaders map[string]loader
	tables  map[string]Table
}

// New builds a Service without loading anything.
func New(cfg *config.Config, opts Options) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(cfg.Assets.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve asset root: %w", err)
	}

	cacheDir := cfg.Cache.Dir
	if cacheDir == "" {
		cacheDir = cache.DefaultRoot()
	}

	if opts.Progress == nil {
		opts.Progress = &repository.NoOpProgressReporter{}
	}

	deps, err := dependencyGraph()
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:   cfg,
		root:  root,
		store: cache.NewStore(cacheDir),
		opts:  opts,
		deps:  deps,
	}

	s.Translations = repository.New(repository.Source[string, []string](&translationSource{}), s.repoOptions(config.RepoTranslations))
	s.Projectiles = repository.New(repository.Source[string, Projectile](&projectileSource{svc: s}), s.repoOptions(config.RepoProjectiles))
	s.Volleys = repository.New(repository.Source[string, Volley](&volleySource{svc: s}), s.repoOptions(config.RepoVolleys))
	s.Players = repository.New(repository.Source[string, Player](&playerSource{svc: s}), s.repoOptions(config.RepoPlayers))
	s.SpriteCollections = repository.New(repository.Source[string, SpriteCollection](&spriteCollectionSource{svc: s}), s.repoOptions(config.RepoSpriteCollections))
	s.SpriteAnimations = repository.New(repository.Source[string, SpriteAnimation](&spriteAnimationSource{svc: s}), s.repoOptions(config.RepoSpriteAnimations))
	s.Encounters = repository.New(repository.Source[int, Encounter](&encounterSource{svc: s}), s.repoOptions(config.RepoEncounters))
	s.Guns = repository.New(repository.Source[int, Gun](&gunSource{svc: s}), s.repoOptions(config.RepoGuns))

	s.loaders = map[string]loader{
		config.RepoTranslations:      s.Translations,
		config.RepoProjectiles:       s.Projectiles,
		config.RepoVolleys:           s.Volleys,
		config.RepoPlayers:           s.Players,
		config.RepoSpriteCollections: s.SpriteCollections,
		config.RepoSpriteAnimations:  s.SpriteAnimations,
		config.RepoEncounters:        s.Encounters,
		config.RepoGuns:              s.Guns,
	}
	s.tables = map[string]Table{
		config.RepoTranslations:      newTableView(s.Translations, parseStringKey),
		config.RepoProjectiles:       newTableView(s.Projectiles, parseStringKey),
		config.RepoVolleys:           newTableView(s.Volleys, parseStringKey),
		config.RepoPlayers:           newTableView(s.Players, parseStringKey),
		config.RepoSpriteCollections: newTableView(s.SpriteCollections, parseStringKey),
		config.RepoSpriteAnimations:  newTableView(s.SpriteAnimations, parseStringKey),
		config.RepoEncounters:        newTableView(s.Encounters, parseIntKey),
		config.RepoGuns:              newTableView(s.Guns, parseIntKey),
	}
	return s, nil
}

// Open builds the GUID index and loads the selected repositories.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Service, error) {
	s, err := New(cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) repoOptions(name string) repository.Options {
	return repository.Options{
		Root:     s.root,
		Store:    s.store,
		Patterns: s.cfg.SourcePatterns(name),
		Ignore:   s.cfg.Assets.Ignore,
		Policy:   repository.Policy(s.cfg.Policy(name)),
		Workers:  s.cfg.Workers,
		Progress: s.opts.Progress,
	}
}

func dependencyGraph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, name := range config.RepoNames {
		if err := g.AddVertex(name); err != nil {
			return nil, fmt.Errorf("failed to add repository %s: %w", name, err)
		}
	}
	for _, name := range config.RepoNames {
		for _, dep := range dependencies[name] {
			if err := g.AddEdge(name, dep); err != nil {
				return nil, fmt.Errorf("failed to add dependency %s -> %s: %w", name, dep, err)
			}
		}
	}
	return g, nil
}

// Load builds or restores the GUID index and loads the selected
// repositories. With Options.Force every selected table is rebuilt.
func (s *Service) Load(ctx context.Context) error {
	selected, err := s.closure(s.opts.Only)
	if err != nil {
		return err
	}

	if err := s.openIndex(ctx, s.opts.Force); err != nil {
		return err
	}

	s.mu.Lock()
	s.selected = selected
	s.mu.Unlock()

	return s.loadStages(ctx, selected, s.opts.Force)
}

// LoadIndex loads (or with force, rescans) only the GUID index and its
// resolver, leaving every repository Uninitialized.
func (s *Service) LoadIndex(ctx context.Context, force bool) error {
	return s.openIndex(ctx, force || s.opts.Force)
}

// Refresh rescans the GUID index and rebuilds every selected repository.
// Watch mode calls it after asset changes.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.openIndex(ctx, true); err != nil {
		return err
	}
	s.mu.RLock()
	selected := s.selected
	s.mu.RUnlock()
	if len(selected) == 0 {
		selected = slices.Clone(config.RepoNames)
	}
	return s.loadStages(ctx, selected, true)
}

func (s *Service) openIndex(ctx context.Context, force bool) error {
	opts := guidindex.Options{
		MetaExt:    s.cfg.Assets.MetaExt,
		OnProgress: s.opts.IndexProgress,
	}

	var (
		index *guidindex.Index
		err   error
	)
	if force {
		index, err = guidindex.Rebuild(ctx, s.store, s.root, opts)
	} else {
		index, err = guidindex.Load(ctx, s.store, s.root, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to build GUID index: %w", err)
	}

	res, err := resolver.New(index, resolver.Config{
		Root:     s.root,
		MaxDepth: s.cfg.Resolver.MaxDepth,
		LRUSize:  s.cfg.Resolver.LRUSize,
		MetaExt:  s.cfg.Assets.MetaExt,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.index = index
	s.resolver = res
	s.mu.Unlock()
	return nil
}

// closure returns the named repositories plus everything they depend on,
// in load order.
func (s *Service) closure(only []string) ([]string, error) {
	if len(only) == 0 {
		return slices.Clone(config.RepoNames), nil
	}

	want := map[string]bool{}
	for _, name := range only {
		if _, ok := s.loaders[name]; !ok {
			return nil, fmt.Errorf("%w: %s", config.ErrUnknownRepository, name)
		}
		err := graph.DFS(s.deps, name, func(v string) bool {
			want[v] = true
			return false
		})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve dependencies of %s: %w", name, err)
		}
	}

	selected := make([]string, 0, len(want))
	for _, name := range config.RepoNames {
		if want[name] {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

// stages groups repositories so that every repository comes after all of
// its dependencies. Repositories in one stage are independent.
func (s *Service) stages(selected []string) ([][]string, error) {
	order, err := graph.TopologicalSort(s.deps)
	if err != nil {
		return nil, fmt.Errorf("failed to order repositories: %w", err)
	}
	adjacency, err := s.deps.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to order repositories: %w", err)
	}

	// Edges point from a repository to its dependencies, so the
	// topological order lists dependents first.
	level := map[string]int{}
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		for dep := range adjacency[name] {
			level[name] = max(level[name], level[dep]+1)
		}
	}

	var stages [][]string
	for _, name := range selected {
		l := level[name]
		for len(stages) <= l {
			stages = append(stages, nil)
		}
		stages[l] = append(stages[l], name)
	}
	return slices.DeleteFunc(stages, func(st []string) bool { return len(st) == 0 }), nil
}

func (s *Service) loadStages(ctx context.Context, selected []string, force bool) error {
	stages, err := s.stages(selected)
	if err != nil {
		return err
	}

	for _, stage := range stages {
		g, gctx := errgroup.WithContext(ctx)
		for _, name := range stage {
			l := s.loaders[name]
			g.Go(func() error {
				if force {
					return l.Rebuild(gctx)
				}
				return l.Load(gctx)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	log.Printf("[catalog] %d repositories ready", len(selected))
	return nil
}

// res returns the resolver of the current GUID index.
func (s *Service) res() *resolver.Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver
}

// Resolver returns the reference resolver of the current GUID index.
func (s *Service) Resolver() *resolver.Resolver {
	return s.res()
}

// Index returns the current GUID index.
func (s *Service) Index() *guidindex.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Store returns the cache store.
func (s *Service) Store() *cache.Store {
	return s.store
}

// Root returns the absolute asset root.
func (s *Service) Root() string {
	return s.root
}

// Selected returns the repositories the last Load selected, in load order.
func (s *Service) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.selected)
}

// Table returns the named repository as a Table.
func (s *Service) Table(name string) (Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownRepository, name)
	}
	return t, nil
}

// Tables returns every repository in load order.
func (s *Service) Tables() []Table {
	tables := make([]Table, 0, len(config.RepoNames))
	for _, name := range config.RepoNames {
		tables = append(tables, s.tables[name])
	}
	return tables
}
