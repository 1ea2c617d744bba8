// Package search provides full-text search over pickup display names and
// descriptions using an in-memory bleve index.
package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	_ "github.com/blevesearch/bleve/v2/search/highlight/highlighter/ansi"

	"github.com/mvp-joe/etg-extract/internal/catalog"
)

// Pickup kinds.
const (
	KindGun     = "gun"
	KindPassive = "passive"
	KindActive  = "active"
	KindOther   = "other"
)

const (
	defaultLimit = 15
	maxLimit     = 100
	batchSize    = 1000
)

// Document is one searchable pickup.
type Document struct {
	ID               int
	Kind             string
	Name             string
	ShortDescription string
	LongDescription  string
}

// Result is one search hit.
type Result struct {
	ID         int      `json:"id"`
	Kind       string   `json:"kind"`
	Name       string   `json:"name"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights,omitempty"`
}

// Index is a full-text index over pickups.
type Index struct {
	index bleve.Index
	mu    sync.RWMutex
}

// Documents collects a document for every encounter, plus every gun that
// has no encounter entry. Guns without a translated name fall back to
// their internal name.
func Documents(svc *catalog.Service) []Document {
	encounters := svc.Encounters.All()
	guns := svc.Guns.All()

	docs := make([]Document, 0, len(encounters)+len(guns))
	for id, e := range encounters {
		_, isGun := guns[id]
		doc := Document{
			ID:               id,
			Kind:             kindOf(e, isGun),
			Name:             e.Name,
			ShortDescription: e.ShortDescription,
			LongDescription:  e.LongDescription,
		}
		if doc.Name == "" && isGun {
			doc.Name = guns[id].Name
		}
		docs = append(docs, doc)
	}
	for id, g := range guns {
		if _, ok := encounters[id]; ok {
			continue
		}
		docs = append(docs, Document{ID: id, Kind: KindGun, Name: g.Name})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func kindOf(e catalog.Encounter, isGun bool) string {
	switch {
	case isGun:
		return KindGun
	case e.IsPassiveItem:
		return KindPassive
	case e.IsActiveItem:
		return KindActive
	}
	return KindOther
}

// NewIndex builds an in-memory index over docs.
func NewIndex(ctx context.Context, docs []Document) (*Index, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	if err := indexDocuments(ctx, index, docs); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to index documents: %w", err)
	}

	return &Index{index: index}, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	text := func() *mapping.FieldMapping {
		m := bleve.NewTextFieldMapping()
		m.Analyzer = "standard"
		m.Store = true
		m.Index = true
		m.IncludeTermVectors = true
		return m
	}

	kindMapping := bleve.NewTextFieldMapping()
	kindMapping.Analyzer = "keyword"
	kindMapping.Store = true
	kindMapping.Index = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", text())
	docMapping.AddFieldMappingsAt("short", text())
	docMapping.AddFieldMappingsAt("long", text())
	docMapping.AddFieldMappingsAt("kind", kindMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func indexDocuments(ctx context.Context, index bleve.Index, docs []Document) error {
	batch := index.NewBatch()
	for i, doc := range docs {
		if i%batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if err := batch.Index(strconv.Itoa(doc.ID), toFields(doc)); err != nil {
			return fmt.Errorf("failed to add pickup %d to batch: %w", doc.ID, err)
		}

		if batch.Size() >= batchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}
	return nil
}

func toFields(doc Document) map[string]any {
	return map[string]any{
		"name":  doc.Name,
		"short": doc.ShortDescription,
		"long":  doc.LongDescription,
		"kind":  doc.Kind,
	}
}

// Search runs a bleve query string (field scoping with name:, short:, long:
// and kind:, phrases, wildcards and fuzzy terms) and returns at most limit
// hits. A limit outside 1..100 uses the default of 15.
func (x *Index) Search(ctx context.Context, queryStr string, limit int) ([]Result, error) {
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(queryStr), limit, 0, false)
	req.Fields = []string{"name", "kind"}
	req.Highlight = bleve.NewHighlightWithStyle("ansi")
	req.Highlight.Fields = []string{"name", "short", "long"}

	x.mu.RLock()
	defer x.mu.RUnlock()

	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		name, _ := hit.Fields["name"].(string)
		kind, _ := hit.Fields["kind"].(string)
		results = append(results, Result{
			ID:         id,
			Kind:       kind,
			Name:       name,
			Score:      hit.Score,
			Highlights: highlights(hit.Fragments),
		})
	}
	return results, nil
}

// highlights flattens fragments in field order, at most three.
func highlights(fragments map[string][]string) []string {
	var out []string
	for _, field := range []string{"name", "short", "long"} {
		out = append(out, fragments[field]...)
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

// Len returns the number of indexed documents.
func (x *Index) Len() (uint64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.index.DocCount()
}

// Close releases the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.index.Close()
}
