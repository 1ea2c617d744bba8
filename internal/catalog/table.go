package catalog

import (
	"cmp"
	"fmt"
	"strconv"

	"github.com/mvp-joe/etg-extract/internal/repository"
)

// Table is a type-erased view of one repository, used by the CLI and the
// exporters. Keys are rendered as strings in ascending key order.
type Table interface {
	Name() string
	State() repository.State
	Stats() repository.Stats
	Len() int
	Keys() []string
	Record(key string) (any, bool)
	Rows() []Row
}

// Row is one record of a Table.
type Row struct {
	Key   string
	Value any
}

type tableView[K cmp.Ordered, V any] struct {
	repo  *repository.Repository[K, V]
	parse func(string) (K, error)
}

func newTableView[K cmp.Ordered, V any](repo *repository.Repository[K, V], parse func(string) (K, error)) *tableView[K, V] {
	return &tableView[K, V]{repo: repo, parse: parse}
}

func (t *tableView[K, V]) Name() string            { return t.repo.Name() }
func (t *tableView[K, V]) State() repository.State { return t.repo.State() }
func (t *tableView[K, V]) Stats() repository.Stats { return t.repo.Stats() }
func (t *tableView[K, V]) Len() int                { return t.repo.Len() }

func (t *tableView[K, V]) Keys() []string {
	keys := repository.SortedKeys(t.repo)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprint(k)
	}
	return out
}

func (t *tableView[K, V]) Record(key string) (any, bool) {
	k, err := t.parse(key)
	if err != nil {
		return nil, false
	}
	v, ok := t.repo.Get(k)
	if !ok {
		return nil, false
	}
	return v, true
}

func (t *tableView[K, V]) Rows() []Row {
	all := t.repo.All()
	keys := repository.SortedKeys(t.repo)
	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		v, ok := all[k]
		if !ok {
			continue
		}
		rows = append(rows, Row{Key: fmt.Sprint(k), Value: v})
	}
	return rows
}

func parseStringKey(s string) (string, error) { return s, nil }

func parseIntKey(s string) (int, error) { return strconv.Atoi(s) }
