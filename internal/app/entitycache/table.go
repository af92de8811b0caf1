// internal/app/entitycache/table.go
package entitycache

import (
	"encoding/json"
	"sort"

	"github.com/dalemusser/copilot/internal/domain/models"
)

// Table is an immutable id -> record mapping for one kind. A Table is never
// modified after it is published in a State; writers clone it first.
type Table[T models.Entity] struct {
	rows    map[string]T
	listed  []string
	hasList bool
}

func newTable[T models.Entity]() any { return &Table[T]{} }

// Get returns the record with the given uid.
func (t *Table[T]) Get(uid string) (T, bool) {
	var zero T
	if t == nil {
		return zero, false
	}
	v, ok := t.rows[uid]
	return v, ok
}

// Len returns the number of cached records.
func (t *Table[T]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// All returns every record ordered by uid.
func (t *Table[T]) All() []T {
	if t == nil {
		return nil
	}
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.rows[k])
	}
	return out
}

// Filter returns the records for which keep is true, ordered by uid.
func (t *Table[T]) Filter(keep func(T) bool) []T {
	var out []T
	for _, v := range t.All() {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// LastFetched returns the uids of the most recent list query. ok is false
// when no list is cached or it was invalidated by a later write.
func (t *Table[T]) LastFetched() (uids []string, ok bool) {
	if t == nil || !t.hasList {
		return nil, false
	}
	return t.listed, true
}

// teamOf returns the team of the cached record uid, or "" when the record
// is missing or not team scoped.
func (t *Table[T]) teamOf(uid string) string {
	v, ok := t.Get(uid)
	if !ok {
		return ""
	}
	if ts, ok := any(v).(models.TeamScoped); ok {
		return ts.TeamKey()
	}
	return ""
}

func (t *Table[T]) clone() *Table[T] {
	n := &Table[T]{rows: make(map[string]T, t.Len()+1)}
	if t == nil {
		return n
	}
	for k, v := range t.rows {
		n.rows[k] = v
	}
	n.listed = t.listed
	n.hasList = t.hasList
	return n
}

func (t *Table[T]) invalidate() {
	t.listed = nil
	t.hasList = false
}

func (t *Table[T]) export() ([]json.RawMessage, error) {
	all := t.All()
	out := make([]json.RawMessage, 0, len(all))
	for _, v := range all {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

type exporter interface {
	export() ([]json.RawMessage, error)
}
