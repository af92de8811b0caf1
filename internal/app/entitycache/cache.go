// Package entitycache holds the normalized, per-kind client cache of Triton
// entities and Neptune completion rows.
//
// The cache is written only through the success entry points in this file
// (Queried, Got, Added, Updated, Removed, SetCompletion). Each write replaces
// whole records and publishes a new immutable State; readers take the
// current State and never block writers.
//
// Writes may carry the sequence number of the request that produced them.
// A write older than the newest write already applied for the same record
// (or the same list) is dropped, so a slow response cannot overwrite the
// result of a newer request. Sequence 0 skips that check.
package entitycache

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
)

type seqKey struct {
	kind Kind
	uid  string // "" is the kind's list
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	cur     atomic.Pointer[State]
	applied map[seqKey]uint64
	log     *zap.Logger
}

// New returns an empty cache.
func New(logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{applied: map[seqKey]uint64{}, log: logger}
	c.cur.Store(newState())
	return c
}

// State returns the current snapshot.
func (c *Cache) State() *State { return c.cur.Load() }

// write runs fn against a copy of the current state and publishes it.
func (c *Cache) write(fn func(next *State)) {
	next := c.cur.Load().copy()
	fn(next)
	c.cur.Store(next)
}

// fresh reports whether seq is not older than the last write for k, and
// records it. Callers hold c.mu.
func (c *Cache) fresh(k seqKey, seq uint64) bool {
	if seq == 0 {
		return true
	}
	if seq < c.applied[k] {
		return false
	}
	c.applied[k] = seq
	return true
}

func (c *Cache) stale(op string, kind Kind, uid string, seq uint64) {
	c.log.Debug("dropped stale cache write",
		zap.String("op", op),
		zap.String("kind", string(kind)),
		zap.String("uid", uid),
		zap.Uint64("seq", seq))
}

// Queried records the result of a list query: every item replaces its
// cached record and the list of uids becomes the kind's last-fetched list.
// When a newer list write has already been applied, fresh items are still
// stored but the list is left alone. It returns whether the list was set.
func Queried[T models.Entity](c *Cache, kind Kind, items []T, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	listed := c.fresh(seqKey{kind, ""}, seq)
	if !listed {
		c.stale("query", kind, "", seq)
	}
	c.write(func(next *State) {
		t := TableOf[T](next, kind).clone()
		uids := make([]string, 0, len(items))
		for _, item := range items {
			uid := item.Key()
			uids = append(uids, uid)
			if !c.fresh(seqKey{kind, uid}, seq) {
				c.stale("query", kind, uid, seq)
				continue
			}
			t.rows[uid] = item
		}
		if listed {
			t.listed = uids
			t.hasList = true
		}
		next.tables[kind] = t
	})
	return listed
}

// Got stores a single fetched record. The kind's list stays valid.
func Got[T models.Entity](c *Cache, kind Kind, item T, seq uint64) bool {
	return put(c, "get", kind, item, seq, false)
}

// Added stores a newly created record and invalidates the kind's list.
func Added[T models.Entity](c *Cache, kind Kind, item T, seq uint64) bool {
	return put(c, "add", kind, item, seq, true)
}

// Updated replaces a record and invalidates the kind's list.
func Updated[T models.Entity](c *Cache, kind Kind, item T, seq uint64) bool {
	return put(c, "update", kind, item, seq, true)
}

func put[T models.Entity](c *Cache, op string, kind Kind, item T, seq uint64, invalidate bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	uid := item.Key()
	if !c.fresh(seqKey{kind, uid}, seq) {
		c.stale(op, kind, uid, seq)
		return false
	}
	if invalidate {
		c.fresh(seqKey{kind, ""}, seq)
	}
	c.write(func(next *State) {
		t := TableOf[T](next, kind).clone()
		t.rows[uid] = item
		if invalidate {
			t.invalidate()
			if ts, ok := any(item).(models.TeamScoped); ok {
				next.setStale(ts.TeamKey(), true)
			}
		}
		next.tables[kind] = t
	})
	return true
}

// Removed deletes a record and invalidates the kind's list.
func Removed(c *Cache, kind Kind, uid string, seq uint64) bool {
	info, ok := registry[kind]
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fresh(seqKey{kind, uid}, seq) {
		c.stale("remove", kind, uid, seq)
		return false
	}
	c.fresh(seqKey{kind, ""}, seq)
	c.write(func(next *State) {
		r, ok := next.tables[kind].(remover)
		if !ok {
			r = info.empty().(remover)
		}
		next.setStale(r.teamOf(uid), true)
		next.tables[kind] = r.without(uid)
	})
	return true
}

type remover interface {
	without(uid string) any
	teamOf(uid string) string
}

// MarkTeamLoaded clears the team's stale flag after a full reload.
func (c *Cache) MarkTeamLoaded(teamID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cur.Load().TeamStale(teamID) {
		return
	}
	c.write(func(next *State) { next.setStale(teamID, false) })
}

func (t *Table[T]) without(uid string) any {
	n := t.clone()
	delete(n.rows, uid)
	n.invalidate()
	return n
}

// SetCompletion stores the completion rows for one cycle and classroom.
func (c *Cache) SetCompletion(cycleID, classroomID string, rows []models.CompletionRow, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := completionKey{cycleID, classroomID}
	if !c.fresh(seqKey{"completion", cycleID + "/" + classroomID}, seq) {
		c.stale("completion", "completion", cycleID+"/"+classroomID, seq)
		return false
	}
	c.write(func(next *State) {
		m := make(map[completionKey][]models.CompletionRow, len(next.completion.rows)+1)
		for k, v := range next.completion.rows {
			m[k] = v
		}
		m[key] = append([]models.CompletionRow(nil), rows...)
		next.completion = &CompletionTable{rows: m}
	})
	return true
}

// Export returns every cached record as JSON, grouped by kind.
func (c *Cache) Export() (map[Kind][]json.RawMessage, error) {
	s := c.State()
	out := make(map[Kind][]json.RawMessage, len(s.tables))
	for _, k := range Kinds {
		e, ok := s.tables[k].(exporter)
		if !ok {
			continue
		}
		raw, err := e.export()
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", k, err)
		}
		if len(raw) > 0 {
			out[k] = raw
		}
	}
	return out, nil
}

// Import merges previously exported records of one kind. Imported records
// are unsequenced and do not establish a last-fetched list.
func (c *Cache) Import(kind Kind, raw []json.RawMessage) error {
	info, ok := registry[kind]
	if !ok {
		return fmt.Errorf("import: unknown kind %q", kind)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.cur.Load().copy()
	if err := info.load(next, kind, raw); err != nil {
		return err
	}
	c.cur.Store(next)
	return nil
}
