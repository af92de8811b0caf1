// internal/app/entitycache/state.go
package entitycache

import (
	"encoding/json"
	"fmt"

	"github.com/dalemusser/copilot/internal/domain/models"
)

type completionKey struct {
	cycleID     string
	classroomID string
}

// CompletionTable holds completion rows by cycle and classroom. Like a
// Table it is never modified once published; a write replaces it.
type CompletionTable struct {
	rows map[completionKey][]models.CompletionRow
}

// Completion returns the rows for a cycle and classroom. Missing entries
// yield nil.
func (t *CompletionTable) Completion(cycleID, classroomID string) []models.CompletionRow {
	if t == nil {
		return nil
	}
	return t.rows[completionKey{cycleID, classroomID}]
}

// State is one immutable snapshot of the cache. Untouched tables are shared
// between consecutive snapshots, so a table pointer changes only when that
// kind was written.
//
// stale holds the teams whose lists were invalidated by an add, update or
// remove of one of their records since the team was last loaded.
type State struct {
	tables     map[Kind]any
	completion *CompletionTable
	stale      map[string]bool
}

func newState() *State {
	s := &State{
		tables:     make(map[Kind]any, len(registry)),
		completion: &CompletionTable{rows: map[completionKey][]models.CompletionRow{}},
		stale:      map[string]bool{},
	}
	for k, info := range registry {
		s.tables[k] = info.empty()
	}
	return s
}

func (s *State) copy() *State {
	n := &State{
		tables:     make(map[Kind]any, len(s.tables)),
		completion: s.completion,
		stale:      s.stale,
	}
	for k, t := range s.tables {
		n.tables[k] = t
	}
	return n
}

// TableOf returns the table for kind k. A kind/type mismatch yields an
// empty table.
func TableOf[T models.Entity](s *State, k Kind) *Table[T] {
	if s == nil {
		return &Table[T]{}
	}
	if t, ok := s.tables[k].(*Table[T]); ok {
		return t
	}
	return &Table[T]{}
}

func (s *State) Classrooms() *Table[models.Classroom] {
	return TableOf[models.Classroom](s, KindClassroom)
}
func (s *State) Cycles() *Table[models.Cycle]       { return TableOf[models.Cycle](s, KindCycle) }
func (s *State) Teams() *Table[models.Team]         { return TableOf[models.Team](s, KindTeam) }
func (s *State) Responses() *Table[models.Response] { return TableOf[models.Response](s, KindResponse) }
func (s *State) Reports() *Table[models.Report]     { return TableOf[models.Report](s, KindReport) }
func (s *State) Users() *Table[models.User]         { return TableOf[models.User](s, KindUser) }
func (s *State) Programs() *Table[models.Program]   { return TableOf[models.Program](s, KindProgram) }

func (s *State) Participants() *Table[models.Participant] {
	return TableOf[models.Participant](s, KindParticipant)
}

// Completion returns the cached completion rows for a cycle and classroom.
// Missing entries yield nil.
func (s *State) Completion(cycleID, classroomID string) []models.CompletionRow {
	if s == nil {
		return nil
	}
	return s.completion.Completion(cycleID, classroomID)
}

// CompletionRows returns the completion table. Its pointer changes only
// when completion rows are written.
func (s *State) CompletionRows() *CompletionTable {
	if s == nil {
		return nil
	}
	return s.completion
}

// TeamStale reports whether a write has invalidated any of the team's lists
// since it was last marked loaded.
func (s *State) TeamStale(teamID string) bool {
	if s == nil {
		return false
	}
	return s.stale[teamID]
}

func (s *State) setStale(teamID string, stale bool) {
	if teamID == "" || s.stale[teamID] == stale {
		return
	}
	m := make(map[string]bool, len(s.stale)+1)
	for k, v := range s.stale {
		m[k] = v
	}
	if stale {
		m[teamID] = true
	} else {
		delete(m, teamID)
	}
	s.stale = m
}

func importInto[T models.Entity](s *State, k Kind, raw []json.RawMessage) error {
	t := TableOf[T](s, k).clone()
	for i, b := range raw {
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("decode %s record %d: %w", k, i, err)
		}
		if v.Key() == "" {
			return fmt.Errorf("decode %s record %d: missing uid", k, i)
		}
		t.rows[v.Key()] = v
	}
	s.tables[k] = t
	return nil
}

type sized interface {
	Len() int
	LastFetched() ([]string, bool)
}

// Counts returns the number of cached records per non-empty kind.
func (s *State) Counts() map[string]int {
	out := map[string]int{}
	for k, t := range s.tables {
		if n := t.(sized).Len(); n > 0 {
			out[string(k)] = n
		}
	}
	return out
}

// HasList reports whether kind k has a valid last-fetched list.
func (s *State) HasList(k Kind) bool {
	t, ok := s.tables[k].(sized)
	if !ok {
		return false
	}
	_, listed := t.LastFetched()
	return listed
}
