// Package selectors derives view state from the entity cache and the route
// context: the active team and its collections, the active/current/visible
// cycle, participation percentages and response lookups.
//
// Every function here is pure. Selectors memoizes the collection
// projections on table pointers, which change only when that kind of
// entity is written, so repeated reads of an unchanged cache are free.
package selectors

import (
	"sort"

	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/routectx"
	"github.com/dalemusser/copilot/internal/app/system/memo"
	"github.com/dalemusser/copilot/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Selectors holds the memoized projections. Use one instance per process.
type Selectors struct {
	teamCycles       func(*entitycache.Table[models.Cycle], string) []models.Cycle
	teamClassrooms   func(*entitycache.Table[models.Classroom], string) []models.Classroom
	teamParticipants func(*entitycache.Table[models.Participant], string) []models.Participant
	teamUsers        func(*entitycache.Table[models.User], string) []models.User
	teamReports      func(*entitycache.Table[models.Report], string) []models.Report
	derived          func(*entitycache.Table[models.Classroom], *entitycache.CompletionTable, derivedKey) int
}

type derivedKey struct {
	teamID  string
	scope   string
	userID  string
	cycleID string
}

// New builds a Selectors with empty memo tables.
func New() *Selectors {
	s := &Selectors{
		teamCycles:       memo.Func2(teamCycles),
		teamClassrooms:   memo.Func2(teamClassrooms),
		teamParticipants: memo.Func2(teamParticipants),
		teamUsers:        memo.Func2(teamUsers),
		teamReports:      memo.Func2(teamReports),
	}
	s.derived = memo.Func3(func(rooms *entitycache.Table[models.Classroom], comp *entitycache.CompletionTable, k derivedKey) int {
		scoped := ScopedClassrooms(s.teamClassrooms(rooms, k.teamID), k.scope, k.userID)
		return ParticipationPercentDerived(comp, scoped, k.cycleID)
	})
	return s
}

// Team returns the route's team.
func (s *Selectors) Team(st *entitycache.State, rc routectx.Context) (models.Team, bool) {
	if rc.TeamID == "" {
		return models.Team{}, false
	}
	return st.Teams().Get(models.LongUID(models.PrefixTeam, rc.TeamID))
}

// TeamCycles returns the team's cycles in ordinal order.
func (s *Selectors) TeamCycles(st *entitycache.State, teamID string) []models.Cycle {
	return s.teamCycles(st.Cycles(), teamID)
}

// TeamClassrooms returns the team's classrooms ordered by name.
func (s *Selectors) TeamClassrooms(st *entitycache.State, teamID string) []models.Classroom {
	return s.teamClassrooms(st.Classrooms(), teamID)
}

// TeamParticipants returns the team's participants.
func (s *Selectors) TeamParticipants(st *entitycache.State, teamID string) []models.Participant {
	return s.teamParticipants(st.Participants(), teamID)
}

// TeamUsers returns the users that own the team.
func (s *Selectors) TeamUsers(st *entitycache.State, teamID string) []models.User {
	return s.teamUsers(st.Users(), teamID)
}

// TeamReports returns the team's reports, team and classroom level.
func (s *Selectors) TeamReports(st *entitycache.State, teamID string) []models.Report {
	return s.teamReports(st.Reports(), teamID)
}

// TeamProgram returns the team's program.
func (s *Selectors) TeamProgram(st *entitycache.State, team models.Team) (models.Program, bool) {
	return st.Programs().Get(team.ProgramID)
}

// Classroom returns the route's classroom if it belongs to the team.
func (s *Selectors) Classroom(st *entitycache.State, rc routectx.Context) (models.Classroom, bool) {
	c, ok := st.Classrooms().Get(models.LongUID(models.PrefixClassroom, rc.ClassroomID))
	if !ok || (rc.TeamID != "" && c.TeamID != models.LongUID(models.PrefixTeam, rc.TeamID)) {
		return models.Classroom{}, false
	}
	return c, true
}

// DerivedParticipation recomputes participation for the team's classrooms
// in the given scope during one cycle.
func (s *Selectors) DerivedParticipation(st *entitycache.State, teamID, scope, userID, cycleID string) Participation {
	k := derivedKey{teamID: teamID, scope: scope, userID: userID, cycleID: cycleID}
	return NewParticipation(s.derived(st.Classrooms(), st.CompletionRows(), k))
}

func teamCycles(t *entitycache.Table[models.Cycle], teamID string) []models.Cycle {
	out := t.Filter(func(c models.Cycle) bool { return c.TeamID == teamID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

func teamClassrooms(t *entitycache.Table[models.Classroom], teamID string) []models.Classroom {
	out := t.Filter(func(c models.Classroom) bool { return c.TeamID == teamID })
	sort.SliceStable(out, func(i, j int) bool { return text.Fold(out[i].Name) < text.Fold(out[j].Name) })
	return out
}

func teamParticipants(t *entitycache.Table[models.Participant], teamID string) []models.Participant {
	return t.Filter(func(p models.Participant) bool { return p.TeamID == teamID })
}

func teamUsers(t *entitycache.Table[models.User], teamID string) []models.User {
	return t.Filter(func(u models.User) bool { return u.OwnsTeam(teamID) })
}

func teamReports(t *entitycache.Table[models.Report], teamID string) []models.Report {
	return t.Filter(func(r models.Report) bool { return r.TeamID == teamID })
}
