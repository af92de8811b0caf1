// internal/app/selectors/summary.go
package selectors

import (
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/routectx"
	"github.com/dalemusser/copilot/internal/domain/models"
)

// Summary is everything the team overview shows.
type Summary struct {
	Team            models.Team     `json:"team"`
	Program         *models.Program `json:"program,omitempty"`
	Cycles          []models.Cycle  `json:"cycles"`
	ActiveCycle     *models.Cycle   `json:"active_cycle,omitempty"`
	CurrentCycle    *models.Cycle   `json:"current_cycle,omitempty"`
	VisibleCycle    *models.Cycle   `json:"visible_cycle,omitempty"`
	Scheduled       bool            `json:"scheduled"`
	ProgramComplete bool            `json:"program_complete"`
	CanAddCycle     bool            `json:"can_add_cycle"`

	// Participation comes from the server's count for the active cycle.
	Participation Participation `json:"participation"`
	// DerivedAll and DerivedMine are recomputed from classroom completion
	// rows for the active cycle.
	DerivedAll  Participation `json:"derived_all"`
	DerivedMine Participation `json:"derived_mine"`
}

// Summarize builds the team summary for the route's team as seen by userID.
// ok is false when the team is not cached.
func (s *Selectors) Summarize(st *entitycache.State, rc routectx.Context, userID string, today models.Date) (Summary, bool) {
	team, ok := s.Team(st, rc)
	if !ok {
		return Summary{}, false
	}
	cycles := s.TeamCycles(st, team.UID)
	out := Summary{
		Team:      team,
		Cycles:    cycles,
		Scheduled: Scheduled(cycles),
	}

	if p, ok := s.TeamProgram(st, team); ok {
		out.Program = &p
		out.ProgramComplete = ProgramComplete(p, cycles, today)
		out.CanAddCycle = CanAddCycle(p, cycles)
	}
	if c, ok := ActiveCycle(cycles, today); ok {
		out.ActiveCycle = &c
		out.Participation = NewParticipation(ParticipationPercent(team, c))
		out.DerivedAll = s.DerivedParticipation(st, team.UID, routectx.ScopeAll, userID, c.UID)
		out.DerivedMine = s.DerivedParticipation(st, team.UID, routectx.ScopeMine, userID, c.UID)
	}
	if c, ok := CurrentCycle(cycles, today); ok {
		out.CurrentCycle = &c
	}
	if c, ok := VisibleCycle(st, rc); ok && c.TeamID == team.UID {
		out.VisibleCycle = &c
	}
	return out, true
}
