// internal/app/features/participation/handler.go
package participation

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/app/routectx"
	"github.com/dalemusser/copilot/internal/app/rows"
	"github.com/dalemusser/copilot/internal/app/selectors"
	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler serves participation views of a team.
type Handler struct {
	Teams *shared.Teams
	Sel   *selectors.Selectors
	Log   *zap.Logger
}

func NewHandler(teams *shared.Teams, sel *selectors.Selectors, logger *zap.Logger) *Handler {
	return &Handler{Teams: teams, Sel: sel, Log: logger}
}

type participationResponse struct {
	Scope         string                  `json:"scope"`
	Cycle         *models.Cycle           `json:"cycle,omitempty"`
	Participation selectors.Participation `json:"participation"`
	Rows          []rows.ParticipationRow `json:"rows"`
}

// view is the computed participation of one team, cycle and scope.
type view struct {
	team models.Team
	participationResponse
}

// build resolves the team and computes the view for the request's scope.
// The cycle shown is the active cycle, else the current one.
func (h *Handler) build(w http.ResponseWriter, r *http.Request, op string) (view, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return view{}, false
	}
	rc := routectx.FromRequest(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, op)
	defer cancel()
	st, team, err := h.Teams.Ensure(ctx, rc.TeamID, u)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, op, err)
		return view{}, false
	}

	v := view{team: team}
	v.Scope = rc.ScopeOrDefault()
	v.Rows = []rows.ParticipationRow{}

	cycles := h.Sel.TeamCycles(st, team.UID)
	today := h.Teams.Today()
	cycle, ok := selectors.ActiveCycle(cycles, today)
	if !ok {
		cycle, ok = selectors.CurrentCycle(cycles, today)
	}
	if !ok {
		return v, true
	}
	v.Cycle = &cycle

	scoped := selectors.ScopedClassrooms(h.Sel.TeamClassrooms(st, team.UID), v.Scope, u.ID)
	v.Participation = h.Sel.DerivedParticipation(st, team.UID, v.Scope, u.ID, cycle.UID)
	if out := rows.ParticipationRows(h.Sel.TeamParticipants(st, team.UID), scoped, completion(st, cycle.UID, scoped)); out != nil {
		v.Rows = out
	}
	return v, true
}

func completion(st *entitycache.State, cycleID string, classrooms []models.Classroom) []models.CompletionRow {
	var out []models.CompletionRow
	for _, c := range classrooms {
		out = append(out, st.Completion(cycleID, c.UID)...)
	}
	return out
}

// ServeParticipation handles GET /teams/{teamID}/participation?scope=all|mine.
func (h *Handler) ServeParticipation(w http.ResponseWriter, r *http.Request) {
	v, ok := h.build(w, r, "participation")
	if !ok {
		return
	}
	shared.WriteJSON(w, http.StatusOK, v.participationResponse)
}

// ServeXLSX handles GET /teams/{teamID}/participation.xlsx and returns the
// same rows as a spreadsheet download.
func (h *Handler) ServeXLSX(w http.ResponseWriter, r *http.Request) {
	v, ok := h.build(w, r, "participation export")
	if !ok {
		return
	}

	title := v.team.Name + " participation"
	if v.Cycle != nil {
		title = fmt.Sprintf("%s participation, cycle %d", v.team.Name, v.Cycle.Ordinal)
	}
	var buf bytes.Buffer
	if err := rows.WriteRosterXLSX(&buf, title, v.Rows); err != nil {
		h.Log.Error("participation export failed", zap.String("team_id", v.team.UID), zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename(v.team, v.Scope)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func filename(team models.Team, scope string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, team.Name)
	if name == "" {
		name = models.ShortUID(team.UID)
	}
	return fmt.Sprintf("%s_participation_%s.xlsx", name, scope)
}
