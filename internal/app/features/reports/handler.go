// internal/app/features/reports/handler.go
package reports

import (
	"net/http"

	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/app/routectx"
	"github.com/dalemusser/copilot/internal/app/rows"
	"github.com/dalemusser/copilot/internal/app/selectors"
	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves a team's report files grouped by week.
type Handler struct {
	Teams *shared.Teams
	Sel   *selectors.Selectors
	Log   *zap.Logger
}

// NewHandler constructs a reports Handler.
func NewHandler(teams *shared.Teams, sel *selectors.Selectors, logger *zap.Logger) *Handler {
	return &Handler{Teams: teams, Sel: sel, Log: logger}
}

type reportsResponse struct {
	Weeks []rows.ReportWeek `json:"weeks"`
}

// ServeReports handles GET /teams/{teamID}/reports. Super admins see
// every classroom's reports; other users only classrooms they are the
// contact for.
func (h *Handler) ServeReports(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rc := routectx.FromRequest(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "reports")
	defer cancel()
	st, team, err := h.Teams.Ensure(ctx, rc.TeamID, u)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "reports", err)
		return
	}

	classrooms := map[string]models.Classroom{}
	for _, c := range h.Sel.TeamClassrooms(st, team.UID) {
		classrooms[c.UID] = c
	}
	weeks := rows.GroupReports(h.Sel.TeamReports(st, team.UID), team, classrooms,
		rows.Viewer{UserID: u.ID, IsAdmin: u.IsSuperAdmin()})
	if weeks == nil {
		weeks = []rows.ReportWeek{}
	}
	shared.WriteJSON(w, http.StatusOK, reportsResponse{Weeks: weeks})
}

// ServeClassroomReports handles GET /teams/{teamID}/classrooms/{classroomID}/reports:
// the classroom's own reports, grouped by week under the same visibility
// rules as the team listing.
func (h *Handler) ServeClassroomReports(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rc := routectx.FromRequest(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "classroom reports")
	defer cancel()
	st, team, err := h.Teams.Ensure(ctx, rc.TeamID, u)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "classroom reports", err)
		return
	}
	room, ok := h.Sel.Classroom(st, rc)
	if !ok {
		shared.WriteError(w, http.StatusNotFound, "classroom not found")
		return
	}

	var own []models.Report
	for _, rep := range h.Sel.TeamReports(st, team.UID) {
		if rep.ClassroomID == room.UID {
			own = append(own, rep)
		}
	}
	weeks := rows.GroupReports(own, team, map[string]models.Classroom{room.UID: room},
		rows.Viewer{UserID: u.ID, IsAdmin: u.IsSuperAdmin()})
	if weeks == nil {
		weeks = []rows.ReportWeek{}
	}
	shared.WriteJSON(w, http.StatusOK, reportsResponse{Weeks: weeks})
}
