// internal/app/features/teams/handler.go
package teams

import (
	"net/http"

	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/app/routectx"
	"github.com/dalemusser/copilot/internal/app/selectors"
	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves team overviews.
type Handler struct {
	Teams *shared.Teams
	Sel   *selectors.Selectors
	Log   *zap.Logger
}

func NewHandler(teams *shared.Teams, sel *selectors.Selectors, logger *zap.Logger) *Handler {
	return &Handler{Teams: teams, Sel: sel, Log: logger}
}

// ServeSummary handles GET /teams/{teamID} and
// GET /teams/{teamID}/cycles/{parentLabel}. The second form also reports
// the visible cycle.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rc := routectx.FromRequest(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "team summary")
	defer cancel()
	st, _, err := h.Teams.Ensure(ctx, rc.TeamID, u)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "team summary", err)
		return
	}

	sum, ok := h.Sel.Summarize(st, rc, u.ID, h.Teams.Today())
	if !ok {
		shared.WriteError(w, http.StatusNotFound, "team not found")
		return
	}
	shared.WriteJSON(w, http.StatusOK, sum)
}
