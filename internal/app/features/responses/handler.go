// internal/app/features/responses/handler.go
package responses

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/copilot/internal/app/dispatch"
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/app/routectx"
	"github.com/dalemusser/copilot/internal/app/selectors"
	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/app/system/htmlsanitize"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"github.com/dalemusser/copilot/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxResponseBody = 1 << 20

// Handler serves module responses.
type Handler struct {
	Teams *shared.Teams
	Sel   *selectors.Selectors
	Log   *zap.Logger
}

func NewHandler(teams *shared.Teams, sel *selectors.Selectors, logger *zap.Logger) *Handler {
	return &Handler{Teams: teams, Sel: sel, Log: logger}
}

type moduleResponse struct {
	ParentID        string            `json:"parent_id"`
	ModuleLabel     string            `json:"module_label"`
	TeamResponse    *models.Response  `json:"team_response"`
	MyResponse      *models.Response  `json:"my_response"`
	Responses       []models.Response `json:"responses"`
	PercentComplete int               `json:"percent_complete"`
}

// ServeCycleModule handles
// GET /teams/{teamID}/cycles/{parentLabel}/modules/{moduleLabel}/responses.
func (h *Handler) ServeCycleModule(w http.ResponseWriter, r *http.Request) {
	h.serveModule(w, r, func(label string) string { return models.LongUID(models.PrefixCycle, label) })
}

// ServeStepModule handles
// GET /teams/{teamID}/steps/{parentLabel}/modules/{moduleLabel}/responses.
// Step labels are used as parent ids unchanged.
func (h *Handler) ServeStepModule(w http.ResponseWriter, r *http.Request) {
	h.serveModule(w, r, func(label string) string { return label })
}

func (h *Handler) serveModule(w http.ResponseWriter, r *http.Request, parentID func(string) string) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rc := routectx.FromRequest(r)
	if rc.ParentLabel == "" || rc.ModuleLabel == "" {
		shared.WriteError(w, http.StatusBadRequest, "parent and module are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "module responses")
	defer cancel()
	st, team, err := h.Teams.Ensure(ctx, rc.TeamID, u)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "module responses", err)
		return
	}

	parent := parentID(rc.ParentLabel)
	out := moduleResponse{ParentID: parent, ModuleLabel: rc.ModuleLabel}
	table := st.Responses()
	if tr, ok := selectors.TeamResponse(selectors.ResponsesFor(table, team.UID, parent), rc.ModuleLabel); ok {
		out.TeamResponse = &tr
	}
	if mr, ok := selectors.UserResponse(table, u.ID, team.UID, rc.ModuleLabel, parent); ok {
		out.MyResponse = &mr
	}
	out.Responses = selectors.ModuleResponses(table, team.UID, rc.ModuleLabel, parent)
	if out.Responses == nil {
		out.Responses = []models.Response{}
	}
	out.PercentComplete = selectors.ModulePercentComplete(out.Responses, h.Sel.TeamUsers(st, team.UID))
	shared.WriteJSON(w, http.StatusOK, out)
}

type updateRequest struct {
	Body     map[string]models.FieldValue `json:"body"`
	Progress *int                         `json:"progress"`
}

var errBadProgress = errors.New("progress must be between 0 and 100")

func (req updateRequest) apply(resp models.Response) (models.Response, error) {
	if req.Progress != nil {
		if *req.Progress < 0 || *req.Progress > 100 {
			return resp, errBadProgress
		}
		resp.Progress = *req.Progress
	}
	clean, err := htmlsanitize.SanitizeBody(req.Body)
	if err != nil {
		return resp, err
	}
	body := make(map[string]models.FieldValue, len(resp.Body)+len(clean))
	for k, v := range resp.Body {
		body[k] = v
	}
	for k, v := range clean {
		body[k] = v
	}
	resp.Body = body
	return resp, nil
}

// HandleUpdate handles PUT /responses/{responseID}. Submitted body values
// are sanitized and merged over the stored ones. A 409 from Triton is
// passed through and the cached response is left as it was.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	uid := models.LongUID(models.PrefixResponse, strings.TrimSpace(chi.URLParam(r, "responseID")))
	if uid == "" {
		shared.WriteError(w, http.StatusBadRequest, "response id is required")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxResponseBody)).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update response")
	defer cancel()

	cs, err := h.Teams.Clients.For(u.ID)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "update response", err)
		return
	}
	d := h.Teams.D
	current, ok := d.Cache().State().Responses().Get(uid)
	if !ok {
		current, err = dispatch.Get[models.Response](ctx, d, cs.Triton, entitycache.KindResponse, uid)
		if err != nil {
			shared.WriteUpstreamError(w, h.Log, "update response", err)
			return
		}
	}

	if !shared.Allowed(d.Cache().State(), current.TeamID, u) {
		shared.WriteError(w, http.StatusForbidden, "forbidden")
		return
	}
	if owner, isUser := current.Owner.UserID(); isUser && owner != u.ID && !u.IsSuperAdmin() {
		shared.WriteError(w, http.StatusForbidden, "response belongs to another user")
		return
	}

	next, err := req.apply(current)
	if err != nil {
		shared.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := dispatch.Update(ctx, d, cs.Triton, entitycache.KindResponse, next)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "update response", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, saved)
}
