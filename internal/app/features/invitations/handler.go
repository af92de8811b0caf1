// internal/app/features/invitations/handler.go
package invitations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/copilot/internal/app/clients/neptune"
	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/app/routectx"
	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/app/system/reqvalid"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxInviteBody = 16 << 10

// Handler serves participation code lookups and team invitations, both
// backed by Neptune.
type Handler struct {
	Teams *shared.Teams
	Log   *zap.Logger
}

func NewHandler(teams *shared.Teams, logger *zap.Logger) *Handler {
	return &Handler{Teams: teams, Log: logger}
}

// ServeCode handles GET /participation-codes/{code}. A successful lookup
// stores the scoped credential Neptune returns for later account checks.
func (h *Handler) ServeCode(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		shared.WriteError(w, http.StatusBadRequest, "code is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "participation code")
	defer cancel()

	cs, err := h.Teams.Clients.For(u.ID)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "participation code", err)
		return
	}
	pc, err := cs.Neptune.ParticipationCode(ctx, code)
	if errors.Is(err, neptune.ErrNoScopedToken) {
		h.Log.Warn("participation code without scoped token", zap.String("code", code))
		err = nil
	}
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "participation code", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, pc)
}

type inviteRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"max=2000"`
}

type inviteResponse struct {
	Email         string `json:"email"`
	AccountExists bool   `json:"account_exists"`
	Sent          bool   `json:"sent"`
}

// HandleInvite handles POST /teams/{teamID}/invitations. Someone who
// already has a Neptune account is not emailed again.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req inviteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInviteBody)).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := reqvalid.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "invite")
	defer cancel()

	rc := routectx.FromRequest(r)
	_, team, err := h.Teams.Ensure(ctx, rc.TeamID, u)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "invite", err)
		return
	}
	cs, err := h.Teams.Clients.For(u.ID)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "invite", err)
		return
	}

	out := inviteResponse{Email: req.Email}
	out.AccountExists, err = cs.Neptune.AccountExists(ctx, req.Email)
	if err != nil {
		shared.WriteUpstreamError(w, h.Log, "invite", err)
		return
	}
	if !out.AccountExists {
		inv := neptune.Invitation{Email: req.Email, TeamID: team.UID, InviterID: u.ID, Message: req.Message}
		if err := cs.Neptune.SendInvitation(ctx, inv); err != nil {
			shared.WriteUpstreamError(w, h.Log, "invite", err)
			return
		}
		out.Sent = true
		h.Log.Info("invitation sent", zap.String("team_id", team.UID), zap.String("inviter_id", u.ID))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
