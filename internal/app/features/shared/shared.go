// Package shared holds the pieces every JSON feature handler uses: response
// writers, upstream error mapping and on-demand team loading.
package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/copilot/internal/app/clients"
	"github.com/dalemusser/copilot/internal/app/clients/neptune"
	"github.com/dalemusser/copilot/internal/app/dispatch"
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/system/apierr"
	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
)

// ErrForbidden is returned when the signed-in user may not see a team.
var ErrForbidden = errors.New("team not accessible")

// ClientSource hands out clients acting as a user.
type ClientSource interface {
	For(userID string) (*clients.Set, error)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// WriteUpstreamError maps a load or write failure to a response. Upstream
// 401/403/404/409 pass through with the upstream message; an expired scoped
// Neptune credential is a 401.
func WriteUpstreamError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	var ae *apierr.Error
	switch {
	case errors.Is(err, ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden")
		return
	case errors.Is(err, neptune.ErrScopedTokenExpired):
		WriteError(w, http.StatusUnauthorized, "participation code expired; look it up again")
		return
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn(op+": upstream timeout", zap.Error(err))
		WriteError(w, http.StatusGatewayTimeout, "upstream timeout")
		return
	case errors.As(err, &ae):
		switch ae.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict:
			WriteError(w, ae.Code, ae.Message)
			return
		}
	}
	log.Error(op+": upstream failure", zap.Error(err))
	WriteError(w, http.StatusBadGateway, "upstream failure")
}

// Teams loads teams into the cache on first use.
type Teams struct {
	D       *dispatch.Dispatcher
	Clients ClientSource
	Log     *zap.Logger
	Today   func() models.Date
}

// NewTeams constructs a Teams with the real clock.
func NewTeams(d *dispatch.Dispatcher, cs ClientSource, logger *zap.Logger) *Teams {
	return &Teams{D: d, Clients: cs, Log: logger, Today: models.Today}
}

// Ensure returns the team, loading it with u's credentials unless a
// previous load fetched all of it. A team warmed from a snapshot is served from the
// cache when the load fails and u may see it.
func (t *Teams) Ensure(ctx context.Context, teamID string, u *auth.SessionUser) (*entitycache.State, models.Team, error) {
	uid := models.LongUID(models.PrefixTeam, teamID)
	st := t.D.Cache().State()
	team, cached := st.Teams().Get(uid)
	loaded := t.D.TeamLoaded(uid)

	if cached && loaded {
		if !Allowed(st, uid, u) {
			return nil, models.Team{}, ErrForbidden
		}
		return st, team, nil
	}

	fresh, err := t.load(ctx, uid, u)
	if err != nil {
		if !cached {
			return nil, models.Team{}, err
		}
		if !Allowed(st, uid, u) {
			return nil, models.Team{}, ErrForbidden
		}
		t.Log.Warn("serving cached team after failed load",
			zap.String("team_id", uid), zap.Error(err))
		return st, team, nil
	}
	return t.D.Cache().State(), fresh, nil
}

func (t *Teams) load(ctx context.Context, uid string, u *auth.SessionUser) (models.Team, error) {
	cs, err := t.Clients.For(u.ID)
	if err != nil {
		return models.Team{}, err
	}
	team, err := dispatch.LoadTeam(ctx, t.D, cs, uid)
	if err != nil {
		return models.Team{}, err
	}
	if _, _, err := dispatch.LoadCompletion(ctx, t.D, cs.Neptune, uid, t.Today()); err != nil {
		t.Log.Warn("completion load failed", zap.String("team_id", uid), zap.Error(err))
	}
	return team, nil
}

// Allowed reports whether u may read the cached team: super admins always,
// other users when they captain it or their cached record owns it.
func Allowed(st *entitycache.State, teamID string, u *auth.SessionUser) bool {
	if u == nil {
		return false
	}
	if u.IsSuperAdmin() {
		return true
	}
	if team, ok := st.Teams().Get(teamID); ok && team.IsCaptain(u.ID) {
		return true
	}
	me, ok := st.Users().Get(u.ID)
	return ok && me.OwnsTeam(teamID)
}
