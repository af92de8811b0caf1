// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"net/http"

	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/app/store/logins"
	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
)

const recentLogins = 5

// LoginLister reads a user's sign-in history.
type LoginLister interface {
	Recent(ctx context.Context, userID string, limit int64) ([]logins.Record, error)
}

// Handler serves user information for the current session.
type Handler struct {
	Cache  *entitycache.Cache
	Logins LoginLister
	Log    *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(cache *entitycache.Cache, ll LoginLister, logger *zap.Logger) *Handler {
	return &Handler{Cache: cache, Logins: ll, Log: logger}
}

type userInfo struct {
	IsAuthenticated bool            `json:"isAuthenticated"`
	User            *models.User    `json:"user"`
	RecentLogins    []logins.Record `json:"recent_logins"`
}

// ServeUserInfo returns the current user's authentication status, the
// cached user record and the latest sign-ins. Signed-out callers get
// isAuthenticated false rather than an error.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		shared.WriteJSON(w, http.StatusOK, userInfo{RecentLogins: []logins.Record{}})
		return
	}

	out := userInfo{IsAuthenticated: true, RecentLogins: []logins.Record{}}
	if u, ok := h.Cache.State().Users().Get(su.ID); ok {
		out.User = &u
	} else {
		out.User = &models.User{UID: su.ID, Name: su.Name, Email: su.Email, UserType: su.UserType}
	}

	if h.Logins != nil {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "recent logins")
		defer cancel()
		recs, err := h.Logins.Recent(ctx, su.ID, recentLogins)
		if err != nil {
			h.Log.Warn("userinfo: recent logins", zap.String("user_id", su.ID), zap.Error(err))
		} else {
			out.RecentLogins = recs
		}
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
