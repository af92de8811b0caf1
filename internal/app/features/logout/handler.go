// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"

	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// TokenRemover forgets every upstream token a user holds.
type TokenRemover interface {
	DeleteUser(ctx context.Context, userID string) error
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Tokens     TokenRemover
}

func NewHandler(sessionMgr *auth.SessionManager, tokens TokenRemover, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Tokens:     tokens,
	}
}

// ServeLogout handles POST /logout. The user's stored tokens are dropped
// and the session cookie expires. Signing out twice is not an error.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok && h.Tokens != nil {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "logout")
		defer cancel()
		if err := h.Tokens.DeleteUser(ctx, u.ID); err != nil {
			h.Log.Warn("logout: drop tokens", zap.String("user_id", u.ID), zap.Error(err))
		}
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
