// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/copilot/internal/app/clients/triton"
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/app/store/tokens"
	"github.com/dalemusser/copilot/internal/app/system/apierr"
	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/app/system/ratelimit"
	"github.com/dalemusser/copilot/internal/app/system/reqvalid"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
)

const maxLoginBody = 16 << 10

// TokenWriter stores a user's upstream token.
type TokenWriter interface {
	Put(ctx context.Context, userID, name, token string) error
}

// Authenticator returns a Triton client usable before sign-in.
type Authenticator interface {
	Login() (*triton.Client, error)
}

// LoginRecorder keeps a history of successful sign-ins.
type LoginRecorder interface {
	CreateFrom(ctx context.Context, r *http.Request, userID string) error
}

type Handler struct {
	Auth       Authenticator
	Tokens     TokenWriter
	Cache      *entitycache.Cache
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Logins     LoginRecorder // optional
	Log        *zap.Logger
}

func NewHandler(a Authenticator, tw TokenWriter, cache *entitycache.Cache, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:       a,
		Tokens:     tw,
		Cache:      cache,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginResponse struct {
	User models.User `json:"user"`
}

// credentials reads email and password from a JSON body or a form post.
func credentials(r *http.Request) (triton.Credentials, error) {
	var c triton.Credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return c, err
		}
		c.Email = r.FormValue("email")
		c.Password = r.FormValue("password")
	}
	c.Email = strings.TrimSpace(c.Email)
	return c, nil
}

// HandleLoginPost handles POST /login. The Triton session token is stored
// for the user and the session cookie is set.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
	creds, err := credentials(r)
	if err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := reqvalid.Struct(creds); err != nil {
		shared.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.Limiter != nil {
		if err := h.Limiter.Check(r, creds.Email); err != nil {
			shared.WriteError(w, http.StatusTooManyRequests, err.Error())
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login")
	defer cancel()

	tc, err := h.Auth.Login()
	if err != nil {
		h.Log.Error("login: triton client", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "login unavailable")
		return
	}
	token, user, err := tc.Login(ctx, creds)
	switch {
	case apierr.IsUnauthorized(err) || apierr.Code(err) == http.StatusForbidden:
		h.Log.Info("login rejected", zap.String("email", creds.Email))
		shared.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	case errors.Is(err, triton.ErrNoToken):
		h.Log.Error("login: no token in reply", zap.String("email", creds.Email))
		shared.WriteError(w, http.StatusBadGateway, "upstream failure")
		return
	case err != nil:
		shared.WriteUpstreamError(w, h.Log, "login", err)
		return
	}

	if err := h.Tokens.Put(ctx, user.UID, tokens.Triton, token); err != nil {
		h.Log.Error("login: store token", zap.String("user_id", user.UID), zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}
	entitycache.Got(h.Cache, entitycache.KindUser, user, 0)

	su := auth.SessionUser{ID: user.UID, Name: user.Name, Email: user.Email, UserType: user.UserType}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if h.Limiter != nil {
		h.Limiter.Succeeded(creds.Email)
	}
	if h.Logins != nil {
		if err := h.Logins.CreateFrom(ctx, r, user.UID); err != nil {
			h.Log.Warn("login: record sign-in", zap.String("user_id", user.UID), zap.Error(err))
		}
	}

	h.Log.Info("user signed in", zap.String("user_id", user.UID))
	shared.WriteJSON(w, http.StatusOK, loginResponse{User: user})
}
