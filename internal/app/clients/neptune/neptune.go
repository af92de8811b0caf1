// Package neptune is the client for the Neptune survey service:
// participation codes, completion rows, accounts and invitations.
//
// Neptune hands out a narrowly scoped credential in the Authorization
// header of a participation code lookup. That token, not the user's
// session token, is what the account and invitation endpoints accept.
package neptune

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/copilot/internal/app/clients/rest"
	"github.com/dalemusser/copilot/internal/app/system/apierr"
	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ScopedTokenName is the storage name of the scoped credential.
const ScopedTokenName = "neptune"

// TokenSink receives the scoped credential when Neptune issues one.
type TokenSink interface {
	Put(ctx context.Context, name, token string) error
}

// ErrNoScopedToken is returned when a participation code lookup does not
// carry a credential.
var ErrNoScopedToken = errors.New("neptune: no scoped token in response")

// ErrScopedTokenExpired is returned before a scoped call when the stored
// credential has expired. A fresh participation code lookup issues a new one.
var ErrScopedTokenExpired = errors.New("neptune: scoped token expired")

// Client talks to Neptune on behalf of one user.
type Client struct {
	session *rest.Client
	scoped  *rest.Client
	anon    *rest.Client
	sink    TokenSink
	log     *zap.Logger

	scopedSrc oauth2.TokenSource
	now       func() time.Time
}

// Config wires a Client.
type Config struct {
	BaseURL string
	// Session is the user's Triton session token, accepted by Neptune for
	// team and classroom scoped reads.
	Session oauth2.TokenSource
	// Scoped is the stored scoped credential.
	Scoped  oauth2.TokenSource
	Sink    TokenSink
	Timeout time.Duration
}

// New creates a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	log := logger.With(zap.String("upstream", "neptune"))
	session, err := rest.New(cfg.BaseURL, rest.BearerClient(cfg.Session, cfg.Timeout), log)
	if err != nil {
		return nil, err
	}
	scoped, err := rest.New(cfg.BaseURL, rest.BearerClient(cfg.Scoped, cfg.Timeout), log)
	if err != nil {
		return nil, err
	}
	anon, err := rest.New(cfg.BaseURL, rest.BearerClient(nil, cfg.Timeout), log)
	if err != nil {
		return nil, err
	}
	return &Client{
		session:   session,
		scoped:    scoped,
		anon:      anon,
		sink:      cfg.Sink,
		log:       log,
		scopedSrc: cfg.Scoped,
		now:       time.Now,
	}, nil
}

// ParticipationCode is a classroom's survey entry code.
type ParticipationCode struct {
	Code           string `json:"code"`
	OrganizationID string `json:"organization_id"`
	PortalType     string `json:"portal_type"`
}

// ParticipationCode looks up a code without authentication and stores the
// scoped credential the reply carries.
func (c *Client) ParticipationCode(ctx context.Context, code string) (ParticipationCode, error) {
	resp, err := c.anon.Do(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   "/api/participation_codes/" + url.PathEscape(code),
	})
	if err != nil {
		return ParticipationCode{}, fmt.Errorf("participation code %q: %w", code, err)
	}
	out, err := rest.DecodeOne[ParticipationCode](resp.Body, "participation_codes")
	if err != nil {
		return ParticipationCode{}, fmt.Errorf("participation code %q: %w", code, err)
	}

	token, ok := rest.BearerToken(resp.Header)
	if !ok {
		return out, ErrNoScopedToken
	}
	if claims, err := InspectScopedToken(token); err == nil {
		c.log.Debug("scoped token issued",
			zap.String("scope", claims.Scope),
			zap.Time("expires_at", claims.ExpiresAt))
	}
	if c.sink != nil {
		if err := c.sink.Put(ctx, ScopedTokenName, token); err != nil {
			return out, fmt.Errorf("store scoped token: %w", err)
		}
	}
	return out, nil
}

// CompletionRows returns per-participant survey progress for one cycle in
// one classroom.
func (c *Client) CompletionRows(ctx context.Context, cycleID, classroomID string) ([]models.CompletionRow, error) {
	resp, err := c.session.Do(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   "/api/completion",
		Query:  url.Values{"cycle_id": {cycleID}, "classroom_id": {classroomID}},
	})
	if err != nil {
		return nil, fmt.Errorf("completion %s/%s: %w", cycleID, classroomID, err)
	}
	rows, err := rest.DecodeList[models.CompletionRow](resp.Body, "completion")
	if err != nil {
		return nil, fmt.Errorf("completion %s/%s: %w", cycleID, classroomID, err)
	}
	return rows, nil
}

// checkScoped fails fast when the stored scoped credential carries an expiry
// that has passed. Missing or opaque credentials are left for Neptune to
// reject.
func (c *Client) checkScoped() error {
	if c.scopedSrc == nil {
		return nil
	}
	tok, err := c.scopedSrc.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return nil
	}
	claims, err := InspectScopedToken(tok.AccessToken)
	if err != nil {
		return nil
	}
	if claims.Expired(c.now()) {
		c.log.Debug("scoped token expired", zap.Time("expires_at", claims.ExpiresAt))
		return ErrScopedTokenExpired
	}
	return nil
}

// AccountExists reports whether Neptune knows an account for email.
func (c *Client) AccountExists(ctx context.Context, email string) (bool, error) {
	if err := c.checkScoped(); err != nil {
		return false, fmt.Errorf("account %q: %w", email, err)
	}
	_, err := c.scoped.Do(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   "/api/accounts/" + url.PathEscape(email),
	})
	switch {
	case err == nil:
		return true, nil
	case apierr.IsNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("account %q: %w", email, err)
	}
}

// Invitation asks Neptune to email someone a link to join a team.
type Invitation struct {
	Email     string `json:"email"`
	TeamID    string `json:"team_id"`
	InviterID string `json:"inviter_id"`
	Message   string `json:"message,omitempty"`
}

// SendInvitation posts an invitation.
func (c *Client) SendInvitation(ctx context.Context, inv Invitation) error {
	if err := c.checkScoped(); err != nil {
		return fmt.Errorf("invite %q: %w", inv.Email, err)
	}
	if _, err := c.scoped.Do(ctx, rest.Request{Method: http.MethodPost, Path: "/api/invitations", Body: inv}); err != nil {
		return fmt.Errorf("invite %q: %w", inv.Email, err)
	}
	return nil
}
