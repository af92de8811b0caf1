// Package triton is the client for the Triton program-management API.
//
// Entities are served under /api/<plural>[/<uid>]. Lists come back bare or
// wrapped in an envelope keyed by the plural name, with Link header
// pagination on admin queries.
package triton

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/copilot/internal/app/clients/rest"
	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Client talks to Triton on behalf of one user.
type Client struct {
	api  *rest.Client
	anon *rest.Client
}

// New creates a Client. ts supplies the user's bearer token; it may be nil
// for a client only used to log in.
func New(baseURL string, ts oauth2.TokenSource, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	log := logger.With(zap.String("upstream", "triton"))
	api, err := rest.New(baseURL, rest.BearerClient(ts, timeout), log)
	if err != nil {
		return nil, err
	}
	anon, err := rest.New(baseURL, rest.BearerClient(nil, timeout), log)
	if err != nil {
		return nil, err
	}
	return &Client{api: api, anon: anon}, nil
}

// Page is one page of a list query.
type Page[T any] struct {
	Items []T
	Links rest.Links
}

func entityPath(plural, uid string) string {
	if uid == "" {
		return "/api/" + plural
	}
	return "/api/" + plural + "/" + url.PathEscape(uid)
}

// Query lists entities of one kind, filtered by params.
func Query[T any](ctx context.Context, c *Client, plural string, params url.Values) (Page[T], error) {
	resp, err := c.api.Do(ctx, rest.Request{Method: http.MethodGet, Path: entityPath(plural, ""), Query: params})
	if err != nil {
		return Page[T]{}, fmt.Errorf("query %s: %w", plural, err)
	}
	items, err := rest.DecodeList[T](resp.Body, plural)
	if err != nil {
		return Page[T]{}, fmt.Errorf("query %s: %w", plural, err)
	}
	return Page[T]{Items: items, Links: rest.ParseLinks(resp.Header)}, nil
}

// QueryAll follows next links until the last page. Triton's next links
// repeat the original filter, so only the page cursor is taken from them.
func QueryAll[T any](ctx context.Context, c *Client, plural string, params url.Values) ([]T, error) {
	var out []T
	q := params
	for {
		page, err := Query[T](ctx, c, plural, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if !page.Links.HasNext() {
			return out, nil
		}
		next, err := url.Parse(page.Links.Next)
		if err != nil {
			return nil, fmt.Errorf("query %s: bad next link: %w", plural, err)
		}
		q = next.Query()
	}
}

// Get fetches one entity.
func Get[T any](ctx context.Context, c *Client, plural, uid string) (T, error) {
	return one[T](ctx, c, http.MethodGet, plural, uid, nil)
}

// Add creates an entity and returns Triton's copy of it.
func Add[T any](ctx context.Context, c *Client, plural string, item T) (T, error) {
	return one[T](ctx, c, http.MethodPost, plural, "", item)
}

// Update replaces an entity and returns Triton's copy of it. A concurrent
// modification is reported as an *apierr.Error with code 409.
func Update[T models.Entity](ctx context.Context, c *Client, plural string, item T) (T, error) {
	return one[T](ctx, c, http.MethodPut, plural, item.Key(), item)
}

// Remove deletes an entity.
func Remove(ctx context.Context, c *Client, plural, uid string) error {
	if _, err := c.api.Do(ctx, rest.Request{Method: http.MethodDelete, Path: entityPath(plural, uid)}); err != nil {
		return fmt.Errorf("remove %s %s: %w", plural, uid, err)
	}
	return nil
}

func one[T any](ctx context.Context, c *Client, method, plural, uid string, body any) (T, error) {
	var zero T
	resp, err := c.api.Do(ctx, rest.Request{Method: method, Path: entityPath(plural, uid), Body: body})
	if err != nil {
		return zero, fmt.Errorf("%s %s %s: %w", method, plural, uid, err)
	}
	out, err := rest.DecodeOne[T](resp.Body, plural)
	if err != nil {
		return zero, fmt.Errorf("%s %s %s: %w", method, plural, uid, err)
	}
	return out, nil
}

// Credentials are what a user types to sign in.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates against Triton. The session token comes back in the
// Authorization response header and the user record in the body.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, models.User, error) {
	resp, err := c.anon.Do(ctx, rest.Request{Method: http.MethodPost, Path: "/api/login", Body: creds})
	if err != nil {
		return "", models.User{}, fmt.Errorf("login: %w", err)
	}
	token, ok := rest.BearerToken(resp.Header)
	if !ok {
		return "", models.User{}, ErrNoToken
	}
	user, err := rest.DecodeOne[models.User](resp.Body, "users")
	if err != nil {
		return "", models.User{}, fmt.Errorf("login: %w", err)
	}
	return token, user, nil
}
