// Package rest is the JSON-over-HTTP plumbing shared by the Triton and
// Neptune clients: bearer transport, request ids, error mapping and the
// envelope and Link header conventions both services use.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/copilot/internal/app/system/apierr"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// RequestIDHeader correlates our logs with upstream logs.
const RequestIDHeader = "X-Request-Id"

// ErrBadBaseURL is returned for a base URL that is not absolute http(s).
var ErrBadBaseURL = errors.New("base url must be an absolute http(s) url")

// Client issues JSON requests against one upstream service.
type Client struct {
	base *url.URL
	hc   *http.Client
	log  *zap.Logger
}

// New creates a Client rooted at baseURL using hc for transport.
func New(baseURL string, hc *http.Client, logger *zap.Logger) (*Client, error) {
	u, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: u, hc: hc, log: logger}, nil
}

// ParseBaseURL validates an upstream base URL.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadBaseURL, raw)
	}
	return u, nil
}

// BearerClient returns an http.Client that asks ts for a token on every
// request. Tokens are not cached here, so a token rotated in storage is
// picked up on the next call. A nil ts yields an unauthenticated client.
func BearerClient(ts oauth2.TokenSource, timeout time.Duration) *http.Client {
	if ts == nil {
		return &http.Client{Timeout: timeout}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &oauth2.Transport{Source: ts},
	}
}

// Request describes one call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is a successful reply with the raw body kept for decoding.
type Response struct {
	Status int
	Header http.Header
	Body   json.RawMessage
}

// Do sends req and returns the body of a 2xx reply. Non-2xx replies become
// *apierr.Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(b)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.Method, req.Path, err)
	}
	hreq.Header.Set("Accept", "application/json")
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	hreq.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.hc.Do(hreq)
	if err != nil {
		c.log.Warn("upstream request failed",
			zap.String("method", req.Method),
			zap.String("path", u.Path),
			zap.String("request_id", reqID),
			zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("upstream request",
		zap.String("method", req.Method),
		zap.String("path", u.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", reqID),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierr.FromResponse(resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", req.Method, req.Path, err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// BearerToken extracts the credential from an Authorization header value.
// Both "Bearer <token>" and a bare token are accepted.
func BearerToken(h http.Header) (string, bool) {
	v := strings.TrimSpace(h.Get("Authorization"))
	if v == "" {
		return "", false
	}
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		v = strings.TrimSpace(v[7:])
	}
	return v, v != ""
}
