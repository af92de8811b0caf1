// Package clients builds per-user upstream clients whose bearer tokens are
// read from the token store on every request.
package clients

import (
	"fmt"
	"time"

	"github.com/dalemusser/copilot/internal/app/clients/neptune"
	"github.com/dalemusser/copilot/internal/app/clients/triton"
	"github.com/dalemusser/copilot/internal/app/store/tokens"
	"go.uber.org/zap"
)

// Set is the pair of clients acting for one user.
type Set struct {
	UserID  string
	Triton  *triton.Client
	Neptune *neptune.Client
}

// Factory creates client sets.
type Factory struct {
	TritonURL  string
	NeptuneURL string
	Tokens     *tokens.Store
	Timeout    time.Duration
	Log        *zap.Logger
}

// For returns clients authenticated as userID.
func (f *Factory) For(userID string) (*Set, error) {
	user := f.Tokens.For(userID)
	session := user.Source(tokens.Triton, f.Timeout)

	tc, err := triton.New(f.TritonURL, session, f.Timeout, f.Log)
	if err != nil {
		return nil, fmt.Errorf("triton client: %w", err)
	}
	nc, err := neptune.New(neptune.Config{
		BaseURL: f.NeptuneURL,
		Session: session,
		Scoped:  user.Source(tokens.Neptune, f.Timeout),
		Sink:    user,
		Timeout: f.Timeout,
	}, f.Log)
	if err != nil {
		return nil, fmt.Errorf("neptune client: %w", err)
	}
	return &Set{UserID: userID, Triton: tc, Neptune: nc}, nil
}

// Login returns an unauthenticated Triton client for signing in.
func (f *Factory) Login() (*triton.Client, error) {
	return triton.New(f.TritonURL, nil, f.Timeout, f.Log)
}
