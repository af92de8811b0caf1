package testutil

import (
	"errors"

	"github.com/dalemusser/copilot/internal/app/clients"
)

// ErrOffline is returned by OfflineClients.
var ErrOffline = errors.New("testutil: upstream offline")

// OfflineClients never has credentials, so handlers fall back to whatever
// the fixtures cached.
type OfflineClients struct{}

func (OfflineClients) For(userID string) (*clients.Set, error) {
	return nil, ErrOffline
}
