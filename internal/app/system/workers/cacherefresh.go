// internal/app/system/workers/cacherefresh.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/copilot/internal/app/clients"
	"github.com/dalemusser/copilot/internal/app/dispatch"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
)

// ClientSource hands out clients acting as a user.
type ClientSource interface {
	For(userID string) (*clients.Set, error)
}

// CacheRefresh is a background worker that reloads a team when its last
// load was partial or a write has invalidated one of its lists, and
// refreshes completion rows for each team's current cycle.
type CacheRefresh struct {
	d        *dispatch.Dispatcher
	clients  ClientSource
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCacheRefresh creates a new cache refresh worker.
func NewCacheRefresh(d *dispatch.Dispatcher, cs ClientSource, logger *zap.Logger, interval time.Duration) *CacheRefresh {
	return &CacheRefresh{
		d:        d,
		clients:  cs,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop.
func (w *CacheRefresh) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("cache refresh worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *CacheRefresh) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("cache refresh worker stopped")
}

func (w *CacheRefresh) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RefreshOnce(context.Background(), models.Today())
		}
	}
}

// NeedsReload reports whether the team must be fetched again.
func NeedsReload(d *dispatch.Dispatcher, teamID string) bool {
	return !d.TeamLoaded(teamID) || d.Cache().State().TeamStale(teamID)
}

// RefreshOnce runs one refresh pass and returns the number of teams
// reloaded.
func (w *CacheRefresh) RefreshOnce(ctx context.Context, today models.Date) int {
	n := 0
	for teamID, userID := range w.d.TeamLoaders() {
		cs, err := w.clients.For(userID)
		if err != nil {
			w.log.Warn("refresh: no clients for user",
				zap.String("team_id", teamID),
				zap.String("user_id", userID),
				zap.Error(err))
			continue
		}

		if NeedsReload(w.d, teamID) {
			tctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), w.log, "refresh team")
			_, err = dispatch.LoadTeam(tctx, w.d, cs, teamID)
			cancel()
			if err != nil {
				w.log.Warn("refresh: team load failed", zap.String("team_id", teamID), zap.Error(err))
				continue
			}
			n++
		}

		cctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), w.log, "refresh completion")
		_, _, err = dispatch.LoadCompletion(cctx, w.d, cs.Neptune, teamID, today)
		cancel()
		if err != nil {
			w.log.Warn("refresh: completion load failed", zap.String("team_id", teamID), zap.Error(err))
		}
	}
	if n > 0 {
		w.log.Info("refreshed teams", zap.Int("count", n))
	}
	return n
}
