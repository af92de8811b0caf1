// internal/app/system/workers/snapshotsaver.go
package workers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// SnapshotStore persists cache exports keyed by kind.
type SnapshotStore interface {
	Save(ctx context.Context, snap map[string][]json.RawMessage) (int, error)
}

// SnapshotSaver is a background worker that periodically persists the
// entity cache, with a final save on Stop.
type SnapshotSaver struct {
	cache    *entitycache.Cache
	store    SnapshotStore
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewSnapshotSaver creates a new snapshot worker.
func NewSnapshotSaver(cache *entitycache.Cache, store SnapshotStore, logger *zap.Logger, interval time.Duration) *SnapshotSaver {
	return &SnapshotSaver{
		cache:    cache,
		store:    store,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background save loop.
func (w *SnapshotSaver) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("snapshot worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop, waits for it, and saves once more.
func (w *SnapshotSaver) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	if err := w.SaveOnce(context.Background()); err != nil {
		w.log.Error("final snapshot failed", zap.Error(err))
	}
	w.log.Info("snapshot worker stopped")
}

func (w *SnapshotSaver) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.SaveOnce(context.Background()); err != nil {
				w.log.Error("snapshot failed", zap.Error(err))
			}
		}
	}
}

// SaveOnce exports the cache and persists it.
func (w *SnapshotSaver) SaveOnce(ctx context.Context) error {
	exp, err := w.cache.Export()
	if err != nil {
		return err
	}
	snap := make(map[string][]json.RawMessage, len(exp))
	for k, v := range exp {
		snap[string(k)] = v
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), w.log, "save snapshot")
	defer cancel()
	n, err := w.store.Save(ctx, snap)
	if err != nil {
		return err
	}
	w.log.Debug("snapshot saved", zap.Int("records", n))
	return nil
}

// Warm imports a saved snapshot into the cache. Unknown kinds are logged
// and skipped.
func Warm(cache *entitycache.Cache, snap map[string][]json.RawMessage, logger *zap.Logger) int {
	n := 0
	for kind, raw := range snap {
		if err := cache.Import(entitycache.Kind(kind), raw); err != nil {
			logger.Warn("snapshot import skipped", zap.String("kind", kind), zap.Error(err))
			continue
		}
		n += len(raw)
	}
	return n
}
