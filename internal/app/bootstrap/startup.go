// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"github.com/dalemusser/copilot/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after the schema is in place and before the handler is
// built. It configures timeouts, warms the cache from the last snapshot
// and starts the background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{Short: appCfg.HTTPTimeout})

	warmCache(ctx, deps, logger)

	if appCfg.RefreshInterval > 0 {
		deps.Workers.Refresh = workers.NewCacheRefresh(deps.Dispatcher, deps.Clients, logger, appCfg.RefreshInterval)
		deps.Workers.Refresh.Start()
	}
	if appCfg.SnapshotInterval > 0 {
		deps.Workers.Snapshot = workers.NewSnapshotSaver(deps.Cache, deps.Snapshots, logger, appCfg.SnapshotInterval)
		deps.Workers.Snapshot.Start()
	}
	return nil
}

// warmCache imports the last snapshot. A missing or unreadable snapshot
// leaves the cache empty.
func warmCache(ctx context.Context, deps DBDeps, logger *zap.Logger) int {
	start := time.Now()
	loadCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), logger, "load snapshot")
	defer cancel()

	snap, err := deps.Snapshots.Load(loadCtx)
	if err != nil {
		logger.Warn("snapshot load failed; starting cold", zap.Error(err))
		return 0
	}
	n := workers.Warm(deps.Cache, snap, logger)
	logger.Info("cache warmed from snapshot",
		zap.Int("records", n),
		zap.Duration("took", time.Since(start)))
	return n
}
