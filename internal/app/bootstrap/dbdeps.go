// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/copilot/internal/app/clients"
	"github.com/dalemusser/copilot/internal/app/dispatch"
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/store/logins"
	"github.com/dalemusser/copilot/internal/app/store/snapshots"
	"github.com/dalemusser/copilot/internal/app/store/tokens"
	"github.com/dalemusser/copilot/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app. WAFFLE passes
// it by value to every hook, so shared state is held by pointer.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Tokens    *tokens.Store
	Snapshots *snapshots.Store
	Logins    *logins.Store

	Cache      *entitycache.Cache
	Dispatcher *dispatch.Dispatcher
	Clients    *clients.Factory

	Workers *Workers
}

// Workers are the background loops started in Startup and stopped in
// Shutdown.
type Workers struct {
	Refresh  *workers.CacheRefresh
	Snapshot *workers.SnapshotSaver
}
