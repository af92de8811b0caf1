// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/copilot/internal/app/clients"
	"github.com/dalemusser/copilot/internal/app/dispatch"
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/store/logins"
	"github.com/dalemusser/copilot/internal/app/store/snapshots"
	"github.com/dalemusser/copilot/internal/app/store/tokens"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
	"github.com/dalemusser/copilot/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and builds the cache, dispatcher and
// client factory that the rest of the app shares.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	return newDeps(client, db, appCfg, logger), nil
}

func newDeps(client *mongo.Client, db *mongo.Database, appCfg AppConfig, logger *zap.Logger) DBDeps {
	tok := tokens.New(db, appCfg.TokenSealKey)
	cache := entitycache.New(logger)
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Tokens:        tok,
		Snapshots:     snapshots.New(db),
		Logins:        logins.New(db),
		Cache:         cache,
		Dispatcher:    dispatch.New(cache, logger),
		Clients: &clients.Factory{
			TritonURL:  appCfg.TritonBaseURL,
			NeptuneURL: appCfg.NeptuneBaseURL,
			Tokens:     tok,
			Timeout:    appCfg.HTTPTimeout,
			Log:        logger,
		},
		Workers: &Workers{},
	}
}

// EnsureSchema creates collections, validators and indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}
	if err := deps.Tokens.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure token indexes: %w", err)
	}
	if err := deps.Snapshots.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure snapshot indexes: %w", err)
	}
	if err := deps.Logins.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure login indexes: %w", err)
	}
	logger.Info("schema ready")
	return nil
}
