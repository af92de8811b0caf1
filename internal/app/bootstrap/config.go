// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Copilot.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, triton_base_url, etc.
//   - Environment variables: COPILOT_MONGO_URI, COPILOT_TRITON_BASE_URL, etc.
//   - Command-line flags: --mongo_uri, --triton_base_url, etc.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "copilot", Desc: "MongoDB database name"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "copilot-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie lifetime (e.g., 24h, 168h)"},

	// Upstream services
	{Name: "triton_base_url", Default: "http://localhost:8080", Desc: "Triton API base URL"},
	{Name: "neptune_base_url", Default: "http://localhost:8081", Desc: "Neptune API base URL"},
	{Name: "http_timeout", Default: "10s", Desc: "Timeout for a single upstream request"},
	{Name: "token_seal_key", Default: "dev-only-token-seal-key-0123456789ABCDEF", Desc: "Key sealing upstream tokens at rest (32+ chars)"},

	// Background workers
	{Name: "refresh_interval", Default: "1m", Desc: "Reload interval for invalidated teams (0 disables)"},
	{Name: "snapshot_interval", Default: "5m", Desc: "Cache snapshot interval (0 disables)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, COPILOT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COPILOT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 7*24*time.Hour),

		TritonBaseURL:  appValues.String("triton_base_url"),
		NeptuneBaseURL: appValues.String("neptune_base_url"),
		HTTPTimeout:    appValues.Duration("http_timeout", 10*time.Second),
		TokenSealKey:   appValues.String("token_seal_key"),

		RefreshInterval:  appValues.Duration("refresh_interval", time.Minute),
		SnapshotInterval: appValues.Duration("snapshot_interval", 5*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateBaseURL("triton_base_url", appCfg.TritonBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("neptune_base_url", appCfg.NeptuneBaseURL); err != nil {
		return err
	}
	if len(appCfg.TokenSealKey) < 32 {
		return fmt.Errorf("token_seal_key must be at least 32 characters")
	}
	if appCfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		return fmt.Errorf("session_key must be set in production")
	}
	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}
