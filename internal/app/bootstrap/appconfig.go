// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging, CORS and body limits; everything specific to
// Copilot lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: copilot-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Upstream services
	TritonBaseURL  string        // Triton REST base URL (entities, login)
	NeptuneBaseURL string        // Neptune REST base URL (participation, invitations)
	HTTPTimeout    time.Duration // Per-request timeout for upstream calls

	// TokenSealKey encrypts upstream tokens at rest (32+ chars).
	TokenSealKey string

	// Background workers
	RefreshInterval  time.Duration // How often invalidated teams are reloaded (0 disables)
	SnapshotInterval time.Duration // How often the cache is persisted (0 disables)
}
