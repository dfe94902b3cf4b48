// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// environment); AppConfig is everything specific to this application: the
// MongoDB connection, session cookies, the realtime backend credentials, and
// OAuth.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL used to build share links and the OAuth callback
	BaseURL string // e.g., "https://codesync.app" or "http://localhost:3000"

	// Realtime collaboration backend
	RealtimeAPIURL string // REST endpoint of the realtime backend (blank disables it)
	RealtimeSecret string // Bearer secret for the backend's REST API
	RealtimeJWTKey string // HMAC key for minting client session tokens

	// Invitations
	InviteTTL time.Duration // How long an invitation stays redeemable

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
}
