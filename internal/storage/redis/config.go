package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings. Identities and credentials outlive lobbies so
	// players can reconnect after a lobby has expired.
	PlayerTTL time.Duration
	LobbyTTL  time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		PlayerTTL:    7 * 24 * time.Hour,
		LobbyTTL:     24 * time.Hour,
	}
}
