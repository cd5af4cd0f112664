// Package config loads server configuration: struct defaults, overlaid
// by an optional YAML file, overlaid by command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// LobbyConfig configures the lobby server
type LobbyConfig struct {
	// ListenAddr is the HTTP listen address
	ListenAddr string `koanf:"listen_addr"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `koanf:"log_level"`

	Redis RedisConfig `koanf:"redis"`
}

// RedisConfig configures optional Redis-backed storage. When disabled
// the lobby server keeps all state in memory.
type RedisConfig struct {
	Enabled      bool          `koanf:"enabled"`
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	PlayerTTL    time.Duration `koanf:"player_ttl"`
	LobbyTTL     time.Duration `koanf:"lobby_ttl"`
}

// GameConfig configures a game server
type GameConfig struct {
	// ListenAddr is the websocket listen address for game clients
	ListenAddr string `koanf:"listen_addr"`
	// PublishAddress is the address advertised to the lobby server for
	// clients to connect to; defaults to ListenAddr
	PublishAddress string `koanf:"publish_address"`
	// LobbyURL is the lobby server's game-registration websocket endpoint
	LobbyURL string `koanf:"lobby_url"`
	// CourseDir optionally holds YAML course definitions
	CourseDir string `koanf:"course_dir"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `koanf:"log_level"`

	// TickRate is the simulation frequency in Hz
	TickRate int `koanf:"tick_rate"`

	// HandshakeAttempts bounds retries of the lobby registration
	// handshake; exhausting it is fatal
	HandshakeAttempts int `koanf:"handshake_attempts"`
	// HandshakeInterval is the fixed delay between handshake attempts
	HandshakeInterval time.Duration `koanf:"handshake_interval"`
}

// DefaultLobbyConfig returns the lobby server defaults
func DefaultLobbyConfig() LobbyConfig {
	return LobbyConfig{
		ListenAddr: ":8080",
		LogLevel:   "info",
		Redis: RedisConfig{
			Enabled:      false,
			URL:          "redis://localhost:6379",
			PoolSize:     10,
			MinIdleConns: 2,
			PlayerTTL:    7 * 24 * time.Hour,
			LobbyTTL:     24 * time.Hour,
		},
	}
}

// DefaultGameConfig returns the game server defaults
func DefaultGameConfig() GameConfig {
	return GameConfig{
		ListenAddr:        ":4000",
		LobbyURL:          "ws://localhost:8080/ws/game",
		LogLevel:          "info",
		TickRate:          128,
		HandshakeAttempts: 5,
		HandshakeInterval: 10 * time.Second,
	}
}

// LoadLobby loads lobby server configuration. path may be empty; flags
// may be nil.
func LoadLobby(path string, flags *pflag.FlagSet) (LobbyConfig, error) {
	cfg := DefaultLobbyConfig()
	if err := load(path, flags, &cfg); err != nil {
		return LobbyConfig{}, err
	}
	return cfg, nil
}

// LoadGame loads game server configuration. path may be empty; flags
// may be nil.
func LoadGame(path string, flags *pflag.FlagSet) (GameConfig, error) {
	cfg := DefaultGameConfig()
	if err := load(path, flags, &cfg); err != nil {
		return GameConfig{}, err
	}
	if cfg.PublishAddress == "" {
		cfg.PublishAddress = cfg.ListenAddr
	}
	return cfg, nil
}

func load(path string, flags *pflag.FlagSet, out any) error {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file: %w", err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return fmt.Errorf("loading flags: %w", err)
		}
	}

	// Defaults are pre-populated in out; only set keys override them
	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("unmarshalling config: %w", err)
	}
	return nil
}
