package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLobbyDefaults(t *testing.T) {
	cfg, err := LoadLobby("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 7*24*time.Hour, cfg.Redis.PlayerTTL)
}

func TestLoadLobbyFromFile(t *testing.T) {
	content := `
listen_addr: ":9999"
redis:
  enabled: true
  url: redis://cache:6379
`
	path := filepath.Join(t.TempDir(), "lobby.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadLobby(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis://cache:6379", cfg.Redis.URL)
	// Untouched keys keep their defaults
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestFlagsOverrideFile(t *testing.T) {
	content := "listen_addr: \":9999\"\n"
	path := filepath.Join(t.TempDir(), "lobby.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen_addr", "", "")
	require.NoError(t, flags.Parse([]string{"--listen_addr", ":7777"}))

	cfg, err := LoadLobby(path, flags)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.ListenAddr)
}

func TestLoadGameDefaults(t *testing.T) {
	cfg, err := LoadGame("", nil)
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.TickRate)
	assert.Equal(t, 5, cfg.HandshakeAttempts)
	assert.Equal(t, 10*time.Second, cfg.HandshakeInterval)
	// Publish address falls back to the listen address
	assert.Equal(t, cfg.ListenAddr, cfg.PublishAddress)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := LoadLobby("/nonexistent/config.yaml", nil)
	assert.Error(t, err)
}
