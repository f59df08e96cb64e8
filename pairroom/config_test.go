package pairroom

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.AutoReconnect)
	assert.Equal(t, time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 30*time.Second, cfg.MaxReconnectDelay)
	assert.Equal(t, 64, cfg.SendQueueSize)
	assert.Less(t, cfg.HeartbeatInterval, cfg.HeartbeatTimeout)
}

func TestWithDefaultsFillsZeroKnobs(t *testing.T) {
	cfg := Config{URL: "ws://example/ws"}.withDefaults()
	assert.Equal(t, DefaultConfig().HeartbeatInterval, cfg.HeartbeatInterval)
	assert.Equal(t, DefaultConfig().ReconnectDelay, cfg.ReconnectDelay)
	assert.Equal(t, DefaultConfig().SendQueueSize, cfg.SendQueueSize)
	// false is a valid choice, not a zero value to repair
	assert.False(t, cfg.AutoReconnect)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`url: wss://rooms.example.com/ws
auto_reconnect: false
reconnect_delay: 250ms
max_reconnect_delay: 5s
send_queue_size: 8
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "wss://rooms.example.com/ws", cfg.URL)
	assert.False(t, cfg.AutoReconnect)
	assert.Equal(t, 250*time.Millisecond, cfg.ReconnectDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxReconnectDelay)
	assert.Equal(t, 8, cfg.SendQueueSize)
	// untouched knobs keep their defaults
	assert.Equal(t, DefaultConfig().HeartbeatInterval, cfg.HeartbeatInterval)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, NewError(ErrorConfiguration, ""))
}
