package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Decode("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "artnet", cfg.Output.Mode)
	assert.Equal(t, 200, cfg.Output.PeriodMs)
	assert.Equal(t, "turnoff", cfg.Output.OnQuit)
	assert.Equal(t, "broadcast", cfg.ArtNet.Transport)
	assert.Equal(t, 6454, cfg.ArtNet.Port)
	assert.Equal(t, "localhost:9010", cfg.OLA.Address)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestDecodeOverridesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Decode(`
[logger]
log-level = "debug"

[output]
mode = "dmx"
universes = [1, 2]
period-ms = 50
on-quit = "freeze"

[serial]
device = "/dev/ttyUSB0"

[artnet]
transport = "nodes"
network = "192.168.6.0/24"

[mqtt]
enabled = true
server = "broker.local"
`)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "dmx", cfg.Output.Mode)
	assert.Equal(t, []int{1, 2}, cfg.Output.Universes)
	assert.Equal(t, 50, cfg.Output.PeriodMs)
	assert.Equal(t, "freeze", cfg.Output.OnQuit)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Device)
	assert.Equal(t, 1000, cfg.Serial.ReadyTimeoutMs)
	assert.Equal(t, "nodes", cfg.ArtNet.Transport)
	assert.Equal(t, "192.168.6.0/24", cfg.ArtNet.Network)
	assert.Equal(t, "255.255.255.255", cfg.ArtNet.Target)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "broker.local", cfg.MQTT.Host)
	assert.Equal(t, "dmx", cfg.MQTT.Prefix)
}

func TestNewConfigFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\nuniverses = [3]\n"), 0o600))

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, cfg.Output.Universes)

	_, err = NewConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestUniverseIDs(t *testing.T) {
	t.Parallel()

	ids, err := OutputConf{Universes: []int{0, 7, 255}}.UniverseIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 7, 255}, ids)

	_, err = OutputConf{Universes: []int{256}}.UniverseIDs()
	require.Error(t, err)

	_, err = OutputConf{Universes: []int{-1}}.UniverseIDs()
	require.Error(t, err)
}
