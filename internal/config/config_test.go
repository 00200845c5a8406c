package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
		require.NoError(t, err)
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, DefaultServiceName, cfg.Server.Name)
		assert.Equal(t, 5, cfg.Client.PollIntervalSeconds)
	})

	t.Run("reads values from file", func(t *testing.T) {
		path := writeConfig(t, `
[server]
name = "office-sync"
port = 9000

[client]
server = "192.168.1.20:9000"
poll_interval_seconds = 2
device = "workbench"
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "office-sync", cfg.Server.Name)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "192.168.1.20:9000", cfg.Client.Server)
		assert.Equal(t, 2, cfg.Client.PollIntervalSeconds)
		assert.Equal(t, "workbench", cfg.Client.Device)
	})

	t.Run("partial file keeps defaults for missing values", func(t *testing.T) {
		path := writeConfig(t, `
[client]
device = "workbench"
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, 5, cfg.Client.PollIntervalSeconds)
		assert.Equal(t, "workbench", cfg.Client.Device)
	})

	t.Run("rejects malformed TOML", func(t *testing.T) {
		path := writeConfig(t, `[server`)

		_, err := Load(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse TOML")
	})

	t.Run("rejects out-of-range port", func(t *testing.T) {
		path := writeConfig(t, `
[server]
port = 70000
`)

		_, err := Load(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "server.port")
	})

	t.Run("rejects non-positive poll interval", func(t *testing.T) {
		path := writeConfig(t, `
[client]
poll_interval_seconds = -1
`)

		_, err := Load(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "poll_interval_seconds")
	})
}

func TestDeviceName(t *testing.T) {
	t.Run("explicit device wins", func(t *testing.T) {
		cfg := Default()
		cfg.Client.Device = "workbench"
		assert.Equal(t, "workbench", cfg.DeviceName())
	})

	t.Run("defaults to hostname", func(t *testing.T) {
		hostname, err := os.Hostname()
		require.NoError(t, err)
		assert.Equal(t, hostname, Default().DeviceName())
	})
}
