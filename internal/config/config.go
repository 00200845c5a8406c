// Package config loads and validates the gop configuration file.
//
// The file lives at ~/.gop/config.toml and every value has a sensible
// default, so a missing file is not an error: the CLI works out of the box
// and flags override anything the file sets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultServiceName is the mDNS instance name the server advertises when
// the config does not override it.
const DefaultServiceName = "gop-local-sync"

// Config represents the top-level config.toml.
type Config struct {
	Server ServerConfig `toml:"server"`
	Client ClientConfig `toml:"client"`
}

// ServerConfig holds server daemon settings.
type ServerConfig struct {
	Name   string `toml:"name"`    // mDNS instance name to advertise
	Port   int    `toml:"port"`    // HTTP + WebSocket listen port
	DBPath string `toml:"db_path"` // SQLite database file
}

// ClientConfig holds settings for the CLI commands and the sync agent.
type ClientConfig struct {
	Server              string `toml:"server"`                // host:port of the server; empty = discover via mDNS
	PollIntervalSeconds int    `toml:"poll_interval_seconds"` // clipboard poll interval for gop sync
	Device              string `toml:"device"`                // device display name; empty = hostname
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:   DefaultServiceName,
			Port:   8000,
			DBPath: filepath.Join(baseDir(), "sync.db"),
		},
		Client: ClientConfig{
			PollIntervalSeconds: 5,
		},
	}
}

// DefaultPath returns the expected location of config.toml.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.toml")
}

// BaseDir returns the gop data directory (~/.gop). The server creates it
// on startup; client commands only read from it.
func BaseDir() string {
	return baseDir()
}

// baseDir falls back to a relative .gop directory if the home directory
// cannot be determined.
func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gop"
	}
	return filepath.Join(home, ".gop")
}

// Load reads and validates the config file at path. A missing file yields
// the defaults; a present but malformed or invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero values left by a partial config file.
func (c *Config) applyDefaults() {
	def := Default()

	if c.Server.Name == "" {
		c.Server.Name = def.Server.Name
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = def.Server.DBPath
	}
	if c.Client.PollIntervalSeconds == 0 {
		c.Client.PollIntervalSeconds = def.Client.PollIntervalSeconds
	}
}

// Validate performs strict validation on the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Client.PollIntervalSeconds < 1 {
		return fmt.Errorf("client.poll_interval_seconds must be >= 1, got %d", c.Client.PollIntervalSeconds)
	}

	return nil
}

// DeviceName returns the configured device display name, defaulting to the
// host's network name.
func (c *Config) DeviceName() string {
	if c.Client.Device != "" {
		return c.Client.Device
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "unknown-device"
	}
	return hostname
}
