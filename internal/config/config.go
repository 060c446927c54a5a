// Package config loads pipstale's optional TOML config file. Every
// field has a flag counterpart; flags set on the command line win.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config mirrors the file layout:
//
//	[index]
//	json = "https://pypi.org/pypi"
//	simple = "https://pypi.org/simple"
//	timeout = "10s"
//
//	[cache]
//	enabled = true
//	dir = "/tmp/pipstale"
//	ttl = "24h"
type Config struct {
	Index IndexConfig `toml:"index"`
	Cache CacheConfig `toml:"cache"`
}

type IndexConfig struct {
	JSON    string   `toml:"json"`
	Simple  string   `toml:"simple"`
	Timeout duration `toml:"timeout"`
}

type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	Dir     string   `toml:"dir"`
	TTL     duration `toml:"ttl"`
}

// duration accepts "10s" / "24h" strings in TOML.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Timeout returns the configured lookup timeout, 0 when unset.
func (c *Config) Timeout() time.Duration { return time.Duration(c.Index.Timeout) }

// CacheTTL returns the configured cache lifetime, 0 when unset.
func (c *Config) CacheTTL() time.Duration { return time.Duration(c.Cache.TTL) }

// Path returns the config file location following the XDG convention
// (~/.config/pipstale/config.toml unless XDG_CONFIG_HOME overrides).
func Path() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "pipstale", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(home, ".config", "pipstale", "config.toml"), nil
}

// Load reads the config file. A missing file is not an error: the
// zero Config is returned and flags supply everything.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file at an explicit path.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
