// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package config manages the TOML config for rosterserve services.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Sync   SyncConfig   `toml:"sync"`
	Query  QueryConfig  `toml:"query"`
}

// ServerConfig has IPC server related options.
type ServerConfig struct {
	MaxLimit int `toml:"max_limit"`
	MinQuery int `toml:"min_query"`
	MaxQuery int `toml:"max_query"`
}

// StoreConfig holds local index options.
type StoreConfig struct {
	Path            string `toml:"path"`
	HotCacheEntries int    `toml:"hot_cache_entries"`
}

// SyncConfig holds snapshot sync options.
type SyncConfig struct {
	Endpoint string `toml:"endpoint"`
	TTLHours int    `toml:"ttl_hours"`
}

// QueryConfig holds debounce / result options for the UI-facing controller.
type QueryConfig struct {
	DebounceMS   int `toml:"debounce_ms"`
	DefaultLimit int `toml:"default_limit"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit: 64,
			MinQuery: 2,
			MaxQuery: 60,
		},
		Store: StoreConfig{
			Path:            "", // resolved to the user config dir at open
			HotCacheEntries: 5000,
		},
		Sync: SyncConfig{
			Endpoint: "",
			TTLHours: 24,
		},
		Query: QueryConfig{
			DebounceMS:   200,
			DefaultLimit: 10,
		},
	}
}

// DefaultStorePath resolves where the index database lives when the config
// doesn't pin one: ~/.config/rosterserve/index.db, falling back to the
// working directory.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Failed to get home directory: %v", err)
		return "index.db"
	}
	return filepath.Join(home, ".config", "rosterserve", "index.db")
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return cfg, nil
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return cfg, nil
}

// LoadConfig loads from a TOML file, layered over the defaults so missing
// keys keep their built-in values.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves into a TOML file
func SaveConfig(cfg *Config, configPath string) error {
	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", configPath, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
