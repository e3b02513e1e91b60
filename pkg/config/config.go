// Package config persists generation parameters and the traffic model
// between runs.
//
// The CLI saves the last-used configuration to a TOML file under the user
// config directory, so repeated invocations pick up where the previous one
// left off. Loading starts from defaults and overlays the file, which lets
// a hand-edited file set only the keys it cares about.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/traffic"
)

// Config bundles everything a run needs to be reproduced.
type Config struct {
	Params  network.Params `toml:"params" json:"params"`
	Traffic traffic.Model  `toml:"traffic" json:"traffic"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Params:  network.DefaultParams(),
		Traffic: traffic.DefaultModel(),
	}
}

// Validate checks both sections.
func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	return c.Traffic.Validate()
}

// Store reads and writes the configuration file.
type Store struct {
	mu   sync.RWMutex
	path string
}

// NewStore creates a store at path. If path is empty, the file lives at
// ~/.config/hypertransit/params.toml.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "hypertransit", "params.toml")
	}
	return &Store{path: path}, nil
}

// Load reads the configuration file. Missing keys keep their defaults.
// A missing file returns (nil, nil) so callers can fall back to Default.
func (s *Store) Load() (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", s.path, err)
	}
	return cfg, nil
}

// LoadOrDefault reads the configuration file, falling back to Default when
// no file exists yet.
func (s *Store) LoadOrDefault() (*Config, error) {
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return Default(), nil
	}
	return cfg, nil
}

// Save writes the configuration file, creating parent directories as needed.
func (s *Store) Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	enc := toml.NewEncoder(f)
	enc.Indent = ""
	if err := enc.Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

// Delete removes the configuration file. A missing file is not an error.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove config file: %w", err)
	}
	return nil
}

// Path returns the location of the configuration file.
func (s *Store) Path() string {
	return s.path
}
