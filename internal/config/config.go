// Package config handles loading and saving grove configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/grove/config.yaml
//   - Data:    ~/.local/share/grove/ (vault database)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoomsSortOrder controls how the rooms list is sorted.
type RoomsSortOrder string

const (
	// SortAlphabet sorts rooms lexicographically by name.
	SortAlphabet RoomsSortOrder = "alphabet"
	// SortImportance sorts rooms by unseen activity, then name.
	SortImportance RoomsSortOrder = "importance"
)

// Room holds per-room settings.
type Room struct {
	AutoJoin      bool   `yaml:"autojoin,omitempty"`
	Username      string `yaml:"username,omitempty"`
	ForceUsername bool   `yaml:"force_username,omitempty"`
	Password      string `yaml:"password,omitempty"`
}

// Config is the top-level configuration for grove.
type Config struct {
	// DataDir overrides the default vault location.
	DataDir string `yaml:"data_dir,omitempty"`
	// Ephemeral keeps the vault in memory, never touching disk.
	Ephemeral bool `yaml:"ephemeral,omitempty"`
	// Offline starts without connecting to any server.
	Offline bool `yaml:"offline,omitempty"`

	RoomsSortOrder RoomsSortOrder  `yaml:"rooms_sort_order,omitempty"`
	Rooms          map[string]Room `yaml:"rooms,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RoomsSortOrder: SortAlphabet,
		Rooms:          make(map[string]Room),
	}
}

// ConfigDir returns the XDG config directory for grove.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "grove")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "grove")
}

// DataDir returns the XDG data directory for grove.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "grove")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "grove")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist. Unknown sort orders
// fall back to the default rather than failing.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Rooms == nil {
		cfg.Rooms = make(map[string]Room)
	}
	switch cfg.RoomsSortOrder {
	case SortAlphabet, SortImportance:
	default:
		cfg.RoomsSortOrder = SortAlphabet
	}
	cfg.DataDir = expandHome(cfg.DataDir)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// VaultPath returns the path of the vault database, honoring DataDir.
func (c Config) VaultPath() string {
	dir := c.DataDir
	if dir == "" {
		dir = DataDir()
	}
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "vault.db")
}

// Room returns the settings for a room, falling back to the zero value.
func (c Config) Room(name string) Room {
	return c.Rooms[name]
}

// AutoJoinRooms returns the names of all rooms marked autojoin, in no
// particular order.
func (c Config) AutoJoinRooms() []string {
	var names []string
	for name, room := range c.Rooms {
		if room.AutoJoin {
			names = append(names, name)
		}
	}
	return names
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
