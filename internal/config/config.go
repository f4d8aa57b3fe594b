// ABOUTME: Colony configuration management with backend selection
// ABOUTME: Handles settings, environment overrides, logger setup, and storage backend factory

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/colony/internal/charm"
	"github.com/harper/colony/internal/logging"
	"github.com/harper/colony/internal/storage"
	"go.uber.org/zap"
)

// Backend names accepted by OpenStorage.
const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
)

// Environment overrides.
const (
	EnvDataDir   = "COLONY_DATA_DIR"
	EnvLogLevel  = "COLONY_LOG_LEVEL"
	EnvCharmHost = "CHARM_HOST"
)

// DBFilename is the SQLite database filename inside the data directory.
const DBFilename = "colony.db"

// LogFilename is the default log filename inside the data directory.
const LogFilename = "colony.log"

// Config stores colony configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "charm".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/colony.
	DataDir string `json:"data_dir,omitempty"`

	// LogFile is the JSON log file. Defaults to colony.log in DataDir.
	LogFile string `json:"log_file,omitempty"`

	// LogLevel is the log file level: debug, info, warn, or error.
	LogLevel string `json:"log_level,omitempty"`

	// CompletedMarker replaces the remaining amount once a row is satisfied.
	CompletedMarker string `json:"completed_marker,omitempty"`

	// CharmHost is the Charm server used by the charm backend.
	CharmHost string `json:"charm_host,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendSQLite
	}
	return c.Backend
}

// GetDataDir returns the data directory with ~ expanded.
// COLONY_DATA_DIR wins over the file setting.
func (c *Config) GetDataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return ExpandPath(dir)
	}
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetLogFile returns the log file path, defaulting to colony.log in the data directory.
func (c *Config) GetLogFile() string {
	if c.LogFile == "" {
		return filepath.Join(c.GetDataDir(), LogFilename)
	}
	return ExpandPath(c.LogFile)
}

// GetLogLevel returns the log level. COLONY_LOG_LEVEL wins over the file setting.
func (c *Config) GetLogLevel() string {
	if level := os.Getenv(EnvLogLevel); level != "" {
		return level
	}
	if c.LogLevel == "" {
		return logging.DefaultLevel
	}
	return c.LogLevel
}

// GetCompletedMarker returns the marker rendered for satisfied rows.
func (c *Config) GetCompletedMarker() string {
	if c.CompletedMarker == "" {
		return storage.DefaultCompletedMarker
	}
	return c.CompletedMarker
}

// GetCharmHost returns the Charm server. CHARM_HOST wins over the file setting.
func (c *Config) GetCharmHost() string {
	if host := os.Getenv(EnvCharmHost); host != "" {
		return host
	}
	if c.CharmHost == "" {
		return charm.DefaultCharmHost
	}
	return c.CharmHost
}

// defaultDataDir returns the default XDG data directory for colony.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "colony")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage() (storage.Repository, error) {
	return c.OpenBackend(c.GetBackend())
}

// OpenBackend opens the named backend using this config's locations.
func (c *Config) OpenBackend(backend string) (storage.Repository, error) {
	switch backend {
	case BackendSQLite:
		return storage.NewSQLiteDB(filepath.Join(c.GetDataDir(), DBFilename))
	case BackendCharm:
		return charm.NewClient(&charm.Config{
			CharmHost: c.GetCharmHost(),
			AutoSync:  true,
		})
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// Logger builds the zap logger described by this config.
func (c *Config) Logger(verbose bool) (*zap.Logger, func(), error) {
	return logging.New(logging.Options{
		File:    c.GetLogFile(),
		Level:   c.GetLogLevel(),
		Verbose: verbose,
	})
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "colony", "config.json")
}

// Load reads config from disk, writing defaults on first run.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{Backend: BackendSQLite}
			if saveErr := cfg.Save(); saveErr != nil {
				fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", saveErr)
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

// atomicWrite writes data to a temp file beside path and renames it into place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
