package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/logger"
)

// Store backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Remote listing modes
const (
	// RemoteBackend lists folders through the sync backend's HTTP API
	RemoteBackend = "backend"
	// RemoteDirect talks to Google Drive and Microsoft Graph with the user's own tokens
	RemoteDirect = "direct"
)

// Config is the complete cloudsync configuration
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Local     LocalConfig     `mapstructure:"local"`
	Log       LogConfig       `mapstructure:"log"`
}

// StoreConfig selects where sync configurations are persisted
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	Slot    string `mapstructure:"slot"`
}

// RemoteConfig controls remote folder listing
type RemoteConfig struct {
	Mode       string        `mapstructure:"mode"`
	BackendURL string        `mapstructure:"backend_url"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ProvidersConfig struct {
	Google    OAuthConfig `mapstructure:"google"`
	Microsoft OAuthConfig `mapstructure:"microsoft"`
}

// OAuthConfig holds the client registration for one provider.
// Tenant is only used by Microsoft.
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Tenant       string `mapstructure:"tenant"`
	TokenPath    string `mapstructure:"token_path"`
	Keyring      bool   `mapstructure:"keyring"`
}

// LocalConfig controls the local folder picker
type LocalConfig struct {
	StartPath  string   `mapstructure:"start_path"`
	ShowHidden bool     `mapstructure:"show_hidden"`
	Exclude    []string `mapstructure:"exclude"`
}

type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Validate checks the configuration for values no component can work with
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path cannot be empty for %s backend", domain.ErrConfigInvalid, c.Store.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown store backend: %q", domain.ErrConfigInvalid, c.Store.Backend)
	}
	if strings.TrimSpace(c.Store.Slot) == "" {
		return fmt.Errorf("%w: store.slot cannot be empty", domain.ErrConfigInvalid)
	}

	switch c.Remote.Mode {
	case RemoteBackend:
		if c.Remote.BackendURL == "" {
			return fmt.Errorf("%w: remote.backend_url is required in backend mode", domain.ErrConfigInvalid)
		}
	case RemoteDirect:
	default:
		return fmt.Errorf("%w: unknown remote mode: %q", domain.ErrConfigInvalid, c.Remote.Mode)
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("%w: remote.timeout cannot be negative", domain.ErrConfigInvalid)
	}

	for _, pattern := range c.Local.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: invalid exclude pattern: %q", domain.ErrConfigInvalid, pattern)
		}
	}

	return nil
}

// Provider returns the OAuth registration for p
func (c *Config) Provider(p domain.Provider) (OAuthConfig, error) {
	switch p {
	case domain.ProviderGoogle:
		return c.Providers.Google, nil
	case domain.ProviderMicrosoft:
		return c.Providers.Microsoft, nil
	default:
		return OAuthConfig{}, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, p)
	}
}

// LoggerConfig converts the log section to a logger.Config.
// Console output goes to stderr so it never mixes with command output.
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.Config{
		Level:   logger.ParseLevel(c.Log.Level),
		Format:  logger.ParseFormat(c.Log.Format),
		Outputs: []logger.OutputConfig{{Type: logger.OutputStderr}},
		File: logger.FileConfig{
			Enabled:    c.Log.File.Enabled,
			Path:       c.Log.File.Path,
			MaxSizeMB:  c.Log.File.MaxSizeMB,
			MaxAgeDays: c.Log.File.MaxAgeDays,
			MaxBackups: c.Log.File.MaxBackups,
			Compress:   c.Log.File.Compress,
		},
	}
	if c.Log.File.Enabled {
		cfg.Outputs = append(cfg.Outputs, logger.OutputConfig{Type: logger.OutputFile})
	}
	return cfg
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
