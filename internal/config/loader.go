package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Ning0612/cloudsync/internal/domain"
)

const (
	appName    = "cloudsync"
	envPrefix  = "CLOUDSYNC"
	configName = "cloudsync"

	// DefaultSlot is the storage key the configuration list is saved under
	DefaultSlot = "configs"
)

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, appName))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", appName))
		paths = append(paths, filepath.Join(homeDir, "."+appName))
	}

	return paths
}

// DataDir is where stores, tokens and logs live by default
func DataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "."+appName)
	}
	return "." + appName
}

// DefaultStorePath is the store location used when store.path is not set
func DefaultStorePath(backend string) string {
	switch backend {
	case BackendSQLite:
		return filepath.Join(DataDir(), "cloudsync.db")
	case BackendFile:
		return filepath.Join(DataDir(), "sync_configs.json")
	default:
		return ""
	}
}

func setDefaults(v *viper.Viper) {
	dataDir := DataDir()

	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.path", "")
	v.SetDefault("store.slot", DefaultSlot)

	v.SetDefault("remote.mode", RemoteDirect)
	v.SetDefault("remote.backend_url", "")
	v.SetDefault("remote.token", "")
	v.SetDefault("remote.timeout", 30*time.Second)

	v.SetDefault("providers.google.client_id", "")
	v.SetDefault("providers.google.client_secret", "")
	v.SetDefault("providers.google.token_path", filepath.Join(dataDir, "tokens", "google.json"))
	v.SetDefault("providers.google.keyring", false)
	v.SetDefault("providers.microsoft.client_id", "")
	v.SetDefault("providers.microsoft.client_secret", "")
	v.SetDefault("providers.microsoft.tenant", "common")
	v.SetDefault("providers.microsoft.token_path", filepath.Join(dataDir, "tokens", "microsoft.json"))
	v.SetDefault("providers.microsoft.keyring", false)

	v.SetDefault("local.start_path", "")
	v.SetDefault("local.show_hidden", false)
	v.SetDefault("local.exclude", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", filepath.Join(dataDir, "logs", "cloudsync.log"))
	v.SetDefault("log.file.max_size_mb", 10)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.compress", true)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads a configuration file. If path is empty the default locations are
// searched for cloudsync.yaml; finding none is not an error and yields the defaults.
// An explicit path that does not exist returns domain.ErrConfigNotFound.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
	}

	return decode(v)
}

// LoadFromString parses configuration from a YAML string, on top of the defaults
func LoadFromString(yamlContent string) (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg.Store.Path = ExpandPath(cfg.Store.Path)
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath(cfg.Store.Backend)
	}
	cfg.Local.StartPath = ExpandPath(cfg.Local.StartPath)
	cfg.Log.File.Path = ExpandPath(cfg.Log.File.Path)
	cfg.Providers.Google.TokenPath = ExpandPath(cfg.Providers.Google.TokenPath)
	cfg.Providers.Microsoft.TokenPath = ExpandPath(cfg.Providers.Microsoft.TokenPath)
	cfg.Remote.BackendURL = strings.TrimRight(cfg.Remote.BackendURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file and no environment overrides exist
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("built-in defaults: %w", err)
	}
	return cfg, nil
}
