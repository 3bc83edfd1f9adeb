package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment variable overrides,
// e.g. RECRUIT_INBOX_NOTIFICATIONS_POLL_INTERVAL_SEC.
const envPrefix = "RECRUIT_INBOX"

// BackendConfig holds settings for talking to the recruiting backend.
type BackendConfig struct {
	// CookieName is the name of the session cookie the backend expects.
	CookieName string `mapstructure:"cookie_name" yaml:"cookie_name"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotificationsConfig controls the notification cache controller.
type NotificationsConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	FetchLimit      int `mapstructure:"fetch_limit" yaml:"fetch_limit"`
	PreviewSize     int `mapstructure:"preview_size" yaml:"preview_size"`
}

// MediaConfig controls the presigned media URL cache.
type MediaConfig struct {
	// DefaultTTLSec applies when the backend omits an expiry.
	DefaultTTLSec int `mapstructure:"default_ttl_sec" yaml:"default_ttl_sec"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend       BackendConfig       `mapstructure:"backend" yaml:"backend"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Media         MediaConfig         `mapstructure:"media" yaml:"media"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/recruit-inbox, falling back to the
// working directory when the home directory cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "recruit-inbox")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultDBPath returns the default path for the local database.
func DefaultDBPath() string {
	return filepath.Join(ConfigDir(), "inbox.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			CookieName: "session",
			TimeoutSec: 30,
		},
		Notifications: NotificationsConfig{
			PollIntervalSec: 30,
			FetchLimit:      100,
			PreviewSize:     7,
		},
		Media: MediaConfig{
			DefaultTTLSec: 600,
		},
		Log: LogConfig{
			Path:  filepath.Join(ConfigDir(), "inbox.log"),
			Level: "info",
		},
	}
}

// setDefaults mirrors defaultAppConfig onto a viper instance so that
// missing keys and env-only overrides resolve.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("backend.cookie_name", d.Backend.CookieName)
	v.SetDefault("backend.timeout_sec", d.Backend.TimeoutSec)
	v.SetDefault("notifications.poll_interval_sec", d.Notifications.PollIntervalSec)
	v.SetDefault("notifications.fetch_limit", d.Notifications.FetchLimit)
	v.SetDefault("notifications.preview_size", d.Notifications.PreviewSize)
	v.SetDefault("media.default_ttl_sec", d.Media.DefaultTTLSec)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus any environment overrides)
// are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize replaces non-positive numeric settings with their defaults.
func (c *AppConfig) normalize() {
	d := defaultAppConfig()
	if c.Backend.CookieName == "" {
		c.Backend.CookieName = d.Backend.CookieName
	}
	if c.Backend.TimeoutSec <= 0 {
		c.Backend.TimeoutSec = d.Backend.TimeoutSec
	}
	if c.Notifications.PollIntervalSec <= 0 {
		c.Notifications.PollIntervalSec = d.Notifications.PollIntervalSec
	}
	if c.Notifications.FetchLimit <= 0 {
		c.Notifications.FetchLimit = d.Notifications.FetchLimit
	}
	if c.Notifications.PreviewSize <= 0 {
		c.Notifications.PreviewSize = d.Notifications.PreviewSize
	}
	if c.Media.DefaultTTLSec <= 0 {
		c.Media.DefaultTTLSec = d.Media.DefaultTTLSec
	}
	if strings.HasPrefix(c.Log.Path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			c.Log.Path = filepath.Join(home, c.Log.Path[2:])
		}
	}
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("notifications", cfg.Notifications)
	v.Set("media", cfg.Media)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// WriteDefaultConfig writes the default configuration to path unless a
// file already exists there. It reports whether a file was written.
func WriteDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("checking config %s: %w", path, err)
	}

	if err := SaveConfig(path, defaultAppConfig()); err != nil {
		return false, err
	}
	return true, nil
}
