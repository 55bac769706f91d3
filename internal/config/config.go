// Package config provides configuration management for the PhotoBomb client.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// Config is the client configuration shared by the CLI and the spool daemon.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\photobomb\config
//   - Unix: ~/.config/photobomb/config
//
// INI format:
//
//	[photobomb]
//	api_url = https://photos.example.com
//	token_file = /home/me/.config/photobomb/tokens.json
//
//	[spool]
//	enabled = true
//	socket = /home/me/.config/photobomb/spool.sock
//	state_file = /home/me/.config/photobomb/spool-state.json
//
//	[notifications]
//	enabled = true
//	show_upload_complete = true
//	show_upload_failed = true
type Config struct {
	// APIBaseURL is the photo service origin, e.g. https://photos.example.com
	APIBaseURL string `ini:"api_url"`

	// TokenFile is where the access/refresh token pair is persisted
	TokenFile string `ini:"token_file"`

	// Spool settings for the background upload daemon
	Spool SpoolConfig

	// Notification settings
	Notifications NotificationConfig
}

// SpoolConfig contains settings for the background upload spool daemon.
type SpoolConfig struct {
	// Enabled indicates whether the manager may hand batches to the daemon.
	// When false every batch uses the sequential fallback.
	Enabled bool `ini:"enabled"`

	// Socket is the unix socket the daemon listens on
	Socket string `ini:"socket"`

	// StateFile is the daemon's persistent registration state
	StateFile string `ini:"state_file"`
}

// NotificationConfig contains settings for desktop notifications.
type NotificationConfig struct {
	// Enabled indicates whether notifications are shown.
	// Default: true
	Enabled bool `ini:"enabled"`

	// ShowUploadComplete shows a notification when a batch completes.
	// Default: true
	ShowUploadComplete bool `ini:"show_upload_complete"`

	// ShowUploadFailed shows a notification when a batch fails.
	// Default: true
	ShowUploadFailed bool `ini:"show_upload_failed"`
}

// Validation errors
var (
	ErrMissingAPIURL = errors.New("api_url is required")
	ErrInvalidAPIURL = errors.New("api_url must be an absolute http(s) URL")
	ErrMissingSocket = errors.New("spool socket is required when spool is enabled")
)

// New creates a Config with default values.
func New() *Config {
	cfg := &Config{
		TokenFile: DefaultTokenPath(),
		Spool: SpoolConfig{
			Enabled:   true,
			Socket:    DefaultSocketPath(),
			StateFile: DefaultSpoolStatePath(),
		},
		Notifications: NotificationConfig{
			Enabled:            true,
			ShowUploadComplete: true,
			ShowUploadFailed:   true,
		},
	}
	return cfg
}

// Load reads configuration from an INI file, applying environment overrides.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		iniFile, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}

		main := iniFile.Section("photobomb")
		cfg.APIBaseURL = main.Key("api_url").MustString(cfg.APIBaseURL)
		cfg.TokenFile = main.Key("token_file").MustString(cfg.TokenFile)

		spool := iniFile.Section("spool")
		cfg.Spool.Enabled = spool.Key("enabled").MustBool(cfg.Spool.Enabled)
		cfg.Spool.Socket = spool.Key("socket").MustString(cfg.Spool.Socket)
		cfg.Spool.StateFile = spool.Key("state_file").MustString(cfg.Spool.StateFile)

		notify := iniFile.Section("notifications")
		cfg.Notifications.Enabled = notify.Key("enabled").MustBool(true)
		cfg.Notifications.ShowUploadComplete = notify.Key("show_upload_complete").MustBool(true)
		cfg.Notifications.ShowUploadFailed = notify.Key("show_upload_failed").MustBool(true)
	}

	// Environment overrides win over the file
	if v := os.Getenv("PHOTOBOMB_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("PHOTOBOMB_TOKEN_FILE"); v != "" {
		cfg.TokenFile = v
	}
	if v := os.Getenv("PHOTOBOMB_SPOOL_SOCKET"); v != "" {
		cfg.Spool.Socket = v
	}

	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	return cfg, nil
}

// Save writes configuration to an INI file.
// Creates parent directories if they don't exist.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	iniFile := ini.Empty()

	main := iniFile.Section("photobomb")
	main.Key("api_url").SetValue(cfg.APIBaseURL)
	main.Key("token_file").SetValue(cfg.TokenFile)

	spool := iniFile.Section("spool")
	spool.Key("enabled").SetValue(boolString(cfg.Spool.Enabled))
	spool.Key("socket").SetValue(cfg.Spool.Socket)
	spool.Key("state_file").SetValue(cfg.Spool.StateFile)

	notify := iniFile.Section("notifications")
	notify.Key("enabled").SetValue(boolString(cfg.Notifications.Enabled))
	notify.Key("show_upload_complete").SetValue(boolString(cfg.Notifications.ShowUploadComplete))
	notify.Key("show_upload_failed").SetValue(boolString(cfg.Notifications.ShowUploadFailed))

	if err := iniFile.SaveTo(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	// Token paths live next door; keep the config itself owner-only too.
	return os.Chmod(path, 0600)
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIURL
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidAPIURL
	}
	if c.Spool.Enabled && c.Spool.Socket == "" {
		return ErrMissingSocket
	}
	return nil
}

// Origin returns the scheme://host[:port] part of the API base URL.
// Used by the transfer manager's same-origin strategy check.
func (c *Config) Origin() string {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return c.APIBaseURL
	}
	return u.Scheme + "://" + u.Host
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
