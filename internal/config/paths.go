package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
)

// ConfigDirectory returns the per-user configuration directory.
//
// Locations:
//   - Windows: %USERPROFILE%\.config\photobomb
//   - Unix: ~/.config/photobomb
func ConfigDirectory() string {
	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return filepath.Join(os.TempDir(), constants.AppName)
		}
		return filepath.Join(userProfile, ".config", constants.AppName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), constants.AppName)
	}
	return filepath.Join(home, ".config", constants.AppName)
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), "config")
}

// DefaultTokenPath returns the default path for the persisted token pair.
func DefaultTokenPath() string {
	return filepath.Join(ConfigDirectory(), "tokens.json")
}

// DefaultSocketPath returns the default unix socket for the spool daemon.
func DefaultSocketPath() string {
	return filepath.Join(ConfigDirectory(), "spool.sock")
}

// DefaultSpoolStatePath returns the default spool daemon state file.
func DefaultSpoolStatePath() string {
	return filepath.Join(ConfigDirectory(), "spool-state.json")
}

// EnsureConfigDirectory creates the config directory if it doesn't exist.
// Uses 0700 permissions to restrict token access to the owner.
func EnsureConfigDirectory() error {
	return os.MkdirAll(ConfigDirectory(), 0700)
}

func ensureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0700)
}
