package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.True(t, cfg.Spool.Enabled)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Empty(t, cfg.APIBaseURL)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	cfg := New()
	cfg.APIBaseURL = "https://photos.example.com"
	cfg.TokenFile = filepath.Join(dir, "tokens.json")
	cfg.Spool.Enabled = false
	cfg.Spool.Socket = filepath.Join(dir, "spool.sock")

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://photos.example.com", loaded.APIBaseURL)
	assert.Equal(t, cfg.TokenFile, loaded.TokenFile)
	assert.False(t, loaded.Spool.Enabled)
	assert.Equal(t, cfg.Spool.Socket, loaded.Spool.Socket)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	cfg := New()
	cfg.APIBaseURL = "https://photos.example.com/"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://photos.example.com", loaded.APIBaseURL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PHOTOBOMB_API_URL", "https://other.example.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com", cfg.APIBaseURL)
}

func TestValidate(t *testing.T) {
	cfg := New()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIURL)

	cfg.APIBaseURL = "not a url"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidAPIURL)

	cfg.APIBaseURL = "https://photos.example.com"
	assert.NoError(t, cfg.Validate())

	cfg.Spool.Socket = ""
	assert.ErrorIs(t, cfg.Validate(), ErrMissingSocket)
}

func TestOrigin(t *testing.T) {
	cfg := New()
	cfg.APIBaseURL = "https://photos.example.com:8443"
	assert.Equal(t, "https://photos.example.com:8443", cfg.Origin())
}
