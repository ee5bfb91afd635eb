package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 6540, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Editor.FrameRate)
	assert.Equal(t, "knoux_session", cfg.Auth.CookieName)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "data/knouxart.db", cfg.Database.Path)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 8080
  read_timeout: 5s
editor:
  max_sessions: 4
auth:
  google:
    client_id: from-file
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 4, cfg.Editor.MaxSessions)
	assert.Equal(t, 30, cfg.Editor.FrameRate)
	assert.Equal(t, "from-file", cfg.Auth.Google.ClientID)
	assert.False(t, cfg.Auth.Google.Enabled())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesOAuth(t *testing.T) {
	t.Setenv("GITHUB_ID", "gh-id")
	t.Setenv("GITHUB_SECRET", "gh-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Auth.GitHub.Enabled())
	assert.Equal(t, "gh-id", cfg.Auth.GitHub.ClientID)
}
