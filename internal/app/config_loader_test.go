package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytgrab/internal/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "yt-dlp", config.Engine.Binary)
	assert.Equal(t, "mp3", config.Download.AudioCodec)
	assert.NotContains(t, config.Download.BaseDir, "$HOME")
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
download:
  base_dir: /srv/media
engine:
  retries: 7
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "/srv/media", config.Download.BaseDir)
	assert.Equal(t, 7, config.Engine.Retries)
	// Unspecified fields keep their defaults.
	assert.Equal(t, "mp3", config.Download.AudioCodec)
	assert.Equal(t, "yt-dlp", config.Engine.Binary)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
`)
	t.Setenv("YTGRAB_SERVER_PORT", "7070")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, config.Server.Port)
}

func TestLoadConfigInvalidPort(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 99999
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestLoadConfigInvalidRateLimit(t *testing.T) {
	path := writeConfigFile(t, `
server:
  rate_limit: -1
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestLoadConfigCloudModeRequiresTempRoot(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  cloud_mode: true
  temp_root: ""
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temp root")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "media"), expandPath("~/media"))
	assert.Equal(t, home+"/media", expandPath("$HOME/media"))
	assert.Equal(t, "/srv/media", expandPath("/srv/media"))
}

func TestSaveConfigRoundTrip(t *testing.T) {
	config := domain.DefaultConfig()
	config.Server.Port = 9191
	config.Download.BaseDir = "/srv/media"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, loaded.Server.Port)
	assert.Equal(t, "/srv/media", loaded.Download.BaseDir)
}
