package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "data", config.StoragePath)
	assert.Equal(t, 120, config.Intervals.LiveRefreshInterval)
	assert.Equal(t, 2, config.Intervals.DocumentWatchInterval)
	assert.True(t, config.Web.Enabled)
	assert.Equal(t, "127.0.0.1", config.Web.Host)
	assert.Equal(t, 5170, config.Web.Port)
}

func TestLoadConfig_ClampsIntervals(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, `{
		"intervals": {"liveRefreshInterval": 5, "documentWatchInterval": 999}
	}`))
	require.NoError(t, err)

	assert.Equal(t, 30, config.Intervals.LiveRefreshInterval)
	assert.Equal(t, 60, config.Intervals.DocumentWatchInterval)
}

func TestLoadConfig_RepairsInvalidWebSettings(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, `{
		"web": {"enabled": true, "host": "", "port": 99999}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", config.Web.Host)
	assert.Equal(t, 5170, config.Web.Port)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `{broken`))
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	original := DefaultConfig()
	original.StoragePath = "elsewhere"
	original.Intervals.LiveRefreshInterval = 300
	require.NoError(t, SaveConfig(path, &original))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, original, *loaded)
}
