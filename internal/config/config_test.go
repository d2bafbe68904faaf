package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varscore/varscore/internal/remote"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
}

func TestDefaults(t *testing.T) {
	resetViper(t)
	require.NoError(t, Init(""))

	c, err := New()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".varscore", "stores"), c.Store.Dir)
	assert.Equal(t, filepath.Join(home, ".varscore", "workspace"), c.Workspace.Dir)
	assert.Equal(t, remote.DefaultBaseURL, c.Remote.BaseURL)
	assert.Equal(t, remote.DefaultVersion, c.Remote.Version)
	assert.Equal(t, 60*time.Second, c.Remote.PollInterval)
	assert.Equal(t, 30*time.Minute, c.Remote.MaxWait)
}

func TestConfigFile(t *testing.T) {
	resetViper(t)

	cfgPath := filepath.Join(t.TempDir(), "varscore.yaml")
	content := "store:\n" +
		"  dir: /data/stores\n" +
		"remote:\n" +
		"  poll-interval: 5s\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	require.NoError(t, Init(cfgPath))

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/stores", c.Store.Dir)
	assert.Equal(t, 5*time.Second, c.Remote.PollInterval)
	// Untouched keys keep their defaults.
	assert.Equal(t, remote.DefaultBaseURL, c.Remote.BaseURL)
}

func TestEnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("VARSCORE_REMOTE_BASE_URL", "http://localhost:9000")
	t.Setenv("VARSCORE_STORE_WORKERS", "8")

	require.NoError(t, Init(""))

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", c.Remote.BaseURL)
	assert.Equal(t, 8, c.Store.Workers)
}

func TestMissingConfigFileIsFine(t *testing.T) {
	resetViper(t)
	require.NoError(t, Init(""))
}
