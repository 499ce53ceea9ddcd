package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WORKLOG_CONFIG_PATH",
		"WORKLOG_SERVER_HOST",
		"WORKLOG_SERVER_PORT",
		"WORKLOG_DB_PATH",
		"WORKLOG_LOG_LEVEL",
		"WORKLOG_POLL_INTERVAL",
		"WORKLOG_IDLE_THRESHOLD",
		"WORKLOG_IGNORED_APPS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 2*time.Second, cfg.Tracking.PollInterval)
	require.Equal(t, 5*time.Minute, cfg.Tracking.IdleThreshold)
	require.Contains(t, cfg.Tracking.IgnoredApps, "loginwindow")
	require.Equal(t, 4, cfg.Repair.BudgetFactor)
	require.Equal(t, 2*time.Second, cfg.Repair.CompactGap)
	require.NotEmpty(t, cfg.DB.Path)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKLOG_SERVER_HOST", "0.0.0.0")
	t.Setenv("WORKLOG_SERVER_PORT", "9090")
	t.Setenv("WORKLOG_DB_PATH", "/tmp/test.db")
	t.Setenv("WORKLOG_LOG_LEVEL", "debug")
	t.Setenv("WORKLOG_POLL_INTERVAL", "5s")
	t.Setenv("WORKLOG_IDLE_THRESHOLD", "10m")
	t.Setenv("WORKLOG_IGNORED_APPS", "loginwindow, ScreenSaver ,")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "/tmp/test.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 5*time.Second, cfg.Tracking.PollInterval)
	require.Equal(t, 10*time.Minute, cfg.Tracking.IdleThreshold)
	require.Equal(t, []string{"loginwindow", "ScreenSaver"}, cfg.Tracking.IgnoredApps)
}

func TestLoadInvalidEnvValues(t *testing.T) {
	clearEnv(t)

	t.Setenv("WORKLOG_SERVER_PORT", "not-a-port")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("WORKLOG_SERVER_PORT", "")
	t.Setenv("WORKLOG_POLL_INTERVAL", "soon")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  host: 192.168.1.10
  port: 7070
tracking:
  poll_interval: 3s
  ignored_titles:
    - Private
repair:
  budget_factor: 8
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("WORKLOG_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "192.168.1.10", cfg.Server.Host)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 3*time.Second, cfg.Tracking.PollInterval)
	require.Equal(t, []string{"Private"}, cfg.Tracking.IgnoredTitles)
	require.Equal(t, 8, cfg.Repair.BudgetFactor)

	// Environment still wins over the file.
	t.Setenv("WORKLOG_SERVER_PORT", "7071")
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, 7071, cfg.Server.Port)
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKLOG_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}
