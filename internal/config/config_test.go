package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jakopako/surveyfill/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	config, err := NewConfig("")
	require.NoError(t, err)

	assert.False(t, config.Browser.ShowWindow)
	assert.Equal(t, 1280, config.Browser.WindowWidth)
	assert.Equal(t, "surveyfill.db", config.Store.DBPath)
	assert.Equal(t, 10, config.Log.MaxSizeMB)
	assert.Equal(t, 20*time.Second, config.Timing.ResultTimeout)
	assert.Equal(t, 80*time.Millisecond, config.Timing.QuestionDelayMin)
	assert.Equal(t, 800*time.Millisecond, config.Supervisor.SettleReady)
	assert.Equal(t, 1500*time.Millisecond, config.Supervisor.SettleLoading)
	assert.Equal(t, output.STDOUT_WRITER_TYPE, config.Status.Type)
}

func TestNewConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
browser:
  show_window: true
  user_agent: test-agent
store:
  db_path: /tmp/fill.db
timing:
  result_timeout: 45s
status:
  type: file
  filedir: /tmp/status
`), 0644))
	t.Setenv("SURVEYFILL_STATUS_PASSWORD", "secret")
	t.Setenv("SURVEYFILL_TIMING_POLL", "1s")

	config, err := NewConfig(path)
	require.NoError(t, err)
	assert.True(t, config.Browser.ShowWindow)
	assert.Equal(t, "test-agent", config.Browser.UserAgent)
	assert.Equal(t, "/tmp/fill.db", config.Store.DBPath)
	assert.Equal(t, 45*time.Second, config.Timing.ResultTimeout)
	assert.Equal(t, time.Second, config.Timing.Poll)
	assert.Equal(t, 200*time.Millisecond, config.Timing.Settle)
	assert.Equal(t, output.FILE_WRITER_TYPE, config.Status.Type)
	assert.Equal(t, "/tmp/status", config.Status.FileDir)
	assert.Equal(t, "secret", config.Status.Password)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	assert.Contains(t, Usage(), "SURVEYFILL_STORE_DB_PATH")
}
