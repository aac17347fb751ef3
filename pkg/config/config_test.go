package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "/run/mctp/demux.sock", cfg.Agent.SocketPath)
	assert.Equal(t, 1*time.Second, cfg.Agent.PollInterval)
	assert.Equal(t, 3, cfg.Agent.RetryCount)
	assert.Equal(t, 500*time.Millisecond, cfg.Agent.AttemptTimeout)
	assert.Equal(t, 90*time.Second, cfg.Agent.LongRunningTimeout)
	assert.Equal(t, 32, cfg.Agent.AsyncOpPoolCapacity)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
	assert.True(t, cfg.StatusAPI.Enabled)
	assert.Equal(t, "127.0.0.1", cfg.StatusAPI.Address)
	assert.Equal(t, 8090, cfg.StatusAPI.Port)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	require.NoError(t, Validate(cfg))
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Agent: AgentConfig{
			SocketPath:   "/run/custom/demux.sock",
			RetryCount:   7,
			PollInterval: 5 * time.Second,
		},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, "/run/custom/demux.sock", cfg.Agent.SocketPath)
	assert.Equal(t, 7, cfg.Agent.RetryCount)
	assert.Equal(t, 5*time.Second, cfg.Agent.PollInterval)
	// Untouched fields still get defaults.
	assert.Equal(t, 500*time.Millisecond, cfg.Agent.AttemptTimeout)
}

func TestValidateRejectsMissingSocketPath(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Agent.SocketPath = ""

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "TRACE"

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateInstanceRemapRule(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Agent.InstanceRemap = []InstanceRemapRule{
		{Key: "uuid", Match: "992b-aa8", DeviceType: "GPU", Instance: 0},
	}
	require.NoError(t, Validate(cfg))

	cfg.Agent.InstanceRemap = append(cfg.Agent.InstanceRemap, InstanceRemapRule{
		Key: "bogus", Match: "x", DeviceType: "GPU",
	})
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instance_remap[1]")
}

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/run/mctp/demux.sock", cfg.Agent.SocketPath)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
agent:
  socket_path: /run/mctp/test.sock
  poll_interval: 2s
  retry_count: 5
  attempt_timeout: 250ms
  long_running_timeout: 30s
  async_op_pool_capacity: 16
logging:
  level: DEBUG
  format: json
  output: stdout
shutdown_timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/run/mctp/test.sock", cfg.Agent.SocketPath)
	assert.Equal(t, 2*time.Second, cfg.Agent.PollInterval)
	assert.Equal(t, 5, cfg.Agent.RetryCount)
	assert.Equal(t, 250*time.Millisecond, cfg.Agent.AttemptTimeout)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestEnvironmentOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
agent:
  socket_path: /run/mctp/test.sock
  poll_interval: 2s
  attempt_timeout: 250ms
  long_running_timeout: 30s
  async_op_pool_capacity: 16
logging:
  level: INFO
  format: text
  output: stdout
shutdown_timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0600))
	t.Setenv("NSMD_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Agent.RetryCount = 9
	require.NoError(t, SaveConfig(cfg, path))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, reloaded.Agent.RetryCount)
}

func TestMustLoadMissingFileReturnsHelpfulError(t *testing.T) {
	_, err := MustLoad("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestGetDefaultConfigPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "nsmd", "config.yaml"), GetDefaultConfigPath())
}
