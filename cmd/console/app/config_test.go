package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
telemetry:
  pollInterval: 100ms
vehicle:
  takeoffAltitude: 15
  timeouts:
    goto: 30s
  sim:
    home:
      lat: 47.3977419
      lon: 8.5455938
      alt: 488
    speed: 8
storage:
  enabled: false
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, config.Settings.Level())
	assert.Equal(t, defaultLogFile, config.Settings.LogFile)
	assert.Equal(t, 100*time.Millisecond, config.Telemetry.PollInterval)
	assert.Equal(t, 50*time.Millisecond, config.Input.PollInterval)
	assert.Equal(t, 15.0, config.Vehicle.TakeoffAltitude)
	assert.Equal(t, 30*time.Second, config.Vehicle.Timeouts.GoTo)
	assert.Equal(t, 10*time.Second, config.Vehicle.Timeouts.Land)
	assert.Equal(t, 47.3977419, config.Vehicle.Sim.Home.Lat)
	assert.Equal(t, 8.0, config.Vehicle.Sim.Speed)
	assert.Equal(t, 2.5, config.Vehicle.Sim.ClimbRate)
	assert.False(t, config.Storage.Enabled)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: loud
input:
  pollInterval: 0s
vehicle:
  link: serial
  takeoffAltitude: -1
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "settings.logLevel")
	assert.ErrorContains(t, err, "input.pollInterval must be positive")
	assert.ErrorContains(t, err, "unknown link 'serial'")
	assert.ErrorContains(t, err, "vehicle.takeoffAltitude must be positive")
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config")

	_, err = LoadConfig(writeConfig(t, "settings: [unclosed"))
	assert.ErrorContains(t, err, "parsing config")
}

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfig_Example(t *testing.T) {
	config, err := LoadConfig(filepath.Join("..", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}
