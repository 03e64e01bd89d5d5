package app

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/drone-console/internal/command"
	"github.com/roman-kulish/drone-console/internal/input"
	"github.com/roman-kulish/drone-console/internal/telemetry"
	"github.com/roman-kulish/drone-console/internal/vehicle"
	"github.com/roman-kulish/drone-console/internal/vehicle/sim"
)

const (
	LinkSim = "sim"

	defaultLogFile        = "console.log"
	defaultDataDirectory  = "data"
	defaultConnectTimeout = 20 * time.Second
)

// Config represents the main application configuration
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Input     InputConfig     `yaml:"input"`
	Vehicle   VehicleConfig   `yaml:"vehicle"`
	Storage   StorageConfig   `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel      string `yaml:"logLevel"`
	LogFile       string `yaml:"logFile"`
	LogMaxSizeMB  int    `yaml:"logMaxSizeMB"`
	LogMaxBackups int    `yaml:"logMaxBackups"`
}

// TelemetryConfig represents telemetry sampling settings
type TelemetryConfig struct {
	PollInterval time.Duration `yaml:"pollInterval"`
}

// InputConfig represents keyboard input settings
type InputConfig struct {
	PollInterval time.Duration `yaml:"pollInterval"`
}

// VehicleConfig represents the vehicle link and command settings
type VehicleConfig struct {
	Link            string           `yaml:"link"`
	ConnectTimeout  time.Duration    `yaml:"connectTimeout"`
	TakeoffAltitude float64          `yaml:"takeoffAltitude"`
	ShutdownGrace   time.Duration    `yaml:"shutdownGrace"`
	Timeouts        vehicle.Timeouts `yaml:"timeouts"`
	Sim             sim.Config       `yaml:"sim"`
}

// StorageConfig represents session journal settings
type StorageConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DataDirectory string `yaml:"dataDirectory"`
}

// DefaultConfig returns the configuration used for settings the file leaves out.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel:      "info",
			LogFile:       defaultLogFile,
			LogMaxSizeMB:  10,
			LogMaxBackups: 3,
		},
		Telemetry: TelemetryConfig{PollInterval: telemetry.DefaultPollInterval},
		Input:     InputConfig{PollInterval: input.DefaultPollInterval},
		Vehicle: VehicleConfig{
			Link:            LinkSim,
			ConnectTimeout:  defaultConnectTimeout,
			TakeoffAltitude: command.DefaultTakeoffAltitude,
			ShutdownGrace:   command.DefaultShutdownGrace,
			Timeouts:        vehicle.DefaultTimeouts(),
			Sim:             sim.DefaultConfig(),
		},
		Storage: StorageConfig{
			Enabled:       true,
			DataDirectory: defaultDataDirectory,
		},
	}
}

// LoadConfig reads the YAML configuration at path over the defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return config, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("settings.logLevel: %w", err))
	}
	if c.Settings.LogFile == "" {
		errs = append(errs, errors.New("settings.logFile is required"))
	}

	positive := map[string]time.Duration{
		"telemetry.pollInterval":   c.Telemetry.PollInterval,
		"input.pollInterval":       c.Input.PollInterval,
		"vehicle.connectTimeout":   c.Vehicle.ConnectTimeout,
		"vehicle.shutdownGrace":    c.Vehicle.ShutdownGrace,
		"vehicle.timeouts.mode":    c.Vehicle.Timeouts.Mode,
		"vehicle.timeouts.takeoff": c.Vehicle.Timeouts.TakeOff,
		"vehicle.timeouts.land":    c.Vehicle.Timeouts.Land,
		"vehicle.timeouts.rtl":     c.Vehicle.Timeouts.ReturnHome,
		"vehicle.timeouts.goto":    c.Vehicle.Timeouts.GoTo,
	}
	for _, name := range slices.Sorted(maps.Keys(positive)) {
		if positive[name] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, positive[name]))
		}
	}

	if c.Vehicle.Link != LinkSim {
		errs = append(errs, fmt.Errorf("vehicle.link: unknown link '%s'", c.Vehicle.Link))
	}
	if c.Vehicle.TakeoffAltitude <= 0 {
		errs = append(errs, fmt.Errorf("vehicle.takeoffAltitude must be positive, got %g", c.Vehicle.TakeoffAltitude))
	}

	home := c.Vehicle.Sim.Home
	if home.Lat < -90 || home.Lat > 90 || home.Lon < -180 || home.Lon > 180 {
		errs = append(errs, fmt.Errorf("vehicle.sim.home: invalid position %s", home))
	}

	if c.Storage.Enabled && c.Storage.DataDirectory == "" {
		errs = append(errs, errors.New("storage.dataDirectory is required when storage is enabled"))
	}

	return errors.Join(errs...)
}

// Level returns the configured log level.
func (s Settings) Level() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(s.LogLevel))
	return level
}
