package sim

import (
	"time"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

// Step is the simulation time step.
const Step = 100 * time.Millisecond

// Config describes the simulated vehicle.
type Config struct {
	Home       telemetry.GeoPoint `yaml:"home"`
	Speed      float64            `yaml:"speed"`     // horizontal speed, m/s
	ClimbRate  float64            `yaml:"climbRate"` // vertical speed, m/s
	AckLatency time.Duration      `yaml:"ackLatency"`
}

// DefaultConfig returns a vehicle parked at the ArduPilot SITL default home.
func DefaultConfig() Config {
	return Config{
		Home:       telemetry.GeoPoint{Lat: -35.3632621, Lon: 149.1652374, Alt: 584.09},
		Speed:      5,
		ClimbRate:  2.5,
		AckLatency: 50 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Home == (telemetry.GeoPoint{}) {
		c.Home = def.Home
	}
	if c.Speed <= 0 {
		c.Speed = def.Speed
	}
	if c.ClimbRate <= 0 {
		c.ClimbRate = def.ClimbRate
	}
	if c.AckLatency < 0 {
		c.AckLatency = 0
	}
	return c
}
