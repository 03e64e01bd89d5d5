package vehicle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

const (
	// DefaultConfirmInterval is how often guided mode is polled after it was requested.
	DefaultConfirmInterval = 200 * time.Millisecond

	// DefaultConfirmWindow is how long guided mode may take to be reported.
	DefaultConfirmWindow = 3 * time.Second
)

// ErrModeNotConfirmed is returned when the vehicle does not report guided mode within the
// confirmation window.
var ErrModeNotConfirmed = errors.New("guided mode not confirmed")

// Autopilot is the raw control surface of a vehicle link.
type Autopilot interface {
	SetGuidedMode(ctx context.Context) error
	IsGuidedMode() bool
	TakeOff(ctx context.Context, altitude float64) error
	Land(ctx context.Context) error
	ReturnToLaunch(ctx context.Context) error
	GoTo(ctx context.Context, target telemetry.GeoPoint) error
}

// Timeouts bound each control action.
type Timeouts struct {
	Mode       time.Duration `yaml:"mode"`
	TakeOff    time.Duration `yaml:"takeoff"`
	Land       time.Duration `yaml:"land"`
	ReturnHome time.Duration `yaml:"rtl"`
	GoTo       time.Duration `yaml:"goto"`
}

// DefaultTimeouts returns the timeouts used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Mode:       5 * time.Second,
		TakeOff:    10 * time.Second,
		Land:       10 * time.Second,
		ReturnHome: 10 * time.Second,
		GoTo:       10 * time.Second,
	}
}

// WithTimeouts sets per-action timeouts. Zero values keep the defaults.
func WithTimeouts(timeouts Timeouts) func(*Controller) {
	return func(c *Controller) {
		merge := func(dst *time.Duration, v time.Duration) {
			if v > 0 {
				*dst = v
			}
		}
		merge(&c.timeouts.Mode, timeouts.Mode)
		merge(&c.timeouts.TakeOff, timeouts.TakeOff)
		merge(&c.timeouts.Land, timeouts.Land)
		merge(&c.timeouts.ReturnHome, timeouts.ReturnHome)
		merge(&c.timeouts.GoTo, timeouts.GoTo)
	}
}

// WithModeConfirmation sets how guided mode is confirmed
func WithModeConfirmation(interval, window time.Duration) func(*Controller) {
	return func(c *Controller) {
		if interval > 0 {
			c.confirmInterval = interval
		}
		if window > 0 {
			c.confirmWindow = window
		}
	}
}

// WithLogger sets the logger for the controller
func WithLogger(logger *slog.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger.With(slog.String("component", "controller"))
	}
}

// Controller runs control actions against an Autopilot, each under its own timeout.
type Controller struct {
	autopilot Autopilot
	timeouts  Timeouts
	logger    *slog.Logger

	confirmInterval time.Duration
	confirmWindow   time.Duration
}

// NewController creates a new Controller with a discard logger
func NewController(autopilot Autopilot, options ...func(*Controller)) *Controller {
	c := Controller{
		autopilot:       autopilot,
		timeouts:        DefaultTimeouts(),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		confirmInterval: DefaultConfirmInterval,
		confirmWindow:   DefaultConfirmWindow,
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// EnterAutonomousMode requests guided mode and waits until the vehicle reports it.
func (c *Controller) EnterAutonomousMode(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Mode)
	defer cancel()

	defer func() {
		if err != nil {
			err = fmt.Errorf("enter guided mode: %w", err)
		}
	}()

	if err = c.autopilot.SetGuidedMode(ctx); err != nil {
		return
	}

	confirm, stop := context.WithTimeout(ctx, c.confirmWindow)
	defer stop()

	ticker := time.NewTicker(c.confirmInterval)
	defer ticker.Stop()

	for {
		if c.autopilot.IsGuidedMode() {
			c.logger.Debug("guided mode confirmed")
			return nil
		}

		select {
		case <-confirm.Done():
			if err = ctx.Err(); err != nil {
				return
			}
			err = ErrModeNotConfirmed
			return
		case <-ticker.C:
		}
	}
}

// AscendTo takes off and climbs to altitude metres above the ground.
func (c *Controller) AscendTo(ctx context.Context, altitude float64) error {
	return c.run(ctx, "take off", c.timeouts.TakeOff, func(ctx context.Context) error {
		return c.autopilot.TakeOff(ctx, altitude)
	})
}

// Land lands at the current position.
func (c *Controller) Land(ctx context.Context) error {
	return c.run(ctx, "land", c.timeouts.Land, c.autopilot.Land)
}

// ReturnToHome flies back to the home position and lands.
func (c *Controller) ReturnToHome(ctx context.Context) error {
	return c.run(ctx, "return to launch", c.timeouts.ReturnHome, c.autopilot.ReturnToLaunch)
}

// GoTo flies to the given position; alt is absolute.
func (c *Controller) GoTo(ctx context.Context, lat, lon, alt float64) error {
	target := telemetry.GeoPoint{Lat: lat, Lon: lon, Alt: alt}

	return c.run(ctx, "go to", c.timeouts.GoTo, func(ctx context.Context) error {
		return c.autopilot.GoTo(ctx, target)
	})
}

func (c *Controller) run(ctx context.Context, action string, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	c.logger.Debug("action acknowledged", slog.String("action", action), slog.Duration("latency", time.Since(start)))

	return nil
}
