// Package sim provides a simulated vehicle link. It answers autopilot commands after a
// configurable acknowledgement latency and moves the vehicle with a simple kinematic model.
// Vertical rate is positive when climbing.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

var (
	ErrClosed     = errors.New("link closed")
	ErrNotGuided  = errors.New("vehicle is not in guided mode")
	ErrAirborne   = errors.New("vehicle is already airborne")
	ErrOnGround   = errors.New("vehicle is on the ground")
	ErrBadRequest = errors.New("invalid request")
)

type state int

const (
	landed state = iota
	climbing
	hovering
	moving
	returning
	landing
)

var stateNames = map[state]string{
	landed:    "landed",
	climbing:  "climbing",
	hovering:  "hovering",
	moving:    "moving",
	returning: "returning",
	landing:   "landing",
}

func (s state) String() string { return stateNames[s] }

// WithLogger sets the logger for the link
func WithLogger(logger *slog.Logger) func(*Link) {
	return func(l *Link) {
		l.logger = logger.With(slog.String("component", "sim"))
	}
}

// Link is a simulated vehicle.
type Link struct {
	config Config
	logger *slog.Logger

	mu     sync.RWMutex
	state  state
	guided bool
	pos    telemetry.GeoPoint
	target telemetry.GeoPoint
	vz     float64
	closed bool

	cancel context.CancelFunc
	done   chan struct{}
}

func newLink(config Config, options ...func(*Link)) *Link {
	config = config.withDefaults()

	l := Link{
		config: config,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:  landed,
		pos:    config.Home,
		target: config.Home,
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}

// Dial connects to a simulated vehicle parked at its home position and starts the
// simulation.
func Dial(ctx context.Context, config Config, options ...func(*Link)) (*Link, error) {
	l := newLink(config, options...)

	if err := l.wait(ctx); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}

	simCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(simCtx)

	l.logger.Info("vehicle connected", slog.String("home", l.config.Home.String()))

	return l, nil
}

func (l *Link) run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(Step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.step(Step.Seconds())
		}
	}
}

// Close stops the simulation. Further commands fail with ErrClosed.
func (l *Link) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		<-l.done
	}

	l.logger.Info("vehicle disconnected")

	return nil
}

// TryGetCurrentPosition reports the current position as the link would deliver it.
func (l *Link) TryGetCurrentPosition() (telemetry.RawPosition, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return telemetry.RawPosition{}, false
	}

	return telemetry.Encode(l.pos.Lat, l.pos.Lon, l.pos.Alt, l.pos.Alt-l.config.Home.Alt, l.vz), true
}

// HomePosition reports the launch position.
func (l *Link) HomePosition() (telemetry.GeoPoint, bool) {
	return l.config.Home, true
}

// IsGuidedMode reports whether the vehicle accepts guided commands.
func (l *Link) IsGuidedMode() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.guided
}

// SetGuidedMode switches the vehicle to guided mode.
func (l *Link) SetGuidedMode(ctx context.Context) error {
	return l.command(ctx, "guided", func() error {
		l.guided = true
		return nil
	})
}

// TakeOff climbs to altitude metres above home.
func (l *Link) TakeOff(ctx context.Context, altitude float64) error {
	return l.command(ctx, "takeoff", func() error {
		switch {
		case altitude <= 0:
			return fmt.Errorf("%w: take-off altitude %.2f", ErrBadRequest, altitude)
		case !l.guided:
			return ErrNotGuided
		case l.state != landed:
			return ErrAirborne
		}

		l.target = l.pos
		l.target.Alt = l.config.Home.Alt + altitude
		l.state = climbing
		return nil
	})
}

// Land descends at the current position.
func (l *Link) Land(ctx context.Context) error {
	return l.command(ctx, "land", func() error {
		if l.state == landed {
			return ErrOnGround
		}

		l.state = landing
		return nil
	})
}

// ReturnToLaunch flies home at the current altitude and lands there.
func (l *Link) ReturnToLaunch(ctx context.Context) error {
	return l.command(ctx, "rtl", func() error {
		if l.state == landed {
			return ErrOnGround
		}

		l.target = l.config.Home
		l.target.Alt = l.pos.Alt
		l.state = returning
		return nil
	})
}

// GoTo flies to target; its altitude is absolute.
func (l *Link) GoTo(ctx context.Context, target telemetry.GeoPoint) error {
	return l.command(ctx, "goto", func() error {
		switch {
		case math.Abs(target.Lat) > 90 || math.Abs(target.Lon) > 180:
			return fmt.Errorf("%w: target %s", ErrBadRequest, target)
		case !l.guided:
			return ErrNotGuided
		case l.state == landed:
			return ErrOnGround
		case target.Alt < l.config.Home.Alt:
			return fmt.Errorf("%w: target altitude below home", ErrBadRequest)
		}

		l.target = target
		l.state = moving
		return nil
	})
}

// command waits for the acknowledgement and applies fn under the state lock.
func (l *Link) command(ctx context.Context, name string, fn func() error) error {
	if err := l.wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	if err := fn(); err != nil {
		l.logger.Debug("command rejected", slog.String("command", name), slog.String("error", err.Error()))
		return err
	}

	l.logger.Debug("command accepted", slog.String("command", name), slog.String("state", l.state.String()))
	return nil
}

func (l *Link) wait(ctx context.Context) error {
	if l.config.AckLatency == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(l.config.AckLatency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// step advances the simulation by dt seconds.
func (l *Link) step(dt float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ground := l.config.Home.Alt

	switch l.state {
	case climbing:
		if l.climb(l.target.Alt, dt) {
			l.setState(hovering)
		}

	case moving, returning:
		arrived := l.fly(dt)
		level := l.climb(l.target.Alt, dt)
		if arrived && level {
			if l.state == returning {
				l.setState(landing)
			} else {
				l.setState(hovering)
			}
		}

	case landing:
		if l.climb(ground, dt) {
			l.guided = false
			l.setState(landed)
		}

	default:
		l.vz = 0
	}
}

// climb moves the altitude toward alt and reports whether it has been reached.
func (l *Link) climb(alt, dt float64) bool {
	diff := alt - l.pos.Alt
	limit := l.config.ClimbRate * dt

	if math.Abs(diff) <= limit {
		l.pos.Alt = alt
		l.vz = 0
		return true
	}

	rate := l.config.ClimbRate
	if diff < 0 {
		rate = -rate
	}
	l.pos.Alt += rate * dt
	l.vz = rate
	return false
}

// fly moves horizontally toward the target and reports whether it has been reached.
func (l *Link) fly(dt float64) bool {
	target := telemetry.GeoPoint{Lat: l.target.Lat, Lon: l.target.Lon, Alt: l.pos.Alt}

	dist := telemetry.Distance(l.pos, target)
	travel := l.config.Speed * dt
	if dist <= travel {
		l.pos = target
		return true
	}

	north, east := telemetry.Bearing(l.pos, target)
	scale := travel / math.Hypot(north, east)
	l.pos = telemetry.Offset(l.pos, north*scale, east*scale)
	return false
}

func (l *Link) setState(s state) {
	l.logger.Debug("state changed", slog.String("from", l.state.String()), slog.String("to", s.String()))
	l.state = s
}
