package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

const (
	// DefaultTakeoffAltitude is the altitude in metres the take-off command climbs to.
	DefaultTakeoffAltitude = 10.0

	// DefaultShutdownGrace is how long Close waits for in-flight commands before cancelling them.
	DefaultShutdownGrace = 3 * time.Second
)

// ErrShutdownTimeout is returned by Close when cancelled commands fail to return in time.
var ErrShutdownTimeout = errors.New("in-flight commands did not stop in time")

// Controller is the vehicle control capability used by the dispatcher.
type Controller interface {
	EnterAutonomousMode(ctx context.Context) error
	AscendTo(ctx context.Context, altitude float64) error
	Land(ctx context.Context) error
	ReturnToHome(ctx context.Context) error
	GoTo(ctx context.Context, lat, lon, alt float64) error
}

// StatusSink is the part of the render sink the dispatcher talks to.
type StatusSink interface {
	SetStatus(status string)
	Suppress() (release func())
	LastSample() (telemetry.Sample, bool)
}

// LineSource reads one line of operator input. It returns io.EOF when no line is available.
type LineSource interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// HomeLocator reports the vehicle home position.
type HomeLocator interface {
	HomePosition() (telemetry.GeoPoint, bool)
}

// WithLogger sets the logger for the dispatcher
func WithLogger(logger *slog.Logger) func(*Dispatcher) {
	return func(d *Dispatcher) {
		d.logger = logger.With(slog.String("component", "dispatcher"))
	}
}

// WithAuditTrail sets the audit trail command outcomes are appended to
func WithAuditTrail(audit AuditTrail) func(*Dispatcher) {
	return func(d *Dispatcher) {
		d.audit = audit
	}
}

// WithHome sets the source of the home position used in return-home status lines
func WithHome(home HomeLocator) func(*Dispatcher) {
	return func(d *Dispatcher) {
		d.home = home
	}
}

// WithTakeoffAltitude sets the take-off altitude in metres
func WithTakeoffAltitude(altitude float64) func(*Dispatcher) {
	return func(d *Dispatcher) {
		if altitude > 0 {
			d.takeoffAltitude = altitude
		}
	}
}

// WithShutdownGrace sets how long Close lets in-flight commands finish
func WithShutdownGrace(grace time.Duration) func(*Dispatcher) {
	return func(d *Dispatcher) {
		if grace > 0 {
			d.grace = grace
		}
	}
}

// Dispatcher executes operator commands against a Controller.
type Dispatcher struct {
	controller Controller
	sink       StatusSink
	lines      LineSource
	home       HomeLocator
	audit      AuditTrail
	logger     *slog.Logger

	takeoffAltitude float64
	grace           time.Duration

	ctx    context.Context // parent of every command execution
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	quit     chan struct{}
	quitOnce sync.Once
}

// NewDispatcher creates a new Dispatcher with a discard logger
func NewDispatcher(controller Controller, sink StatusSink, lines LineSource, options ...func(*Dispatcher)) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	d := Dispatcher{
		controller:      controller,
		sink:            sink,
		lines:           lines,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		takeoffAltitude: DefaultTakeoffAltitude,
		grace:           DefaultShutdownGrace,
		ctx:             ctx,
		cancel:          cancel,
		quit:            make(chan struct{}),
	}

	for _, option := range options {
		option(&d)
	}

	return &d
}

// Quit returns a channel that is closed once the quit command has been received.
func (d *Dispatcher) Quit() <-chan struct{} {
	return d.quit
}

// Run consumes commands until quit is received, in is closed or ctx is cancelled.
// Cancelling ctx also cancels every command still in flight.
func (d *Dispatcher) Run(ctx context.Context, in <-chan Command) {
	context.AfterFunc(ctx, d.cancel)

	for {
		select {
		case <-ctx.Done():
			return

		case cmd, ok := <-in:
			if !ok {
				return
			}
			if cmd == Quit {
				d.logger.Info("quit requested")
				d.quitOnce.Do(func() { close(d.quit) })
				return
			}
			d.Dispatch(cmd)
		}
	}
}

// Dispatch starts cmd in its own goroutine and returns immediately. It reports false once
// the dispatcher is closed.
func (d *Dispatcher) Dispatch(cmd Command) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.execute(d.ctx, cmd)
	}()

	return true
}

// Close stops accepting commands and waits for in-flight ones. Commands still running
// after the grace period are cancelled and given the same period again to return.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	defer d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(d.grace):
	}

	d.logger.Info("cancelling in-flight commands")
	d.cancel()

	select {
	case <-done:
		return nil
	case <-time.After(d.grace):
		return ErrShutdownTimeout
	}
}

func (d *Dispatcher) execute(ctx context.Context, cmd Command) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			d.fail(ctx, cmd, start, fmt.Errorf("panic: %v", r))
		}
	}()

	d.logger.Debug("executing command", slog.String("command", cmd.String()))

	switch cmd {
	case TakeOff:
		d.takeOff(ctx, start)
	case Land:
		d.land(ctx, start)
	case ReturnHome:
		d.returnHome(ctx, start)
	case GoTo:
		d.goTo(ctx, start)
	case Quit:
		// handled by Run
	default:
		d.sink.SetStatus(fmt.Sprintf("Unknown command: %s", cmd))
		d.logger.Info("unknown command ignored", slog.Int("command", int(cmd)))
	}
}

func (d *Dispatcher) takeOff(ctx context.Context, start time.Time) {
	d.sink.SetStatus("Switching to guided mode...")
	if err := d.controller.EnterAutonomousMode(ctx); err != nil {
		d.fail(ctx, TakeOff, start, err)
		return
	}

	alt := humanize.FtoaWithDigits(d.takeoffAltitude, 1)
	d.sink.SetStatus(fmt.Sprintf("Taking off to %s m...", alt))
	if err := d.controller.AscendTo(ctx, d.takeoffAltitude); err != nil {
		d.fail(ctx, TakeOff, start, err)
		return
	}

	d.succeed(ctx, TakeOff, start, fmt.Sprintf("Take-off to %s m accepted", alt))
}

func (d *Dispatcher) land(ctx context.Context, start time.Time) {
	d.sink.SetStatus("Landing...")
	if err := d.controller.Land(ctx); err != nil {
		d.fail(ctx, Land, start, err)
		return
	}

	d.succeed(ctx, Land, start, "Land accepted")
}

func (d *Dispatcher) returnHome(ctx context.Context, start time.Time) {
	status := "Returning home..."
	if d.home != nil {
		home, hasHome := d.home.HomePosition()
		last, hasLast := d.sink.LastSample()
		if hasHome && hasLast {
			status = fmt.Sprintf("Returning home (%s away)...", humanizeDistance(telemetry.Distance(last.Point(), home)))
		}
	}
	d.sink.SetStatus(status)

	if err := d.controller.ReturnToHome(ctx); err != nil {
		d.fail(ctx, ReturnHome, start, err)
		return
	}

	d.succeed(ctx, ReturnHome, start, "Return home accepted")
}

func (d *Dispatcher) goTo(ctx context.Context, start time.Time) {
	release := d.sink.Suppress()
	defer release()

	target, err := d.promptTarget(ctx)
	if err != nil {
		var invalid *InputError
		if errors.As(err, &invalid) {
			d.reject(ctx, GoTo, start, invalid)
			return
		}
		if errors.Is(err, io.EOF) {
			err = errors.New("no input")
		}
		d.fail(ctx, GoTo, start, err)
		return
	}

	last, hasLast := d.sink.LastSample()
	target.Alt = ResolveAltitude(target.Alt, last, hasLast)

	release() // the prompt is done, show telemetry while the vehicle moves

	if hasLast {
		from := last.Point()
		d.sink.SetStatus(fmt.Sprintf("GoTo %s → %s (%s)", from, target, humanizeDistance(telemetry.Distance(from, target))))
	} else {
		d.sink.SetStatus(fmt.Sprintf("GoTo → %s", target))
	}

	if err = d.controller.GoTo(ctx, target.Lat, target.Lon, target.Alt); err != nil {
		d.fail(ctx, GoTo, start, err)
		return
	}

	d.succeed(ctx, GoTo, start, "GoTo completed")
}

type promptField struct {
	name     string
	prompt   string
	min, max float64
}

var goToFields = []promptField{
	{name: "latitude", prompt: "GoTo latitude: ", min: -90, max: 90},
	{name: "longitude", prompt: "GoTo longitude: ", min: -180, max: 180},
	{name: "altitude", prompt: "GoTo altitude (m): ", min: -1e6, max: 1e6},
}

// promptTarget reads latitude, longitude and altitude. The first invalid field aborts
// the prompt with an *InputError.
func (d *Dispatcher) promptTarget(ctx context.Context) (telemetry.GeoPoint, error) {
	var values [3]float64

	for i, field := range goToFields {
		line, err := d.lines.ReadLine(ctx, field.prompt)
		if err != nil {
			return telemetry.GeoPoint{}, err
		}

		v, err := ParseNumber(line)
		if err != nil {
			return telemetry.GeoPoint{}, &InputError{Field: field.name, Input: line, Reason: err.Error()}
		}
		if v < field.min || v > field.max {
			return telemetry.GeoPoint{}, &InputError{
				Field:  field.name,
				Input:  line,
				Reason: fmt.Sprintf("out of range [%g, %g]", field.min, field.max),
			}
		}

		values[i] = v
	}

	return telemetry.GeoPoint{Lat: values[0], Lon: values[1], Alt: values[2]}, nil
}

func (d *Dispatcher) succeed(ctx context.Context, cmd Command, start time.Time, status string) {
	d.sink.SetStatus(status)
	d.logger.Info("command completed", slog.String("command", cmd.String()), slog.Duration("latency", time.Since(start)))
	d.record(ctx, cmd, OutcomeSuccess, status, start)
}

func (d *Dispatcher) reject(ctx context.Context, cmd Command, start time.Time, err *InputError) {
	d.sink.SetStatus(fmt.Sprintf("%s aborted: %s", cmd.label(), err))
	d.logger.Info("command input rejected", slog.String("command", cmd.String()), slog.String("error", err.Error()))
	d.record(ctx, cmd, OutcomeInvalid, err.Error(), start)
}

func (d *Dispatcher) fail(ctx context.Context, cmd Command, start time.Time, err error) {
	if errors.Is(err, context.Canceled) {
		d.sink.SetStatus(fmt.Sprintf("%s cancelled", cmd.label()))
		d.logger.Debug("command cancelled", slog.String("command", cmd.String()))
		d.record(ctx, cmd, OutcomeCancelled, err.Error(), start)
		return
	}

	d.sink.SetStatus(fmt.Sprintf("%s error: %s", cmd.label(), err))
	d.logger.Warn("command failed", slog.String("command", cmd.String()), slog.String("error", err.Error()))
	d.record(ctx, cmd, OutcomeError, err.Error(), start)
}

func (d *Dispatcher) record(ctx context.Context, cmd Command, outcome, detail string, start time.Time) {
	if d.audit == nil {
		return
	}

	entry := AuditEntry{
		Timestamp: time.Now().UTC(),
		Command:   cmd.String(),
		Outcome:   outcome,
		Detail:    detail,
		Latency:   time.Since(start),
	}

	if err := d.audit.Record(context.WithoutCancel(ctx), entry); err != nil {
		d.logger.Debug("audit trail write failed", slog.String("error", err.Error()))
	}
}

func humanizeDistance(meters float64) string {
	return humanize.SIWithDigits(meters, 1, "m")
}
