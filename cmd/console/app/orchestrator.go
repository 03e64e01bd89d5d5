package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/roman-kulish/drone-console/internal/command"
	"github.com/roman-kulish/drone-console/internal/input"
	"github.com/roman-kulish/drone-console/internal/render"
	"github.com/roman-kulish/drone-console/internal/storage"
	"github.com/roman-kulish/drone-console/internal/telemetry"
	"github.com/roman-kulish/drone-console/internal/vehicle"
	"github.com/roman-kulish/drone-console/internal/vehicle/sim"
)

const journalFile = "journal.sqlite"

// Vehicle is a connected vehicle link.
type Vehicle interface {
	telemetry.PositionSource
	vehicle.Autopilot
	Close() error
}

// Console is the operator terminal: key presses, prompt lines and the telemetry display.
type Console interface {
	input.KeySource
	command.LineSource
	render.Display
	Close() error
}

// Connector connects to the vehicle described by config.
type Connector func(ctx context.Context, config VehicleConfig, logger *slog.Logger) (Vehicle, error)

// WithConnector replaces the vehicle connector
func WithConnector(connect Connector) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.connect = connect
	}
}

// WithConsole replaces the terminal console
func WithConsole(open func() (Console, error)) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.openConsole = open
	}
}

// WithJournal replaces the SQLite session journal
func WithJournal(open func(config StorageConfig) (Journal, error)) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.openJournal = open
	}
}

// Orchestrator runs one console session: it connects the vehicle, wires telemetry to the
// display and the journal, feeds key presses to the command dispatcher and tears
// everything down in reverse order when the session ends.
type Orchestrator struct {
	config *Config
	logger *slog.Logger

	connect     Connector
	openConsole func() (Console, error)
	openJournal func(config StorageConfig) (Journal, error)
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(config *Config, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		config:      config,
		logger:      logger,
		connect:     dialVehicle,
		openConsole: openTerminal,
		openJournal: openSqliteJournal,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// Run runs the session until the operator quits, ctx is cancelled or keyboard input
// fails. It returns an error only when the session cannot be started.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	td := teardown{logger: o.logger}
	defer td.run()

	connectCtx, cancel := context.WithTimeout(ctx, o.config.Vehicle.ConnectTimeout)
	link, err := o.connect(connectCtx, o.config.Vehicle, o.logger)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting vehicle: %w", err)
	}
	td.push("vehicle link", link.Close)

	var journal Journal
	var sessionID int64
	if o.config.Storage.Enabled {
		if journal, err = o.openJournal(o.config.Storage); err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		td.push("journal", journal.Close)

		if sessionID, err = journal.CreateSession(ctx, o.config.Vehicle.Link, o.config); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		o.logger.Info("journal session started", slog.Int64("session", sessionID))
	}

	controller := vehicle.NewController(link,
		vehicle.WithTimeouts(o.config.Vehicle.Timeouts),
		vehicle.WithLogger(o.logger),
	)

	sampler := telemetry.NewSampler(link,
		telemetry.WithInterval(o.config.Telemetry.PollInterval),
		telemetry.WithLogger(o.logger),
	)

	console, err := o.openConsole()
	if err != nil {
		return fmt.Errorf("opening console: %w", err)
	}
	td.push("console", console.Close)

	sink := render.NewSink(console)
	sink.SetStatus(fmt.Sprintf("Connected to %s vehicle", o.config.Vehicle.Link))

	options := []func(*command.Dispatcher){
		command.WithLogger(o.logger),
		command.WithHome(link),
		command.WithTakeoffAltitude(o.config.Vehicle.TakeoffAltitude),
		command.WithShutdownGrace(o.config.Vehicle.ShutdownGrace),
	}
	if journal != nil {
		options = append(options, command.WithAuditTrail(&auditJournal{journal: journal, sessionID: sessionID}))
	}
	dispatcher := command.NewDispatcher(controller, sink, console, options...)
	td.push("dispatcher", dispatcher.Close)

	var inputWG sync.WaitGroup
	inputCtx, stopInput := context.WithCancel(ctx)
	td.push("input loop", func() error {
		stopInput()
		inputWG.Wait()
		return nil
	})

	loop := input.NewLoop(console,
		input.WithPollInterval(o.config.Input.PollInterval),
		input.WithLogger(o.logger),
	)

	commands := make(chan command.Command)
	inputErr := make(chan error, 1)

	inputWG.Add(2)
	go func() {
		defer inputWG.Done()
		defer close(commands)
		inputErr <- loop.Run(inputCtx, commands)
	}()
	go func() {
		defer inputWG.Done()
		dispatcher.Run(ctx, commands)
	}()

	var telemetryWG sync.WaitGroup
	telemetryCtx, stopTelemetry := context.WithCancel(ctx)
	td.push("telemetry subscriptions", func() error {
		stopTelemetry()
		telemetryWG.Wait()
		return nil
	})

	frames := sampler.Subscribe(telemetryCtx)
	telemetryWG.Add(1)
	go func() {
		defer telemetryWG.Done()
		for sample := range frames {
			sink.UpdateSample(sample)
		}
	}()

	if journal != nil {
		recorder := storage.NewRecorder(journal, sessionID, storage.WithLogger(o.logger))
		records := sampler.Subscribe(telemetryCtx)

		telemetryWG.Add(1)
		go func() {
			defer telemetryWG.Done()
			recorder.Run(telemetryCtx, records)
		}()
	}

	o.logger.Info("session started")

	select {
	case <-dispatcher.Quit():
		o.logger.Info("operator quit")

	case <-ctx.Done():
		o.logger.Info("session interrupted")

	case inErr := <-inputErr:
		if inErr != nil {
			o.logger.Error("keyboard input failed", slog.String("error", inErr.Error()))
			break
		}

		select {
		case <-dispatcher.Quit():
			o.logger.Info("operator quit")
		case <-ctx.Done():
			o.logger.Info("session interrupted")
		}
	}

	return nil
}

func dialVehicle(ctx context.Context, config VehicleConfig, logger *slog.Logger) (Vehicle, error) {
	switch config.Link {
	case LinkSim:
		link, err := sim.Dial(ctx, config.Sim, sim.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("dialing simulator: %w", err)
		}
		return link, nil

	default:
		return nil, fmt.Errorf("unknown vehicle link '%s'", config.Link)
	}
}

type terminalConsole struct {
	*input.Terminal
	display *render.Terminal
}

func (c terminalConsole) Render(sample *telemetry.Sample, status string) {
	c.display.Render(sample, status)
}

func openTerminal() (Console, error) {
	keys, err := input.NewTerminal(os.Stdin, os.Stdout)
	if err != nil {
		return nil, err
	}
	return terminalConsole{Terminal: keys, display: render.NewTerminal(os.Stdout)}, nil
}

func openSqliteJournal(config StorageConfig) (Journal, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	dir := config.DataDirectory
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(wd, dir)
	}

	if err = os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory '%s': %w", dir, err)
	}

	return storage.NewSqliteStore(filepath.Join(dir, journalFile)), nil
}
