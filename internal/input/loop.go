package input

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roman-kulish/drone-console/internal/command"
)

// DefaultPollInterval is how long the loop idles when no key is waiting.
const DefaultPollInterval = 50 * time.Millisecond

// KeySource reports a pending key press without blocking.
type KeySource interface {
	TryReadKey() (key rune, ok bool, err error)
}

// WithPollInterval sets how long the loop idles between empty reads
func WithPollInterval(interval time.Duration) func(*Loop) {
	return func(l *Loop) {
		if interval > 0 {
			l.interval = interval
		}
	}
}

// WithLogger sets the logger for the input loop
func WithLogger(logger *slog.Logger) func(*Loop) {
	return func(l *Loop) {
		l.logger = logger.With(slog.String("component", "input"))
	}
}

// Loop turns key presses into commands.
type Loop struct {
	keys     KeySource
	interval time.Duration
	logger   *slog.Logger
}

// NewLoop creates a new Loop with a discard logger
func NewLoop(keys KeySource, options ...func(*Loop)) *Loop {
	l := Loop{
		keys:     keys,
		interval: DefaultPollInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}

// Run publishes a command for every mapped key until ctx is cancelled or Quit has been
// published. Unmapped keys are dropped. It returns nil on cancellation and quit, and an
// error only when the key source fails.
func (l *Loop) Run(ctx context.Context, out chan<- command.Command) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		key, ok, err := l.keys.TryReadKey()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}

		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			continue
		}

		cmd, ok := Lookup(key)
		if !ok {
			l.logger.Debug("unmapped key", slog.String("key", string(key)))
			continue
		}

		select {
		case out <- cmd:
		case <-ctx.Done():
			return nil
		}

		if cmd == command.Quit {
			return nil
		}
	}
}
