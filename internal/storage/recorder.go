package storage

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

const (
	DefaultFlushInterval = time.Second
	DefaultFlushSize     = 50
)

// TelemetryWriter is the part of Store a Recorder writes to.
type TelemetryWriter interface {
	InsertTelemetry(ctx context.Context, sessionID int64, records ...TelemetryRecord) error
}

// WithFlushInterval sets how often buffered samples are written
func WithFlushInterval(interval time.Duration) func(*Recorder) {
	return func(r *Recorder) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithFlushSize sets how many buffered samples trigger an early write
func WithFlushSize(n int) func(*Recorder) {
	return func(r *Recorder) {
		if n > 0 {
			r.size = n
		}
	}
}

// WithLogger sets the logger for the recorder
func WithLogger(logger *slog.Logger) func(*Recorder) {
	return func(r *Recorder) {
		r.logger = logger.With(slog.String("component", "recorder"))
	}
}

// Recorder journals a stream of telemetry samples in batches. Write failures are logged
// and the failed batch is dropped.
type Recorder struct {
	store     TelemetryWriter
	sessionID int64
	interval  time.Duration
	size      int
	logger    *slog.Logger

	buf []TelemetryRecord
	now func() time.Time
}

// NewRecorder creates a new Recorder with a discard logger
func NewRecorder(store TelemetryWriter, sessionID int64, options ...func(*Recorder)) *Recorder {
	r := Recorder{
		store:     store,
		sessionID: sessionID,
		interval:  DefaultFlushInterval,
		size:      DefaultFlushSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

// Run records samples until the channel is closed or ctx is cancelled, then writes what
// is still buffered.
func (r *Recorder) Run(ctx context.Context, samples <-chan telemetry.Sample) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	defer r.flush(context.WithoutCancel(ctx))

	for {
		select {
		case <-ctx.Done():
			r.drain(samples)
			return

		case sample, ok := <-samples:
			if !ok {
				return
			}

			r.add(sample)
			if len(r.buf) >= r.size {
				r.flush(ctx)
			}

		case <-ticker.C:
			r.flush(ctx)
		}
	}
}

func (r *Recorder) add(sample telemetry.Sample) {
	r.buf = append(r.buf, TelemetryRecord{Timestamp: r.now().UTC(), Sample: sample})
}

// drain buffers the samples already queued without waiting for more.
func (r *Recorder) drain(samples <-chan telemetry.Sample) {
	for {
		select {
		case sample, ok := <-samples:
			if !ok {
				return
			}
			r.add(sample)
		default:
			return
		}
	}
}

func (r *Recorder) flush(ctx context.Context) {
	if len(r.buf) == 0 {
		return
	}

	if err := r.store.InsertTelemetry(ctx, r.sessionID, r.buf...); err != nil {
		r.logger.Warn("dropping telemetry batch", slog.Int("samples", len(r.buf)), slog.String("error", err.Error()))
	} else {
		r.logger.Debug("telemetry batch recorded", slog.Int("samples", len(r.buf)))
	}

	r.buf = r.buf[:0]
}
