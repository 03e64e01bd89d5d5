package telemetry

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultPollInterval is how often the position source is polled.
	DefaultPollInterval = 200 * time.Millisecond

	subscriberBuffer = 8
)

// WithInterval sets the polling interval of the sampler
func WithInterval(interval time.Duration) func(*Sampler) {
	return func(s *Sampler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithLogger sets the logger for the sampler
func WithLogger(logger *slog.Logger) func(*Sampler) {
	return func(s *Sampler) {
		s.logger = logger.With(slog.String("component", "sampler"))
	}
}

// Sampler polls a PositionSource and publishes de-duplicated samples to any number of
// subscribers. All subscribers share one poller: the first subscription starts it and the
// last cancellation stops it. Each start begins with an empty de-duplication cache.
// A subscriber joining a running poller first receives the last sample it published.
type Sampler struct {
	source   PositionSource
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	subs   map[uint64]chan Sample
	nextID uint64
	cancel context.CancelFunc // stops the running poller, nil while idle
	done   chan struct{}      // closed when the running poller exits
	last   *Sample            // last sample published by the running poller
}

// NewSampler creates a new Sampler with a discard logger
func NewSampler(source PositionSource, options ...func(*Sampler)) *Sampler {
	s := Sampler{
		source:   source,
		interval: DefaultPollInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:     make(map[uint64]chan Sample),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// Subscribe returns a stream of samples that is closed once ctx is cancelled.
// Samples are emitted only when the converted reading differs from the previous one.
// A subscriber that falls behind loses its oldest queued samples, never the newest.
func (s *Sampler) Subscribe(ctx context.Context) <-chan Sample {
	ch := make(chan Sample, subscriberBuffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	if len(s.subs) == 1 {
		s.start()
	} else if s.last != nil {
		ch <- *s.last
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.unsubscribe(id)
	}()

	return ch
}

// Subscribers returns the number of active subscriptions.
func (s *Sampler) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// start launches a poller. Caller must hold s.mu.
func (s *Sampler) start() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	s.last = nil

	s.logger.Debug("polling started", slog.Duration("interval", s.interval))
	go s.poll(ctx, done)
}

func (s *Sampler) unsubscribe(id uint64) {
	s.mu.Lock()
	ch, ok := s.subs[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.subs, id)
	close(ch)

	var done chan struct{}
	if len(s.subs) == 0 && s.cancel != nil {
		s.cancel()
		done = s.done
		s.cancel, s.done = nil, nil
		s.last = nil
	}
	s.mu.Unlock()

	if done != nil {
		<-done // the poller takes s.mu to publish, so wait outside of it
		s.logger.Debug("polling stopped")
	}
}

func (s *Sampler) poll(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var d deduper
	for {
		if sample, ok := d.next(s.source); ok {
			s.publish(ctx, sample)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sampler) publish(ctx context.Context, sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return // this poller was stopped while reading the source
	}
	s.last = &sample

	for _, ch := range s.subs {
		select {
		case ch <- sample:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- sample // s.mu makes this the only sender, so there is room now
		}
	}
}

// deduper remembers the last emitted sample of one poller.
type deduper struct {
	last    Sample
	hasLast bool
}

// next reads the source once and reports whether the reading is a new sample.
func (d *deduper) next(source PositionSource) (Sample, bool) {
	raw, ok := source.TryGetCurrentPosition()
	if !ok {
		return Sample{}, false
	}

	sample := Convert(raw)
	if d.hasLast && sample == d.last {
		return Sample{}, false
	}

	d.last, d.hasLast = sample, true
	return sample, true
}
