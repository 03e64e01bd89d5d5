package render

import (
	"sync"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

// MaxStatusLength is the longest status, in runes, shown before truncation.
const MaxStatusLength = 120

// Display draws one frame. Implementations must not panic.
type Display interface {
	Render(sample *telemetry.Sample, status string)
}

// Sink holds the latest sample and status line and redraws the display whenever either
// changes. Redraws are withheld while the sink is suppressed.
type Sink struct {
	display Display

	mu         sync.Mutex
	sample     *telemetry.Sample
	status     string
	suppressed int
}

// NewSink creates a new Sink drawing to display.
func NewSink(display Display) *Sink {
	return &Sink{display: display}
}

// UpdateSample stores sample as the latest telemetry and redraws.
func (s *Sink) UpdateSample(sample telemetry.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sample = &sample
	s.render()
}

// SetStatus replaces the status line and redraws. An empty status clears it.
func (s *Sink) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = truncate(status)
	s.render()
}

// Suppress withholds redraws until the returned release is called. Suppression nests, and
// the release of the last holder redraws with the latest values. Calling release more than
// once has no further effect.
func (s *Sink) Suppress() (release func()) {
	s.mu.Lock()
	s.suppressed++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			s.suppressed--
			s.render()
		})
	}
}

// LastSample returns the latest sample, if any.
func (s *Sink) LastSample() (telemetry.Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sample == nil {
		return telemetry.Sample{}, false
	}
	return *s.sample, true
}

// Status returns the current status line.
func (s *Sink) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// render must be called with s.mu held.
func (s *Sink) render() {
	if s.suppressed > 0 {
		return
	}

	var sample *telemetry.Sample
	if s.sample != nil {
		v := *s.sample
		sample = &v
	}
	s.display.Render(sample, s.status)
}

func truncate(status string) string {
	runes := []rune(status)
	if len(runes) <= MaxStatusLength {
		return status
	}
	return string(runes[:MaxStatusLength]) + "..."
}
