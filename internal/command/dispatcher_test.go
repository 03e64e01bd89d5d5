package command

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

type call struct {
	name string
	args []float64
}

type fakeController struct {
	mu    sync.Mutex
	calls []call
	errs  map[string]error
	panic string
}

func (c *fakeController) do(name string, args ...float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, call{name: name, args: args})
	if c.panic == name {
		panic("boom")
	}
	return c.errs[name]
}

func (c *fakeController) EnterAutonomousMode(context.Context) error { return c.do("mode") }
func (c *fakeController) AscendTo(_ context.Context, alt float64) error {
	return c.do("ascend", alt)
}
func (c *fakeController) Land(context.Context) error         { return c.do("land") }
func (c *fakeController) ReturnToHome(context.Context) error { return c.do("rtl") }
func (c *fakeController) GoTo(_ context.Context, lat, lon, alt float64) error {
	return c.do("goto", lat, lon, alt)
}

func (c *fakeController) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var names []string
	for _, cl := range c.calls {
		names = append(names, cl.name)
	}
	return names
}

type fakeSink struct {
	mu       sync.Mutex
	statuses []string
	depth    int
	sample   *telemetry.Sample
}

func (s *fakeSink) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

func (s *fakeSink) Suppress() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depth++

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.depth--
		})
	}
}

func (s *fakeSink) LastSample() (telemetry.Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sample == nil {
		return telemetry.Sample{}, false
	}
	return *s.sample, true
}

func (s *fakeSink) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

func (s *fakeSink) suppressed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth
}

// scriptedLines answers prompts from a fixed script. Once the script is exhausted it blocks
// until the context is cancelled.
type scriptedLines struct {
	mu      sync.Mutex
	lines   []string
	prompts []string
	eof     bool
}

func (l *scriptedLines) ReadLine(ctx context.Context, prompt string) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	if len(l.lines) > 0 {
		line := l.lines[0]
		l.lines = l.lines[1:]
		l.mu.Unlock()
		return line, nil
	}
	eof := l.eof
	l.mu.Unlock()

	if eof {
		return "", io.EOF
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func (l *scriptedLines) asked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (a *memoryAudit) Record(_ context.Context, entry AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return a.err
}

func (a *memoryAudit) outcomes() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []string
	for _, e := range a.entries {
		out = append(out, e.Command+":"+e.Outcome)
	}
	return out
}

type fixedHome struct{ p telemetry.GeoPoint }

func (h fixedHome) HomePosition() (telemetry.GeoPoint, bool) { return h.p, true }

func runOne(t *testing.T, d *Dispatcher, cmd Command) {
	t.Helper()
	require.True(t, d.Dispatch(cmd))
	require.NoError(t, d.Close())
}

func TestDispatcher_GoToResolvesRelativeAltitude(t *testing.T) {
	ctrl := &fakeController{}
	sink := &fakeSink{sample: &telemetry.Sample{Lat: 47, Lon: 8, AbsAlt: 500, RelAlt: 50}}
	lines := &scriptedLines{lines: []string{"47.1", "8,2", "20"}}
	audit := &memoryAudit{}

	d := NewDispatcher(ctrl, sink, lines, WithAuditTrail(audit))
	runOne(t, d, GoTo)

	require.Len(t, ctrl.calls, 1)
	assert.Equal(t, "goto", ctrl.calls[0].name)
	assert.InDeltaSlice(t, []float64{47.1, 8.2, 520}, ctrl.calls[0].args, 1e-9)
	assert.Equal(t, "GoTo completed", sink.last())
	assert.Zero(t, sink.suppressed())
	assert.Equal(t, []string{"goTo:SUCCESS"}, audit.outcomes())

	var sawRoute bool
	for _, s := range sink.statuses {
		if strings.HasPrefix(s, "GoTo 47.0000000,8.0000000") && strings.Contains(s, "→ 47.1000000,8.2000000 @520.00m") {
			sawRoute = true
		}
	}
	assert.True(t, sawRoute, "statuses: %v", sink.statuses)
}

func TestDispatcher_GoToWithoutSampleUsesAbsoluteAltitude(t *testing.T) {
	ctrl := &fakeController{}
	lines := &scriptedLines{lines: []string{"47.1", "8.2", "120"}}

	d := NewDispatcher(ctrl, &fakeSink{}, lines)
	runOne(t, d, GoTo)

	require.Len(t, ctrl.calls, 1)
	assert.InDeltaSlice(t, []float64{47.1, 8.2, 120}, ctrl.calls[0].args, 1e-9)
}

func TestDispatcher_GoToInvalidInputAborts(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		field string
	}{
		{"latitude not a number", []string{"abc"}, "latitude"},
		{"latitude out of range", []string{"91"}, "latitude"},
		{"longitude out of range", []string{"47", "-180.5"}, "longitude"},
		{"altitude not a number", []string{"47", "8", "high"}, "altitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			sink := &fakeSink{}
			audit := &memoryAudit{}
			lines := &scriptedLines{lines: tt.lines}

			d := NewDispatcher(ctrl, sink, lines, WithAuditTrail(audit))
			runOne(t, d, GoTo)

			assert.Empty(t, ctrl.calls)
			assert.Equal(t, len(tt.lines), lines.asked(), "prompting stops at the first invalid field")
			assert.Contains(t, sink.last(), "GoTo aborted: invalid "+tt.field)
			assert.Zero(t, sink.suppressed())
			assert.Equal(t, []string{"goTo:INVALID_INPUT"}, audit.outcomes())
		})
	}
}

func TestDispatcher_GoToWithoutInput(t *testing.T) {
	ctrl := &fakeController{}
	sink := &fakeSink{}

	d := NewDispatcher(ctrl, sink, &scriptedLines{eof: true})
	runOne(t, d, GoTo)

	assert.Empty(t, ctrl.calls)
	assert.Equal(t, "GoTo error: no input", sink.last())
	assert.Zero(t, sink.suppressed())
}

func TestDispatcher_TakeOff(t *testing.T) {
	ctrl := &fakeController{}
	sink := &fakeSink{}

	d := NewDispatcher(ctrl, sink, &scriptedLines{}, WithTakeoffAltitude(15))
	runOne(t, d, TakeOff)

	assert.Equal(t, []string{"mode", "ascend"}, ctrl.names())
	assert.Equal(t, []float64{15}, ctrl.calls[1].args)
	assert.Equal(t, "Take-off to 15 m accepted", sink.last())
}

func TestDispatcher_TakeOffStopsWhenModeFails(t *testing.T) {
	ctrl := &fakeController{errs: map[string]error{"mode": errors.New("mode not confirmed")}}
	sink := &fakeSink{}
	audit := &memoryAudit{}

	d := NewDispatcher(ctrl, sink, &scriptedLines{}, WithAuditTrail(audit))
	runOne(t, d, TakeOff)

	assert.Equal(t, []string{"mode"}, ctrl.names())
	assert.Equal(t, "Take-off error: mode not confirmed", sink.last())
	assert.Equal(t, []string{"takeoff:ERROR"}, audit.outcomes())
}

func TestDispatcher_FailureDoesNotBlockLaterCommands(t *testing.T) {
	ctrl := &fakeController{errs: map[string]error{"land": errors.New("rejected")}}
	sink := &fakeSink{}
	audit := &memoryAudit{err: errors.New("disk full")}

	d := NewDispatcher(ctrl, sink, &scriptedLines{})

	require.True(t, d.Dispatch(Land))
	require.Eventually(t, func() bool { return sink.last() == "Land error: rejected" }, time.Second, time.Millisecond)

	d = NewDispatcher(ctrl, sink, &scriptedLines{}, WithAuditTrail(audit))
	runOne(t, d, TakeOff)

	assert.Equal(t, []string{"land", "mode", "ascend"}, ctrl.names())
	assert.Equal(t, "Take-off to 10 m accepted", sink.last())
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	ctrl := &fakeController{panic: "land"}
	sink := &fakeSink{}

	d := NewDispatcher(ctrl, sink, &scriptedLines{})
	runOne(t, d, Land)

	assert.Equal(t, "Land error: panic: boom", sink.last())
	assert.True(t, d.closed)
}

func TestDispatcher_ReturnHomeNamesDistance(t *testing.T) {
	home := telemetry.GeoPoint{Lat: 47, Lon: 8, Alt: 450}
	sample := telemetry.Sample{Lat: 47.01, Lon: 8, AbsAlt: 500}
	sink := &fakeSink{sample: &sample}

	d := NewDispatcher(&fakeController{}, sink, &scriptedLines{}, WithHome(fixedHome{home}))
	runOne(t, d, ReturnHome)

	require.GreaterOrEqual(t, len(sink.statuses), 2)
	assert.Equal(t, "Returning home (1.1 km away)...", sink.statuses[0])
	assert.Equal(t, "Return home accepted", sink.last())
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	ctrl := &fakeController{}
	sink := &fakeSink{}

	d := NewDispatcher(ctrl, sink, &scriptedLines{})
	runOne(t, d, Unknown)

	assert.Empty(t, ctrl.calls)
	assert.Equal(t, "Unknown command: unknown", sink.last())
}

func TestDispatcher_QuitDuringGoToPrompt(t *testing.T) {
	ctrl := &fakeController{}
	sink := &fakeSink{}
	lines := &scriptedLines{}
	audit := &memoryAudit{}

	d := NewDispatcher(ctrl, sink, lines, WithAuditTrail(audit), WithShutdownGrace(20*time.Millisecond))

	in := make(chan Command)
	ranOut := make(chan struct{})
	go func() {
		defer close(ranOut)
		d.Run(context.Background(), in)
	}()

	in <- GoTo
	require.Eventually(t, func() bool { return lines.asked() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, sink.suppressed())

	in <- Quit
	select {
	case <-d.Quit():
	case <-time.After(time.Second):
		t.Fatal("quit was not signalled")
	}
	<-ranOut

	require.NoError(t, d.Close())

	assert.Empty(t, ctrl.calls)
	assert.Equal(t, "GoTo cancelled", sink.last())
	assert.Zero(t, sink.suppressed())
	assert.Equal(t, []string{"goTo:CANCELLED"}, audit.outcomes())
	assert.False(t, d.Dispatch(Land))
}

func TestDispatcher_RunCancellationReachesCommands(t *testing.T) {
	sink := &fakeSink{}
	lines := &scriptedLines{}

	d := NewDispatcher(&fakeController{}, sink, lines)

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan Command, 1)
	in <- GoTo

	ranOut := make(chan struct{})
	go func() {
		defer close(ranOut)
		d.Run(ctx, in)
	}()

	require.Eventually(t, func() bool { return lines.asked() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-ranOut

	require.Eventually(t, func() bool { return sink.last() == "GoTo cancelled" }, time.Second, time.Millisecond)
	require.NoError(t, d.Close())
}
