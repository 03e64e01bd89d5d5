package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

var home = telemetry.GeoPoint{Lat: 47.3977419, Lon: 8.5455938, Alt: 488}

func testLink() *Link {
	return newLink(Config{Home: home, Speed: 10, ClimbRate: 2})
}

func advance(l *Link, seconds float64) {
	for i := 0; i < int(seconds*10); i++ {
		l.step(0.1)
	}
}

func position(t *testing.T, l *Link) telemetry.Sample {
	t.Helper()

	raw, ok := l.TryGetCurrentPosition()
	require.True(t, ok)
	return telemetry.Convert(raw)
}

func TestLink_RejectsTakeOffOutsideGuidedMode(t *testing.T) {
	l := testLink()
	ctx := context.Background()

	assert.ErrorIs(t, l.TakeOff(ctx, 10), ErrNotGuided)

	require.NoError(t, l.SetGuidedMode(ctx))
	assert.True(t, l.IsGuidedMode())
	assert.ErrorIs(t, l.TakeOff(ctx, -1), ErrBadRequest)
	require.NoError(t, l.TakeOff(ctx, 10))
	assert.ErrorIs(t, l.TakeOff(ctx, 10), ErrAirborne)
}

func TestLink_RejectsGroundCommands(t *testing.T) {
	l := testLink()
	ctx := context.Background()
	require.NoError(t, l.SetGuidedMode(ctx))

	assert.ErrorIs(t, l.Land(ctx), ErrOnGround)
	assert.ErrorIs(t, l.ReturnToLaunch(ctx), ErrOnGround)
	assert.ErrorIs(t, l.GoTo(ctx, home), ErrOnGround)
}

func TestLink_FlightCycle(t *testing.T) {
	l := testLink()
	ctx := context.Background()

	start := position(t, l)
	assert.Equal(t, 488.0, start.AbsAlt)
	assert.Zero(t, start.RelAlt)

	require.NoError(t, l.SetGuidedMode(ctx))
	require.NoError(t, l.TakeOff(ctx, 10))

	advance(l, 1)
	climbing := position(t, l)
	assert.InDelta(t, 2.0, climbing.RelAlt, 0.01)
	assert.InDelta(t, 2.0, climbing.Vz, 0.01)

	advance(l, 5)
	assert.Equal(t, hovering, l.state)
	hover := position(t, l)
	assert.InDelta(t, 10.0, hover.RelAlt, 0.01)
	assert.Zero(t, hover.Vz)

	target := telemetry.Offset(home, 100, 0)
	target.Alt = 508
	require.NoError(t, l.GoTo(ctx, target))

	advance(l, 5)
	halfway := position(t, l)
	assert.InDelta(t, 50, telemetry.Distance(home, halfway.Point()), 1)

	advance(l, 6)
	assert.Equal(t, hovering, l.state)
	arrived := position(t, l)
	assert.InDelta(t, 0, telemetry.Distance(target, arrived.Point()), 0.1)
	assert.InDelta(t, 20.0, arrived.RelAlt, 0.01)

	require.NoError(t, l.ReturnToLaunch(ctx))
	advance(l, 11)
	assert.Equal(t, landing, l.state)
	assert.InDelta(t, 0, telemetry.Distance(home, position(t, l).Point()), 0.1)

	advance(l, 11)
	assert.Equal(t, landed, l.state)
	assert.False(t, l.IsGuidedMode())
	assert.Zero(t, position(t, l).RelAlt)
}

func TestLink_LandFromHover(t *testing.T) {
	l := testLink()
	ctx := context.Background()

	require.NoError(t, l.SetGuidedMode(ctx))
	require.NoError(t, l.TakeOff(ctx, 4))
	advance(l, 3)

	require.NoError(t, l.Land(ctx))
	advance(l, 1)
	assert.InDelta(t, -2.0, position(t, l).Vz, 0.01)

	advance(l, 2)
	assert.Equal(t, landed, l.state)
}

func TestLink_AckLatencyHonoursContext(t *testing.T) {
	l := newLink(Config{Home: home, AckLatency: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, l.SetGuidedMode(ctx), context.DeadlineExceeded)
	assert.False(t, l.IsGuidedMode())
}

func TestDial(t *testing.T) {
	l, err := Dial(context.Background(), Config{Home: home, AckLatency: time.Millisecond})
	require.NoError(t, err)

	got, ok := l.HomePosition()
	assert.True(t, ok)
	assert.Equal(t, home, got)

	require.NoError(t, l.SetGuidedMode(context.Background()))
	require.NoError(t, l.TakeOff(context.Background(), 1))

	require.Eventually(t, func() bool {
		raw, ok := l.TryGetCurrentPosition()
		return ok && telemetry.Convert(raw).RelAlt > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	_, ok = l.TryGetCurrentPosition()
	assert.False(t, ok)
	assert.ErrorIs(t, l.Land(context.Background()), ErrClosed)
}

func TestDial_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Dial(ctx, Config{AckLatency: time.Second})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Defaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, DefaultConfig().Home, c.Home)
	assert.Equal(t, 5.0, c.Speed)
	assert.Equal(t, 2.5, c.ClimbRate)
}
