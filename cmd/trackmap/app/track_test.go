package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roman-kulish/drone-console/internal/storage"
	"github.com/roman-kulish/drone-console/internal/telemetry"
)

func trackPoint(ts time.Time, lat, lon, rel float64) storage.TrackPoint {
	return storage.TrackPoint{
		Timestamp: ts,
		Sample:    telemetry.Sample{Lat: lat, Lon: lon, AbsAlt: 584 + rel, RelAlt: rel},
	}
}

func testTrack(t *testing.T) *TrackData {
	t.Helper()

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	home := telemetry.GeoPoint{Lat: -35.3632621, Lon: 149.1652374}

	track := NewTrackData()
	for i := 0; i <= 20; i++ {
		p := telemetry.Offset(home, float64(i)*10, float64(i)*5)
		track.Update(trackPoint(start.Add(time.Duration(i)*time.Second), p.Lat, p.Lon, float64(i)))
	}
	return track
}

func TestTrackData_Update(t *testing.T) {
	track := testTrack(t)

	assert.Len(t, track.Points, 21)
	assert.False(t, track.Empty())
	assert.Equal(t, 0.0, track.AltMin)
	assert.Equal(t, 20.0, track.AltMax)
	assert.Less(t, track.LatMin, track.LatMax)
	assert.Less(t, track.LonMin, track.LonMax)
	assert.Equal(t, 20*time.Second, track.TimestampEnd.Sub(track.TimestampStart))

	// 20 legs of sqrt(10^2 + 5^2) metres
	assert.InDelta(t, 223.6, track.Distance, 0.5)
}

func TestTrackData_OutOfOrderTimestamps(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	track := NewTrackData()
	track.Update(trackPoint(base.Add(time.Minute), 1, 1, 0))
	track.Update(trackPoint(base, 1, 1, 0))

	assert.Equal(t, base, track.TimestampStart)
	assert.Equal(t, base.Add(time.Minute), track.TimestampEnd)
	assert.Zero(t, track.Distance)
}

func TestTrackData_Empty(t *testing.T) {
	assert.True(t, NewTrackData().Empty())
}
