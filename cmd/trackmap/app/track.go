package app

import (
	"math"
	"time"

	"github.com/roman-kulish/drone-console/internal/storage"
	"github.com/roman-kulish/drone-console/internal/telemetry"
)

// TrackData accumulates a session track and its extent.
type TrackData struct {
	Session *storage.Session
	Points  []storage.TrackPoint

	LatMin, LatMax               float64
	LonMin, LonMax               float64
	AltMin, AltMax               float64 // relative altitude
	TimestampStart, TimestampEnd time.Time
	Distance                     float64 // metres flown
}

func NewTrackData() *TrackData {
	return &TrackData{
		LatMin: math.MaxFloat64,
		LatMax: -math.MaxFloat64,
		LonMin: math.MaxFloat64,
		LonMax: -math.MaxFloat64,
		AltMin: math.MaxFloat64,
		AltMax: -math.MaxFloat64,
	}
}

func (t *TrackData) Update(p storage.TrackPoint) {
	if n := len(t.Points); n > 0 {
		t.Distance += telemetry.Distance(t.Points[n-1].Point(), p.Point())
	}
	t.Points = append(t.Points, p)

	t.LatMin = min(t.LatMin, p.Lat)
	t.LatMax = max(t.LatMax, p.Lat)
	t.LonMin = min(t.LonMin, p.Lon)
	t.LonMax = max(t.LonMax, p.Lon)
	t.AltMin = min(t.AltMin, p.RelAlt)
	t.AltMax = max(t.AltMax, p.RelAlt)

	if t.TimestampStart.IsZero() || t.TimestampStart.After(p.Timestamp) {
		t.TimestampStart = p.Timestamp
	}
	if t.TimestampEnd.IsZero() || t.TimestampEnd.Before(p.Timestamp) {
		t.TimestampEnd = p.Timestamp
	}
}

// Empty reports whether the track has no points.
func (t *TrackData) Empty() bool {
	return len(t.Points) == 0
}
