package storage

import (
	"time"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

// Session is one console run.
type Session struct {
	ID        int64
	StartTime time.Time
	Vehicle   string
	Config    *string
}

// TelemetryRecord is a telemetry sample and the time it was received.
type TelemetryRecord struct {
	Timestamp time.Time
	Sample    telemetry.Sample
}

// CommandRecord is one entry of the command audit trail.
type CommandRecord struct {
	Timestamp time.Time
	Command   string
	Outcome   string
	Detail    string
	Latency   time.Duration
}

// TrackPoint is a recorded position of a session track.
type TrackPoint struct {
	ID        int64
	Timestamp time.Time
	telemetry.Sample
}
