package storage

import (
	"context"
)

// Store provides an interface for the session journal of the drone console. It records
// sessions, the telemetry received during a session and the outcome of every operator
// command. It is safe for concurrent use.
type Store interface {
	// CreateSession starts a new journal session and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - vehicle: Name of the vehicle link (e.g., "sim")
	//   - config: Optional console configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - sessionID: Unique identifier for the created session
	//   - error: If session creation fails or context is cancelled
	CreateSession(ctx context.Context, vehicle string, config any) (sessionID int64, err error)

	// Session retrieves a session by its ID.
	//
	// Returns an error wrapping sql.ErrNoRows if the session does not exist.
	Session(ctx context.Context, id int64) (session *Session, err error)

	// Sessions returns all sessions ordered by start time.
	Sessions(ctx context.Context) (sessions []*Session, err error)

	// InsertTelemetry saves telemetry records of a session in a single transaction.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - sessionID: ID of the session the records belong to
	//   - records: Telemetry samples with their receive time
	//
	// Returns:
	//   - error: If storage fails or context is cancelled. No record is stored on error.
	InsertTelemetry(ctx context.Context, sessionID int64, records ...TelemetryRecord) error

	// InsertCommand appends a command outcome to the audit trail of a session.
	InsertCommand(ctx context.Context, sessionID int64, record CommandRecord) error

	// Commands returns the audit trail of a session in insertion order.
	Commands(ctx context.Context, sessionID int64) ([]CommandRecord, error)

	// Track returns a reader over the recorded positions of a session, oldest first.
	// The returned reader must be closed after use.
	Track(ctx context.Context, sessionID int64, opts ...TrackOption) (TrackReader, error)

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}

// TrackReader iterates over the positions of a session track.
type TrackReader interface {
	// Session returns the session the track belongs to.
	Session() *Session

	// Next advances to the next point. It returns false at the end of the track or on
	// error; Error tells the two apart.
	Next(ctx context.Context) bool

	// Current returns the point Next advanced to.
	Current() TrackPoint

	// Error returns the error that stopped the iteration, if any.
	Error() error

	// Close releases the reader.
	Close() error
}
