package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DefaultTrackBatchSize is the number of points a TrackReader fetches per query.
const DefaultTrackBatchSize = 1000

// TrackOption configures a TrackReader.
type TrackOption func(*SqliteTrackReader)

// WithTimeRange limits the track to points recorded between start and end, inclusive.
// A zero time leaves that side of the range open.
func WithTimeRange(start, end time.Time) TrackOption {
	return func(r *SqliteTrackReader) {
		if !start.IsZero() {
			r.startTime = &start
		}
		if !end.IsZero() {
			r.endTime = &end
		}
	}
}

// WithBatchSize sets how many points are fetched per query.
func WithBatchSize(n int) TrackOption {
	return func(r *SqliteTrackReader) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// SqliteTrackReader implements TrackReader with keyset pagination over the telemetry table.
type SqliteTrackReader struct {
	db        *sql.DB
	sessionID int64
	session   *Session
	batchSize int

	startTime *time.Time
	endTime   *time.Time

	page    []TrackPoint
	pos     int
	lastID  int64
	current TrackPoint
	done    bool
	err     error
}

func newSqliteTrackReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...TrackOption) (*SqliteTrackReader, error) {
	r := &SqliteTrackReader{
		db:        db,
		sessionID: sessionID,
		batchSize: DefaultTrackBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *SqliteTrackReader) init(ctx context.Context) (err error) {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.sessionID <= 0 {
		return errors.New("session ID required")
	}
	if r.startTime != nil && r.endTime != nil && r.startTime.After(*r.endTime) {
		return fmt.Errorf("start time %s is after end time %s", r.startTime, r.endTime)
	}

	if r.session, err = loadSession(ctx, r.db, r.sessionID); err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	return nil
}

func (r *SqliteTrackReader) fetch(ctx context.Context) (err error) {
	start, end := toNullTime(r.startTime), toNullTime(r.endTime)

	rows, err := r.db.QueryContext(ctx, selectTrackSQL, r.sessionID, r.lastID, start, start, end, end, r.batchSize)
	if err != nil {
		return fmt.Errorf("querying track: %w", err)
	}
	defer closeWithError(rows, &err)

	r.page = r.page[:0]
	r.pos = 0

	for rows.Next() {
		var p TrackPoint
		if err = rows.Scan(&p.ID, &p.Timestamp, &p.Lat, &p.Lon, &p.AbsAlt, &p.RelAlt, &p.Vz); err != nil {
			return fmt.Errorf("scanning track point: %w", err)
		}
		r.page = append(r.page, p)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterating track: %w", err)
	}
	return nil
}

func (r *SqliteTrackReader) Session() *Session {
	return r.session
}

func (r *SqliteTrackReader) Next(ctx context.Context) bool {
	if r.err != nil || r.done {
		return false
	}

	if err := ctx.Err(); err != nil {
		r.err = err
		return false
	}

	if r.pos >= len(r.page) {
		if r.err = r.fetch(ctx); r.err != nil {
			return false
		}
		if len(r.page) == 0 {
			r.done = true
			return false
		}
	}

	r.current = r.page[r.pos]
	r.lastID = r.current.ID
	r.pos++
	return true
}

func (r *SqliteTrackReader) Current() TrackPoint {
	return r.current
}

func (r *SqliteTrackReader) Error() error {
	return r.err
}

func (r *SqliteTrackReader) Close() error {
	r.page = nil
	r.done = true
	return nil
}
