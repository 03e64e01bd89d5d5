package app

import (
	"context"

	"github.com/roman-kulish/drone-console/internal/command"
	"github.com/roman-kulish/drone-console/internal/storage"
)

// Journal is the part of the session journal the console writes to.
type Journal interface {
	storage.TelemetryWriter
	CreateSession(ctx context.Context, vehicle string, config any) (int64, error)
	InsertCommand(ctx context.Context, sessionID int64, record storage.CommandRecord) error
	Close() error
}

// auditJournal appends dispatcher audit entries to a journal session.
type auditJournal struct {
	journal   Journal
	sessionID int64
}

func (a *auditJournal) Record(ctx context.Context, entry command.AuditEntry) error {
	return a.journal.InsertCommand(ctx, a.sessionID, storage.CommandRecord{
		Timestamp: entry.Timestamp,
		Command:   entry.Command,
		Outcome:   entry.Outcome,
		Detail:    entry.Detail,
		Latency:   entry.Latency,
	})
}
