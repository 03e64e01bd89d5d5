package command

import (
	"context"
	"time"
)

const (
	OutcomeSuccess   = "SUCCESS"
	OutcomeError     = "ERROR"
	OutcomeInvalid   = "INVALID_INPUT"
	OutcomeCancelled = "CANCELLED"
)

// AuditEntry is one record of the command audit trail.
type AuditEntry struct {
	Timestamp time.Time
	Command   string
	Outcome   string
	Detail    string
	Latency   time.Duration
}

// AuditTrail stores audit entries. Writes are best effort: the dispatcher ignores failures.
type AuditTrail interface {
	Record(ctx context.Context, entry AuditEntry) error
}
