// Package repository persists encrypted payslip records keyed by their vault
// blob identifier.
package repository

import (
	"context"
	"time"
)

// PreviousPayslip is the most recent stored period strictly before a given
// date, with its still-encrypted payload.
type PreviousPayslip struct {
	PeriodDate time.Time
	Payload    []byte
}

// StoredRecord is one stored period row with its still-encrypted payload.
type StoredRecord struct {
	SourceID   string
	PeriodDate time.Time
	Payload    []byte
}

// PayslipRepository is the structured-store boundary. Rows are immutable:
// the only write operations are insert-if-absent and delete, which is what
// makes concurrent operation of the live ingestion path and the reconciler
// safe without locking.
type PayslipRepository interface {
	// InsertIfAbsent stores an encrypted record for the given source blob.
	// A row already existing for sourceID is success, not an error.
	InsertIfAbsent(ctx context.Context, sourceID string, periodDate time.Time, payload []byte) error

	// ExistsBySourceID reports whether a row exists for the source blob.
	ExistsBySourceID(ctx context.Context, sourceID string) (bool, error)

	// GetPreviousBefore returns the most recent row strictly earlier than
	// periodDate, or nil when no earlier period is stored.
	GetPreviousBefore(ctx context.Context, periodDate time.Time) (*PreviousPayslip, error)

	// DeleteBySourceID removes the row for the source blob, if any.
	DeleteBySourceID(ctx context.Context, sourceID string) error

	// ListAllSourceIDs returns every source blob identifier with a stored row.
	ListAllSourceIDs(ctx context.Context) ([]string, error)

	// ListAll returns every stored row ordered by period date ascending.
	ListAll(ctx context.Context) ([]StoredRecord, error)
}
