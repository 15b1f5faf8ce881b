// Package notify delivers human-readable payslip events: the "payslip
// secured" confirmation after ingest and the month-over-month change report.
package notify

import (
	"context"
	"time"

	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip"
)

// StoredEvent describes a payslip that was just encrypted and vaulted.
type StoredEvent struct {
	Filename string
	BlobID   string
	BlobName string
	StoredAt time.Time
}

// Notifier is the delivery boundary. The pipeline has no knowledge of the
// delivery mechanism behind it.
type Notifier interface {
	// PayslipStored announces a freshly vaulted payslip.
	PayslipStored(ctx context.Context, event StoredEvent) error

	// PayslipChanges delivers the ordered change report for a period.
	PayslipChanges(ctx context.Context, periodDate time.Time, changes []payslip.Change) error
}

// Multi fans an event out to several sinks; the first error wins but all
// sinks are attempted.
type Multi []Notifier

var _ Notifier = (Multi)(nil)

func (m Multi) PayslipStored(ctx context.Context, event StoredEvent) error {
	var firstErr error
	for _, n := range m {
		if err := n.PayslipStored(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m Multi) PayslipChanges(ctx context.Context, periodDate time.Time, changes []payslip.Change) error {
	var firstErr error
	for _, n := range m {
		if err := n.PayslipChanges(ctx, periodDate, changes); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
