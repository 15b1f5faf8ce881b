package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip/parser"
	"github.com/FACorreiaa/payslip-vault/pkg/crypto"
	"github.com/FACorreiaa/payslip-vault/pkg/metrics"
	"github.com/FACorreiaa/payslip-vault/pkg/storage"
)

// ReconcileReport summarises one reconciliation run.
type ReconcileReport struct {
	Total   int // blobs found in the vault
	Added   int // records backfilled into the store
	Removed int // stale records deleted from the store
	Skipped int // blobs that could not be reconciled
}

// Reconcile brings the structured store in line with the blob vault. Blobs
// with no matching record are backfilled from their decrypted content; records
// whose blob is gone are deleted. Failures on one item never abort the run.
func (s *VaultService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	metrics.ReconcileRuns.Inc()

	blobs, err := s.vault.List(ctx)
	if err != nil {
		metrics.ReconcileFailures.Inc()
		return report, fmt.Errorf("failed to list vault: %w", err)
	}
	report.Total = len(blobs)

	storedIDs, err := s.repo.ListAllSourceIDs(ctx)
	if err != nil {
		metrics.ReconcileFailures.Inc()
		return report, fmt.Errorf("failed to list stored records: %w", err)
	}
	stored := make(map[string]struct{}, len(storedIDs))
	for _, id := range storedIDs {
		stored[id] = struct{}{}
	}

	vaulted := make(map[string]struct{}, len(blobs))
	for _, blob := range blobs {
		vaulted[blob.ID] = struct{}{}
		if _, ok := stored[blob.ID]; ok {
			continue
		}
		periodDate, ok := storage.PeriodDateFromName(blob.Name)
		if !ok {
			s.logger.Warn("blob name carries no period date, skipping",
				slog.String("blob_name", blob.Name))
			report.Skipped++
			continue
		}
		added, err := s.backfillBlob(ctx, blob, periodDate)
		if err != nil {
			s.logger.Error("failed to backfill blob",
				slog.String("blob_id", blob.ID),
				slog.String("blob_name", blob.Name),
				slog.Any("error", err),
			)
			metrics.ReconcileFailures.Inc()
			report.Skipped++
			continue
		}
		if added {
			report.Added++
		}
	}

	for _, id := range storedIDs {
		if _, ok := vaulted[id]; ok {
			continue
		}
		if err := s.repo.DeleteBySourceID(ctx, id); err != nil {
			s.logger.Error("failed to delete stale record",
				slog.String("source_id", id),
				slog.Any("error", err),
			)
			metrics.ReconcileFailures.Inc()
			report.Skipped++
			continue
		}
		report.Removed++
	}

	metrics.ReconcileAdded.Add(float64(report.Added))
	metrics.ReconcileRemoved.Add(float64(report.Removed))
	s.logger.Info("reconciliation complete",
		slog.Int("total", report.Total),
		slog.Int("added", report.Added),
		slog.Int("removed", report.Removed),
		slog.Int("skipped", report.Skipped),
	)
	return report, nil
}

// backfillBlob rebuilds the structured record for one vault blob. It returns
// false with a nil error when the record turned out to exist already.
func (s *VaultService) backfillBlob(ctx context.Context, blob *storage.FileInfo, periodDate time.Time) (bool, error) {
	// The blob may have gained a record since the listing was taken, for
	// example when an ingestion ran mid-reconcile. Re-check right before
	// writing.
	exists, err := s.repo.ExistsBySourceID(ctx, blob.ID)
	if err != nil {
		return false, fmt.Errorf("failed to re-check record: %w", err)
	}
	if exists {
		return false, nil
	}

	sealed, err := s.vault.Get(ctx, blob.ID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch blob: %w", err)
	}
	unlocked, err := crypto.Decrypt(sealed, s.vaultSecret)
	if err != nil {
		return false, fmt.Errorf("failed to decrypt blob: %w", err)
	}
	text, err := s.extractor.ExtractText(ctx, unlocked)
	if err != nil {
		return false, fmt.Errorf("failed to extract text: %w", err)
	}
	record := parser.ParseText(text)

	if err := s.storeRecord(ctx, blob.ID, periodDate, &record); err != nil {
		return false, err
	}
	s.logger.Info("record backfilled",
		slog.String("blob_id", blob.ID),
		slog.Time("period", periodDate),
	)
	return true, nil
}
