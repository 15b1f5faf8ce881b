// Package service orchestrates the payslip pipeline: ingestion of freshly
// delivered PDFs and scheduled reconciliation of the blob vault against the
// structured store.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FACorreiaa/payslip-vault/internal/domain/notify"
	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip/parser"
	"github.com/FACorreiaa/payslip-vault/internal/domain/vault/pdf"
	"github.com/FACorreiaa/payslip-vault/internal/domain/vault/repository"
	"github.com/FACorreiaa/payslip-vault/pkg/crypto"
	"github.com/FACorreiaa/payslip-vault/pkg/metrics"
	"github.com/FACorreiaa/payslip-vault/pkg/storage"
)

// PasswordStripper removes the document password from a locked PDF.
type PasswordStripper func(ctx context.Context, lockedPDF []byte, password string) ([]byte, error)

// VaultService runs the ingestion pipeline and the store reconciler.
type VaultService struct {
	vault     storage.Vault
	repo      repository.PayslipRepository
	extractor pdf.TextExtractor
	notifier  notify.Notifier
	logger    *slog.Logger

	stripPassword PasswordStripper
	vaultSecret   string
	pdfPassword   string
}

// NewVaultService wires the pipeline. stripPassword may be nil, in which case
// qpdf is used.
func NewVaultService(
	vault storage.Vault,
	repo repository.PayslipRepository,
	extractor pdf.TextExtractor,
	notifier notify.Notifier,
	logger *slog.Logger,
	vaultSecret, pdfPassword string,
) *VaultService {
	return &VaultService{
		vault:         vault,
		repo:          repo,
		extractor:     extractor,
		notifier:      notifier,
		logger:        logger,
		stripPassword: pdf.StripPassword,
		vaultSecret:   vaultSecret,
		pdfPassword:   pdfPassword,
	}
}

// IngestResult reports what one ingestion run did.
type IngestResult struct {
	Skipped bool
	BlobID  string
}

// IngestPDF processes one password-protected payslip PDF end to end:
// strip the document password, encrypt, upload to the vault, parse and store
// the structured record, then diff against the previous period and notify.
// Each payslip is processed strictly in sequence with no fan-out.
func (s *VaultService) IngestPDF(ctx context.Context, filename string, lockedPDF []byte) (*IngestResult, error) {
	baseName := strings.TrimSuffix(filename, ".pdf")

	exists, err := s.vault.Exists(ctx, baseName)
	if err != nil {
		return nil, fmt.Errorf("failed to probe vault: %w", err)
	}
	if exists {
		s.logger.Info("payslip already vaulted, skipping", slog.String("filename", filename))
		return &IngestResult{Skipped: true}, nil
	}

	s.logger.Info("stripping PDF password", slog.String("filename", filename))
	unlocked, err := s.stripPassword(ctx, lockedPDF, s.pdfPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to strip PDF password: %w", err)
	}

	sealed, err := crypto.Encrypt(unlocked, s.vaultSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt payslip: %w", err)
	}

	blobName := fmt.Sprintf("%s_%d.enc", baseName, time.Now().UnixMilli())
	info, err := s.vault.Put(ctx, sealed, blobName)
	if err != nil {
		return nil, fmt.Errorf("failed to upload payslip: %w", err)
	}
	s.logger.Info("payslip vaulted",
		slog.String("blob_id", info.ID),
		slog.String("blob_name", info.Name),
	)

	if err := s.notifier.PayslipStored(ctx, notify.StoredEvent{
		Filename: filename,
		BlobID:   info.ID,
		BlobName: info.Name,
		StoredAt: time.Now(),
	}); err != nil {
		// Delivery is best-effort; the payslip is already safe.
		s.logger.Error("failed to send stored notification", slog.Any("error", err))
	}

	periodDate, ok := storage.PeriodDateFromName(filename)
	if !ok {
		s.logger.Warn("filename carries no period date, skipping extraction",
			slog.String("filename", filename))
		return &IngestResult{BlobID: info.ID}, nil
	}

	text, err := s.extractor.ExtractText(ctx, unlocked)
	if err != nil {
		return nil, fmt.Errorf("failed to extract payslip text: %w", err)
	}
	record := parser.ParseText(text)

	if err := s.storeRecord(ctx, info.ID, periodDate, &record); err != nil {
		return nil, err
	}
	metrics.PayslipsIngested.Inc()

	if err := s.notifyChanges(ctx, periodDate, &record); err != nil {
		s.logger.Error("failed to deliver change report", slog.Any("error", err))
	}

	return &IngestResult{BlobID: info.ID}, nil
}

// ImportRecord stores an externally sourced structured record under the given
// source blob ID, with the same insert-if-absent semantics as the live
// pipeline.
func (s *VaultService) ImportRecord(ctx context.Context, sourceID string, periodDate time.Time, record *payslip.Record) error {
	return s.storeRecord(ctx, sourceID, periodDate, record)
}

// storeRecord encrypts the structured record and inserts it if absent.
func (s *VaultService) storeRecord(ctx context.Context, sourceID string, periodDate time.Time, record *payslip.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	sealed, err := crypto.Encrypt(payload, s.vaultSecret)
	if err != nil {
		return fmt.Errorf("failed to encrypt record: %w", err)
	}
	if err := s.repo.InsertIfAbsent(ctx, sourceID, periodDate, sealed); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return nil
}

// notifyChanges diffs the record against the most recent earlier period and
// delivers any changes. No earlier period means nothing to report.
func (s *VaultService) notifyChanges(ctx context.Context, periodDate time.Time, record *payslip.Record) error {
	prev, err := s.repo.GetPreviousBefore(ctx, periodDate)
	if err != nil {
		return fmt.Errorf("failed to load previous period: %w", err)
	}
	if prev == nil {
		return nil
	}

	plaintext, err := crypto.Decrypt(prev.Payload, s.vaultSecret)
	if err != nil {
		return fmt.Errorf("failed to decrypt previous record: %w", err)
	}
	var previous payslip.Record
	if err := json.Unmarshal(plaintext, &previous); err != nil {
		return fmt.Errorf("failed to unmarshal previous record: %w", err)
	}

	changes := payslip.DetectChanges(record, &previous)
	if len(changes) == 0 {
		return nil
	}
	s.logger.Info("payslip changes detected",
		slog.Time("period", periodDate),
		slog.Int("changes", len(changes)),
	)
	return s.notifier.PayslipChanges(ctx, periodDate, changes)
}
