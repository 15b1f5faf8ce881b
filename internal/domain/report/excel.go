// Package report exports the stored payslip history as an Excel workbook.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-vault/internal/domain/vault/repository"
	"github.com/FACorreiaa/payslip-vault/pkg/crypto"
)

const historySheet = "History"

var historyHeaders = []string{
	"Period", "Gross Pay", "Basic Salary", "Bonus", "Overtime",
	"PAYE", "UIF", "Pension", "Medical Aid", "Total Deductions", "Net Pay",
}

// RecordLister is the slice of the structured store the exporter reads.
type RecordLister interface {
	ListAll(ctx context.Context) ([]repository.StoredRecord, error)
}

// Exporter builds history workbooks from the structured store.
type Exporter struct {
	repo        RecordLister
	vaultSecret string
	logger      *slog.Logger
}

// NewExporter creates a history exporter.
func NewExporter(repo RecordLister, vaultSecret string, logger *slog.Logger) *Exporter {
	return &Exporter{repo: repo, vaultSecret: vaultSecret, logger: logger}
}

// WriteHistory decrypts every stored period and writes one workbook row per
// period, oldest first, to w. Rows that fail to decrypt or decode are logged
// and left out.
func (e *Exporter) WriteHistory(ctx context.Context, w io.Writer) error {
	records, err := e.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored periods: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(historySheet, "A1", &historyHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	rowNum := 2
	for _, stored := range records {
		record, err := e.decodeRecord(stored.Payload)
		if err != nil {
			e.logger.Error("failed to decode stored period",
				slog.String("source_id", stored.SourceID),
				slog.Any("error", err),
			)
			continue
		}

		cells := []any{
			stored.PeriodDate.Format("2006-01-02"),
			record.GrossPay.InexactFloat64(),
			record.BasicSalary.InexactFloat64(),
			record.Bonus.InexactFloat64(),
			record.Overtime.InexactFloat64(),
			record.PAYE.InexactFloat64(),
			record.UIF.InexactFloat64(),
			record.Pension.InexactFloat64(),
			record.MedicalAid.InexactFloat64(),
			record.TotalDeductions.InexactFloat64(),
			record.NetPay.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(historySheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write period row: %w", err)
		}
		rowNum++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	e.logger.Info("history report written", slog.Int("periods", rowNum-2))
	return nil
}

func (e *Exporter) decodeRecord(payload []byte) (*payslip.Record, error) {
	plaintext, err := crypto.Decrypt(payload, e.vaultSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt record: %w", err)
	}
	var record payslip.Record
	if err := json.Unmarshal(plaintext, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}
