package report

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-vault/internal/domain/vault/repository"
	"github.com/FACorreiaa/payslip-vault/pkg/crypto"
)

const testSecret = "report-test-secret"

type fakeLister struct {
	records []repository.StoredRecord
}

func (f *fakeLister) ListAll(context.Context) ([]repository.StoredRecord, error) {
	return f.records, nil
}

func sealedRecord(t *testing.T, record payslip.Record) []byte {
	t.Helper()
	payload, err := json.Marshal(record)
	require.NoError(t, err)
	sealed, err := crypto.Encrypt(payload, testSecret)
	require.NoError(t, err)
	return sealed
}

func TestWriteHistory(t *testing.T) {
	lister := &fakeLister{records: []repository.StoredRecord{
		{
			SourceID:   "blob-1",
			PeriodDate: time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC),
			Payload: sealedRecord(t, payslip.Record{
				BasicSalary: decimal.RequireFromString("28636.36"),
				NetPay:      decimal.RequireFromString("22959.24"),
			}),
		},
		{
			SourceID:   "blob-2",
			PeriodDate: time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC),
			Payload: sealedRecord(t, payslip.Record{
				BasicSalary: decimal.RequireFromString("28636.36"),
				Bonus:       decimal.RequireFromString("2000.00"),
				NetPay:      decimal.RequireFromString("24459.24"),
			}),
		},
	}}
	exporter := NewExporter(lister, testSecret, slog.New(slog.DiscardHandler))

	var buf bytes.Buffer
	require.NoError(t, exporter.WriteHistory(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("History")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Period", rows[0][0])
	assert.Equal(t, "Net Pay", rows[0][10])

	assert.Equal(t, "2025-07-25", rows[1][0])
	assert.Equal(t, "28636.36", rows[1][2])
	assert.Equal(t, "22959.24", rows[1][10])

	assert.Equal(t, "2025-08-25", rows[2][0])
	assert.Equal(t, "2000", rows[2][3])
}

func TestWriteHistory_SkipsUndecodableRows(t *testing.T) {
	lister := &fakeLister{records: []repository.StoredRecord{
		{
			SourceID:   "blob-bad",
			PeriodDate: time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC),
			Payload:    []byte("not an envelope"),
		},
		{
			SourceID:   "blob-good",
			PeriodDate: time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC),
			Payload: sealedRecord(t, payslip.Record{
				NetPay: decimal.RequireFromString("22959.24"),
			}),
		},
	}}
	exporter := NewExporter(lister, testSecret, slog.New(slog.DiscardHandler))

	var buf bytes.Buffer
	require.NoError(t, exporter.WriteHistory(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("History")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-07-25", rows[1][0])
}