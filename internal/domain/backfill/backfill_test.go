package backfill

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-vault/internal/domain/vault/service"
)

type ingestCall struct {
	filename string
	data     []byte
}

type importCall struct {
	sourceID   string
	periodDate time.Time
	record     payslip.Record
}

type fakePipeline struct {
	ingested  []ingestCall
	imported  []importCall
	skipNames map[string]bool
	failNames map[string]bool
	importErr error
}

func (f *fakePipeline) IngestPDF(_ context.Context, filename string, data []byte) (*service.IngestResult, error) {
	if f.failNames[filename] {
		return nil, errors.New("qpdf exploded")
	}
	if f.skipNames[filename] {
		return &service.IngestResult{Skipped: true}, nil
	}
	f.ingested = append(f.ingested, ingestCall{filename: filename, data: data})
	return &service.IngestResult{BlobID: "blob-" + filename}, nil
}

func (f *fakePipeline) ImportRecord(_ context.Context, sourceID string, periodDate time.Time, record *payslip.Record) error {
	if f.importErr != nil {
		return f.importErr
	}
	f.imported = append(f.imported, importCall{sourceID: sourceID, periodDate: periodDate, record: *record})
	return nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Payslip 2025-07-25.pdf", "july pdf")
	writeFile(t, dir, "Payslip 2025-08-25.PDF", "august pdf")
	writeFile(t, dir, "notes.txt", "not a payslip")

	pipeline := &fakePipeline{}
	importer := NewImporter(pipeline, slog.New(slog.DiscardHandler))

	summary, err := importer.ImportDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, Summary{Imported: 2}, summary)

	require.Len(t, pipeline.ingested, 2)
	assert.Equal(t, "Payslip 2025-07-25.pdf", pipeline.ingested[0].filename)
	assert.Equal(t, []byte("july pdf"), pipeline.ingested[0].data)
	assert.Equal(t, "Payslip 2025-08-25.PDF", pipeline.ingested[1].filename)
}

func TestImportDirectory_CountsSkipsAndFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf", "a")
	writeFile(t, dir, "b.pdf", "b")
	writeFile(t, dir, "c.pdf", "c")

	pipeline := &fakePipeline{
		skipNames: map[string]bool{"a.pdf": true},
		failNames: map[string]bool{"b.pdf": true},
	}
	importer := NewImporter(pipeline, slog.New(slog.DiscardHandler))

	summary, err := importer.ImportDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, Summary{Imported: 1, Skipped: 1, Failed: 1}, summary)
}

func TestImportDirectory_MissingDir(t *testing.T) {
	importer := NewImporter(&fakePipeline{}, slog.New(slog.DiscardHandler))
	_, err := importer.ImportDirectory(context.Background(), "/does/not/exist")
	require.Error(t, err)
}

const sampleCSV = `source_id,period_date,gross_pay,basic_salary,net_pay,paye,uif,pension,medical_aid,total_deductions,bonus,overtime
blob-1,2025-07-25,"31,500.00","28,636.36","22,959.24","5,500.00",177.12,0.00,0.00,"5,677.12",0.00,0.00
blob-2,2025-08-25,"33,500.00","28,636.36","24,459.24","5,500.00",177.12,0.00,0.00,"5,677.12","2,000.00",0.00
`

func TestImportCSV(t *testing.T) {
	pipeline := &fakePipeline{}
	importer := NewImporter(pipeline, slog.New(slog.DiscardHandler))

	summary, err := importer.ImportCSV(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, Summary{Imported: 2}, summary)

	require.Len(t, pipeline.imported, 2)
	first := pipeline.imported[0]
	assert.Equal(t, "blob-1", first.sourceID)
	assert.Equal(t, time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC), first.periodDate)
	assert.True(t, first.record.GrossPay.Equal(decimal.RequireFromString("31500.00")))
	assert.True(t, first.record.NetPay.Equal(decimal.RequireFromString("22959.24")))

	second := pipeline.imported[1]
	assert.True(t, second.record.Bonus.Equal(decimal.RequireFromString("2000.00")))
}

func TestImportCSV_SkipsBadRows(t *testing.T) {
	csv := `source_id,period_date,net_pay
,2025-07-25,100.00
blob-2,not-a-date,100.00
blob-3,2025-08-25,100.00
`
	pipeline := &fakePipeline{}
	importer := NewImporter(pipeline, slog.New(slog.DiscardHandler))

	summary, err := importer.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, Summary{Imported: 1, Skipped: 2}, summary)
	require.Len(t, pipeline.imported, 1)
	assert.Equal(t, "blob-3", pipeline.imported[0].sourceID)
}

func TestImportCSV_CountsInsertFailures(t *testing.T) {
	pipeline := &fakePipeline{importErr: errors.New("store down")}
	importer := NewImporter(pipeline, slog.New(slog.DiscardHandler))

	summary, err := importer.ImportCSV(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, Summary{Failed: 2}, summary)
}

func TestImportCSV_Garbage(t *testing.T) {
	importer := NewImporter(&fakePipeline{}, slog.New(slog.DiscardHandler))
	_, err := importer.ImportCSV(context.Background(), strings.NewReader(""))
	require.Error(t, err)
}
