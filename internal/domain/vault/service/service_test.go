package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/payslip-vault/internal/domain/notify"
	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-vault/internal/domain/vault/repository"
	"github.com/FACorreiaa/payslip-vault/pkg/crypto"
	"github.com/FACorreiaa/payslip-vault/pkg/storage"
)

const testSecret = "test-vault-secret"

const testPayslipText = `Income 34,313.48 34,313.48
Basic Salary 28,636.36 28,636.36
Deduction 5,677.12 5,677.12
Tax (PAYE) 5,500.00 5,500.00
UIF 177.12 177.12
NETT PAY R 22,959.24`

type fakeVault struct {
	blobs  []*storage.FileInfo
	data   map[string][]byte
	getErr map[string]error
}

func newFakeVault() *fakeVault {
	return &fakeVault{data: map[string][]byte{}, getErr: map[string]error{}}
}

func (v *fakeVault) List(context.Context) ([]*storage.FileInfo, error) {
	return v.blobs, nil
}

func (v *fakeVault) Get(_ context.Context, id string) ([]byte, error) {
	if err := v.getErr[id]; err != nil {
		return nil, err
	}
	data, ok := v.data[id]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", id)
	}
	return data, nil
}

func (v *fakeVault) Put(_ context.Context, data []byte, name string) (*storage.FileInfo, error) {
	info := &storage.FileInfo{
		ID:        uuid.NewString(),
		Name:      name,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
	}
	v.blobs = append(v.blobs, info)
	v.data[info.ID] = data
	return info, nil
}

func (v *fakeVault) Exists(_ context.Context, namePrefix string) (bool, error) {
	for _, b := range v.blobs {
		if strings.HasPrefix(b.Name, namePrefix) {
			return true, nil
		}
	}
	return false, nil
}

type storedRow struct {
	periodDate time.Time
	payload    []byte
}

type fakeRepo struct {
	rows map[string]storedRow

	// raceExists makes ExistsBySourceID report these IDs as present even
	// when ListAllSourceIDs does not return them.
	raceExists map[string]bool
	insertErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string]storedRow{}, raceExists: map[string]bool{}}
}

func (r *fakeRepo) InsertIfAbsent(_ context.Context, sourceID string, periodDate time.Time, payload []byte) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.rows[sourceID]; ok {
		return nil
	}
	r.rows[sourceID] = storedRow{periodDate: periodDate, payload: payload}
	return nil
}

func (r *fakeRepo) ExistsBySourceID(_ context.Context, sourceID string) (bool, error) {
	if r.raceExists[sourceID] {
		return true, nil
	}
	_, ok := r.rows[sourceID]
	return ok, nil
}

func (r *fakeRepo) GetPreviousBefore(_ context.Context, periodDate time.Time) (*repository.PreviousPayslip, error) {
	var best *repository.PreviousPayslip
	for _, row := range r.rows {
		if !row.periodDate.Before(periodDate) {
			continue
		}
		if best == nil || row.periodDate.After(best.PeriodDate) {
			best = &repository.PreviousPayslip{PeriodDate: row.periodDate, Payload: row.payload}
		}
	}
	return best, nil
}

func (r *fakeRepo) DeleteBySourceID(_ context.Context, sourceID string) error {
	delete(r.rows, sourceID)
	return nil
}

func (r *fakeRepo) ListAll(context.Context) ([]repository.StoredRecord, error) {
	records := make([]repository.StoredRecord, 0, len(r.rows))
	for id, row := range r.rows {
		records = append(records, repository.StoredRecord{
			SourceID:   id,
			PeriodDate: row.periodDate,
			Payload:    row.payload,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].PeriodDate.Before(records[j].PeriodDate)
	})
	return records, nil
}

func (r *fakeRepo) ListAllSourceIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (e *fakeExtractor) ExtractText(context.Context, []byte) (string, error) {
	return e.text, e.err
}

type fakeNotifier struct {
	stored  []notify.StoredEvent
	changes [][]payslip.Change
}

func (n *fakeNotifier) PayslipStored(_ context.Context, event notify.StoredEvent) error {
	n.stored = append(n.stored, event)
	return nil
}

func (n *fakeNotifier) PayslipChanges(_ context.Context, _ time.Time, changes []payslip.Change) error {
	n.changes = append(n.changes, changes)
	return nil
}

type testHarness struct {
	svc      *VaultService
	vault    *fakeVault
	repo     *fakeRepo
	notifier *fakeNotifier
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	vault := newFakeVault()
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := NewVaultService(
		vault,
		repo,
		&fakeExtractor{text: testPayslipText},
		notifier,
		slog.New(slog.DiscardHandler),
		testSecret,
		"pdf-password",
	)
	svc.stripPassword = func(_ context.Context, lockedPDF []byte, _ string) ([]byte, error) {
		return lockedPDF, nil
	}
	return &testHarness{svc: svc, vault: vault, repo: repo, notifier: notifier}
}

func TestIngestPDF_FirstPayslip(t *testing.T) {
	h := newTestHarness(t)

	res, err := h.svc.IngestPDF(context.Background(), "Payslip 2025-08-25.pdf", []byte("%PDF-1.7 locked"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Skipped)
	assert.NotEmpty(t, res.BlobID)

	require.Len(t, h.vault.blobs, 1)
	blob := h.vault.blobs[0]
	assert.True(t, strings.HasPrefix(blob.Name, "Payslip 2025-08-25_"))
	assert.True(t, strings.HasSuffix(blob.Name, ".enc"))

	// The uploaded blob decrypts back to the unlocked PDF.
	plaintext, err := crypto.Decrypt(h.vault.data[blob.ID], testSecret)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 locked"), plaintext)

	// A structured row was stored under the blob ID for the period date.
	row, ok := h.repo.rows[blob.ID]
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC), row.periodDate)

	recordJSON, err := crypto.Decrypt(row.payload, testSecret)
	require.NoError(t, err)
	var record payslip.Record
	require.NoError(t, json.Unmarshal(recordJSON, &record))
	assert.True(t, record.NetPay.Equal(decimal.RequireFromString("22959.24")))
	assert.True(t, record.GrossPay.Equal(decimal.RequireFromString("34313.48")))
	assert.True(t, record.BasicSalary.Equal(decimal.RequireFromString("28636.36")))
	assert.True(t, record.TotalDeductions.Equal(decimal.RequireFromString("5677.12")))
	assert.True(t, record.PAYE.Equal(decimal.RequireFromString("5500.00")))
	assert.True(t, record.UIF.Equal(decimal.RequireFromString("177.12")))

	require.Len(t, h.notifier.stored, 1)
	assert.Equal(t, "Payslip 2025-08-25.pdf", h.notifier.stored[0].Filename)
	assert.Empty(t, h.notifier.changes, "first period has nothing to diff against")
}

func TestIngestPDF_AlreadyVaulted(t *testing.T) {
	h := newTestHarness(t)
	_, err := h.vault.Put(context.Background(), []byte("old"), "Payslip 2025-08-25_1.enc")
	require.NoError(t, err)

	stripCalled := false
	h.svc.stripPassword = func(_ context.Context, lockedPDF []byte, _ string) ([]byte, error) {
		stripCalled = true
		return lockedPDF, nil
	}

	res, err := h.svc.IngestPDF(context.Background(), "Payslip 2025-08-25.pdf", []byte("locked"))
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.False(t, stripCalled)
	assert.Len(t, h.vault.blobs, 1)
	assert.Empty(t, h.notifier.stored)
}

func TestIngestPDF_ReportsChangesAgainstPreviousPeriod(t *testing.T) {
	h := newTestHarness(t)

	previous := payslip.Record{
		BasicSalary: decimal.RequireFromString("26000.00"),
		NetPay:      decimal.RequireFromString("21000.00"),
		PAYE:        decimal.RequireFromString("5500.00"),
		UIF:         decimal.RequireFromString("177.12"),
	}
	payload, err := json.Marshal(previous)
	require.NoError(t, err)
	sealed, err := crypto.Encrypt(payload, testSecret)
	require.NoError(t, err)
	require.NoError(t, h.repo.InsertIfAbsent(context.Background(), "prev-blob",
		time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC), sealed))

	_, err = h.svc.IngestPDF(context.Background(), "Payslip 2025-08-25.pdf", []byte("locked"))
	require.NoError(t, err)

	require.Len(t, h.notifier.changes, 1)
	fields := make([]string, 0, len(h.notifier.changes[0]))
	for _, c := range h.notifier.changes[0] {
		fields = append(fields, c.Field)
	}
	assert.Contains(t, fields, "Basic Salary")
	assert.Contains(t, fields, "Net Pay")
	assert.NotContains(t, fields, "PAYE", "unchanged amounts stay out of the report")
}

func TestIngestPDF_NoPeriodDateInFilename(t *testing.T) {
	h := newTestHarness(t)

	res, err := h.svc.IngestPDF(context.Background(), "scanned-document.pdf", []byte("locked"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.BlobID)

	// The blob is vaulted but no structured row is written.
	assert.Len(t, h.vault.blobs, 1)
	assert.Empty(t, h.repo.rows)
	assert.Len(t, h.notifier.stored, 1)
}

func TestIngestPDF_StripFailureAbortsPipeline(t *testing.T) {
	h := newTestHarness(t)
	h.svc.stripPassword = func(context.Context, []byte, string) ([]byte, error) {
		return nil, errors.New("invalid password")
	}

	_, err := h.svc.IngestPDF(context.Background(), "Payslip 2025-08-25.pdf", []byte("locked"))
	require.Error(t, err)
	assert.Empty(t, h.vault.blobs)
	assert.Empty(t, h.repo.rows)
	assert.Empty(t, h.notifier.stored)
}
